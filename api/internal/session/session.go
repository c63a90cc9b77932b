// Package session drives the single active analysis: current image, current report and status.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"chip-scanner/api/internal/history"
	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/store"
)

var (
	ErrBusy     = errors.New("session: an analysis is already running")
	ErrNoReport = errors.New("session: no active report")
	ErrNotFound = errors.New("session: history item not found")
)

type Status string

const (
	StatusIdle      Status = "idle"
	StatusAnalyzing Status = "analyzing"
	StatusReady     Status = "ready"
	StatusError     Status = "error"
)

// State is a snapshot; the controller swaps the whole value on every transition.
type State struct {
	Status       Status         `json:"status"`
	Image        []byte         `json:"-"`
	MIME         string         `json:"mime,omitempty"`
	Report       *report.Report `json:"report,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	HistoryID    string         `json:"historyId,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Image = append([]byte(nil), s.Image...)
	if s.Report != nil {
		r := s.Report.Clone()
		out.Report = &r
	}
	return out
}

type Analyzer interface {
	Analyze(ctx context.Context, image []byte, mime string) (report.Report, error)
}

type Asker interface {
	Ask(ctx context.Context, id report.Identification, question string) string
}

// Controller owns one session. It is safe for concurrent use; only one analysis runs at a time.
type Controller struct {
	analyzer Analyzer
	asker    Asker
	history  *history.Cache
	kv       store.KV
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	state State
}

func New(analyzer Analyzer, asker Asker, hist *history.Cache, kv store.KV, logger *slog.Logger) *Controller {
	return &Controller{
		analyzer: analyzer,
		asker:    asker,
		history:  hist,
		kv:       kv,
		logger:   logger.With("source", "Session"),
		now:      time.Now,
		state:    State{Status: StatusIdle},
	}
}

// Submit analyzes image and blocks until the session is ready or failed.
// While another analysis runs it returns ErrBusy and leaves the state alone.
// Analysis errors are returned as well as recorded in the state.
func (c *Controller) Submit(ctx context.Context, image []byte, mime string) (State, error) {
	c.mu.Lock()
	if c.state.Status == StatusAnalyzing {
		c.mu.Unlock()
		return State{}, ErrBusy
	}
	c.state = State{Status: StatusAnalyzing, Image: image, MIME: mime}
	c.mu.Unlock()

	rep, err := c.analyzer.Analyze(ctx, image, mime)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "analysis failed"
		}
		c.logger.WarnContext(ctx, "analysis failed", slog.Any("error", err))
		return c.set(State{Status: StatusError, Image: image, MIME: mime, ErrorMessage: msg}), err
	}

	var historyID string
	item, err := history.NewItem(image, mime, rep, c.now())
	if err != nil {
		c.logger.ErrorContext(ctx, "history item", slog.Any("error", err))
	} else {
		historyID = item.ID
		if err := c.history.Append(ctx, item); err != nil {
			c.logger.ErrorContext(ctx, "history not persisted", slog.Any("error", err))
		}
	}
	return c.set(State{Status: StatusReady, Image: image, MIME: mime, Report: &rep, HistoryID: historyID}), nil
}

func (c *Controller) set(s State) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	return s.clone()
}

// SelectHistory makes a past analysis the active one without re-running it.
func (c *Controller) SelectHistory(id string) (State, error) {
	item, ok := c.history.Get(id)
	if !ok {
		return State{}, ErrNotFound
	}
	img, mime, err := item.ImageBytes()
	if err != nil {
		c.logger.Warn("history image not decodable", slog.String("id", id), slog.Any("error", err))
	}
	rep := item.Report.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == StatusAnalyzing {
		return State{}, ErrBusy
	}
	c.state = State{Status: StatusReady, Image: img, MIME: mime, Report: &rep, HistoryID: item.ID}
	return c.state.clone(), nil
}

// Reset returns to idle. It is rejected while an analysis runs.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Status == StatusAnalyzing {
		return ErrBusy
	}
	c.state = State{Status: StatusIdle}
	return nil
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Report returns the active report, if any.
func (c *Controller) Report() (report.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Report == nil {
		return report.Report{}, false
	}
	return c.state.Report.Clone(), true
}

// Ask answers a question about the active report. Without one the asker is not called.
func (c *Controller) Ask(ctx context.Context, question string) (string, error) {
	rep, ok := c.Report()
	if !ok {
		return "", ErrNoReport
	}
	return c.asker.Ask(ctx, rep.Identification, question), nil
}

func (c *Controller) History() []history.Item { return c.history.List() }

// Notes returns the saved research notes. An unreadable record reads as empty.
func (c *Controller) Notes(ctx context.Context) (string, error) {
	notes, err := store.LoadNotes(ctx, c.kv)
	if err != nil {
		c.logger.Warn("notes unavailable, using empty", slog.Any("err", err))
		return "", nil
	}
	return notes, nil
}

func (c *Controller) SaveNotes(ctx context.Context, notes string) error {
	return store.SaveNotes(ctx, c.kv, notes)
}
