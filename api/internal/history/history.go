// Package history keeps the most recent analyses, newest first, persisted as one record.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/store"
	"chip-scanner/api/internal/util"
)

// Capacity is the number of items kept; older ones are dropped on Append.
const Capacity = 15

type Item struct {
	ID        string        `json:"id"`
	Timestamp int64         `json:"timestamp"` // unix ms
	Name      string        `json:"name"`
	Image     string        `json:"image"` // data URL
	Report    report.Report `json:"report"`
}

// NewItem records one successful analysis. The id is a UUIDv7, so it sorts by creation time.
func NewItem(image []byte, mime string, r report.Report, now time.Time) (Item, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Item{}, fmt.Errorf("history id: %w", err)
	}
	return Item{
		ID:        id.String(),
		Timestamp: now.UnixMilli(),
		Name:      r.Identification.Name,
		Image:     util.MakeDataURL(util.PickMIME(mime, "", image), image),
		Report:    r.Clone(),
	}, nil
}

// ImageBytes decodes the stored still and its MIME type.
func (it Item) ImageBytes() ([]byte, string, error) {
	return util.DecodeBase64MaybeDataURL(it.Image)
}

func (it Item) Time() time.Time { return time.UnixMilli(it.Timestamp) }

// Cache is a fixed-capacity FIFO of items. Eviction ignores reads.
type Cache struct {
	kv     store.KV
	logger *slog.Logger

	mu    sync.RWMutex
	items []Item
}

func New(kv store.KV, logger *slog.Logger) *Cache {
	return &Cache{kv: kv, logger: logger.With("source", "History")}
}

// Load replaces the cache with the persisted sequence. A missing or unreadable
// record leaves the cache empty; the error is only logged.
func (c *Cache) Load(ctx context.Context) {
	items, err := c.read(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "history not restored, starting empty", slog.Any("error", err))
		items = nil
	}
	if len(items) > Capacity {
		items = items[:Capacity]
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.logger.DebugContext(ctx, "history loaded", slog.Int("items", len(items)))
}

func (c *Cache) read(ctx context.Context) ([]Item, error) {
	b, err := c.kv.Get(ctx, store.KeyHistory)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return items, nil
}

// Append puts item in front, drops whatever falls past Capacity and persists.
// The in-memory cache is updated even if persisting fails.
func (c *Cache) Append(ctx context.Context, item Item) error {
	c.mu.Lock()
	next := make([]Item, 0, min(len(c.items)+1, Capacity))
	next = append(next, item)
	next = append(next, c.items...)
	if len(next) > Capacity {
		next = next[:Capacity]
	}
	c.items = next
	c.mu.Unlock()
	return c.Persist(ctx)
}

// Persist writes the whole ordered sequence as a single JSON array.
func (c *Cache) Persist(ctx context.Context) error {
	c.mu.RLock()
	b, err := json.Marshal(c.items)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := c.kv.Put(ctx, store.KeyHistory, b); err != nil {
		return fmt.Errorf("persist history: %w", err)
	}
	return nil
}

// List returns a copy, most recent first.
func (c *Cache) List() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cache) Get(id string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
