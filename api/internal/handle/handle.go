// Package handle exposes one scanning session over HTTP.
package handle

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"chip-scanner/api/internal/analysis"
	"chip-scanner/api/internal/session"
)

type Handle struct {
	sess   *session.Controller
	logger *slog.Logger
}

func New(sess *session.Controller, logger *slog.Logger) *Handle {
	return &Handle{sess: sess, logger: logger.With("source", "HTTP")}
}

// Router mounts every endpoint. origins feeds the CORS allow-list.
func (h *Handle) Router(origins []string) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/scan", h.wrap(h.Scan))
		rt.Get("/session", h.wrap(h.Session))
		rt.Post("/session/reset", h.wrap(h.Reset))
		rt.Get("/history", h.wrap(h.History))
		rt.Post("/history/{id}/select", h.wrap(h.SelectHistory))
		rt.Post("/ask", h.wrap(h.Ask))
		rt.Get("/report/pins", h.wrap(h.Pins))
		rt.Get("/report/dossier", h.wrap(h.Dossier))
		rt.Get("/notes", h.wrap(h.Notes))
		rt.Put("/notes", h.wrap(h.SaveNotes))
	})
	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks client input errors.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// scanError carries the session state a failed submit ended in.
type scanError struct {
	state session.State
	err   error
}

func (e scanError) Error() string { return e.err.Error() }
func (e scanError) Unwrap() error { return e.err }

type errorBody struct {
	Error   string         `json:"error"`
	Session *session.State `json:"session,omitempty"`
}

func (h *Handle) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		var (
			bad  badRequest
			conf *analysis.ConfigurationError
			ae   *analysis.AnalysisError
		)
		switch {
		case errors.As(err, &bad):
			writeJSON(w, http.StatusBadRequest, errorBody{Error: bad.msg})
		case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNoReport):
			writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
		case errors.Is(err, session.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		case errors.As(err, &conf):
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
		case errors.As(err, &ae):
			body := errorBody{Error: err.Error()}
			var se scanError
			if errors.As(err, &se) {
				body.Session = &se.state
			}
			writeJSON(w, http.StatusBadGateway, body)
		default:
			h.logger.ErrorContext(r.Context(), "request failed",
				slog.String("path", r.URL.Path), slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest{msg: "bad json: " + err.Error()}
	}
	return nil
}
