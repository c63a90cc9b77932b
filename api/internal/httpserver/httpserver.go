// Package httpserver runs the bot's side HTTP listener on http.DefaultServeMux,
// where tgbotapi.ListenForWebhook also registers.
package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Healthz answers "ok", or 503 with the first failing check.
func Healthz(checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for _, c := range checks {
			if err := c(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("not ok\n" + err.Error()))
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	}
}

// StartHTTP registers /healthz and a banner on the default mux and serves it.
func StartHTTP(addr, banner string, logger *slog.Logger, checks ...Check) error {
	http.HandleFunc("/healthz", Healthz(checks...))
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(banner))
	})
	logger.Info("listening", slog.String("addr", addr))
	return http.ListenAndServe(addr, nil)
}
