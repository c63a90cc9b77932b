package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"chip-scanner/api/internal/app"
	"chip-scanner/api/internal/config"
	"chip-scanner/api/internal/handle"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	h := handle.New(a.Session(ctx, ""), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("scanner-api listening",
		slog.String("addr", srv.Addr),
		slog.String("engine", a.Engine.Name()),
		slog.String("model", a.Engine.GetModel()),
		slog.String("store", cfg.Store))
	log.Fatal(srv.ListenAndServe())
}
