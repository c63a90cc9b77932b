package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"chip-scanner/api/internal/app"
	"chip-scanner/api/internal/config"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(openApp).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context, engine string) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if engine != "" {
		cfg.Engine = engine
	}
	return app.New(ctx, cfg, app.NewLogger(os.Stderr, cfg.LogLevel))
}
