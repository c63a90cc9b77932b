// Package app wires config into engines, the analyzer, the store and per-session controllers.
// The three binaries share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/template"

	"chip-scanner/api/internal/analysis"
	"chip-scanner/api/internal/config"
	"chip-scanner/api/internal/followup"
	"chip-scanner/api/internal/history"
	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/inference/gemini"
	"chip-scanner/api/internal/inference/genaisdk"
	"chip-scanner/api/internal/inference/openai"
	"chip-scanner/api/internal/session"
	"chip-scanner/api/internal/store"
)

type App struct {
	Config   *config.Config
	Engines  *inference.Engines
	Engine   inference.Generator
	Analyzer *analysis.Analyzer
	FollowUp *followup.Service
	KV       store.KV
	Logger   *slog.Logger

	closeKV func() error
}

func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func Engines(cfg *config.Config) *inference.Engines {
	return &inference.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		GenAI:  genaisdk.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
	}
}

// New opens the store and builds the pipeline around the engine named in cfg.
// A missing API key is not an error here; every analysis reports it instead.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	engines := Engines(cfg)
	return Build(ctx, cfg, engines, logger)
}

// Build is New with caller-supplied engines.
func Build(ctx context.Context, cfg *config.Config, engines *inference.Engines, logger *slog.Logger) (*App, error) {
	gen, err := engines.GetEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if !gen.Configured() {
		logger.Warn("inference engine has no API key; analyses will fail until one is set",
			slog.String("engine", gen.Name()))
	}
	if !inference.CanGround(gen) {
		logger.Warn("inference engine does not support web grounding; reports will carry no citations",
			slog.String("engine", gen.Name()))
	}

	var tmpl *template.Template
	if cfg.PromptFile != "" {
		if tmpl, err = analysis.LoadInstruction(cfg.PromptFile); err != nil {
			return nil, err
		}
	}
	prompt := analysis.DefaultPromptData()
	if cfg.PriceRegion != "" {
		prompt.Region = cfg.PriceRegion
	}
	if cfg.PriceCurrency != "" {
		prompt.Currency = cfg.PriceCurrency
	}
	if len(cfg.PriceRetailers) > 0 {
		prompt.Retailers = cfg.PriceRetailers
	}
	analyzer, err := analysis.New(gen, analysis.Config{
		ThinkingBudget: cfg.ThinkingBudget,
		Instruction:    tmpl,
		Prompt:         prompt,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("analyzer: %w", err)
	}

	kv, closeKV, err := store.Open(ctx, StoreOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}

	return &App{
		Config:   cfg,
		Engines:  engines,
		Engine:   gen,
		Analyzer: analyzer,
		FollowUp: followup.New(gen, cfg.ThinkingBudget, logger),
		KV:       kv,
		Logger:   logger,
		closeKV:  closeKV,
	}, nil
}

func StoreOptions(cfg *config.Config) store.Options {
	return store.Options{
		Kind:        cfg.Store,
		Dir:         cfg.StoreDir,
		SQLitePath:  cfg.SQLitePath,
		DatabaseURL: cfg.DatabaseURL,
		Minio: store.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Region:    cfg.Minio.Region,
			UseSSL:    cfg.Minio.UseSSL,
		},
	}
}

// Session builds a controller whose history and notes live under prefix
// ("" for the single-user surfaces, "chat:<id>:" for the bot). History is loaded once here.
func (a *App) Session(ctx context.Context, prefix string) *session.Controller {
	kv := a.KV
	if prefix != "" {
		kv = store.WithPrefix(a.KV, prefix)
	}
	hist := history.New(kv, a.Logger)
	hist.Load(ctx)
	return session.New(a.Analyzer, a.FollowUp, hist, kv, a.Logger)
}

func (a *App) Close() error {
	if a.closeKV == nil {
		return nil
	}
	return a.closeKV()
}

// Ping reads one key to check the store is reachable.
func (a *App) Ping(ctx context.Context) error {
	_, err := a.KV.Get(ctx, store.KeyNotes)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
