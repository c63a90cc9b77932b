package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"chip-scanner/api/internal/app"
	"chip-scanner/api/internal/config"
	"chip-scanner/api/internal/httpserver"
	"chip-scanner/api/internal/telegram"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("missing required env TELEGRAM_BOT_TOKEN")
	}
	logger := app.NewLogger(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	defer a.Close()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.Debug = false

	r := &telegram.Router{
		Bot:        bot,
		NewSession: a.Session,
		Engine:     a.Engine.Name() + " (" + a.Engine.GetModel() + ")",
		Logger:     logger.With("source", "Telegram"),
	}

	addr := "0.0.0.0:" + cfg.Port
	serve := func() error { return httpserver.StartHTTP(addr, "chip-scanner telegram bot", logger, a.Ping) }
	handle := func(upd tgbotapi.Update) { go r.HandleUpdate(ctx, upd) }

	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		startWebhookMode(bot, webhookURL, handle, serve, logger)
	} else {
		startPollingMode(ctx, bot, handle, serve, logger)
	}
}

func startWebhookMode(bot *tgbotapi.BotAPI, baseURL string, handle func(tgbotapi.Update), serve func() error, logger *slog.Logger) {
	// secret path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		log.Fatal(err)
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		log.Fatal(err)
	}

	// ListenForWebhook registers on DefaultServeMux
	updates := bot.ListenForWebhook(path)
	go func() {
		for upd := range updates {
			handle(upd)
		}
		logger.Warn("webhook updates channel closed")
	}()

	logger.Info("webhook mode", slog.String("path", path))
	if err := serve(); err != nil {
		log.Fatal(err)
	}
}

func startPollingMode(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update), serve func() error, logger *slog.Logger) {
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		logger.Warn("delete webhook", slog.Any("error", err))
	}
	go func() {
		if err := serve(); err != nil {
			log.Fatal(err)
		}
	}()
	runPolling(ctx, bot, handle, logger)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, handle func(tgbotapi.Update), logger *slog.Logger) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second

	for {
		select {
		case <-ctx.Done():
			logger.Info("polling stopped")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			logger.Warn("polling error", slog.Any("error", err), slog.Duration("retry_in", d))
			time.Sleep(d)
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}

// shortHash is FNV-1a as 16 hex chars; stable per token, not a secret by itself.
func shortHash(s string) string {
	h := uint64(1469598103934665603)
	const prime = 1099511628211
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime
	}
	const hexdigits = "0123456789abcdef"
	out := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		out[i] = hexdigits[h&0xF]
		h >>= 4
	}
	return string(out)
}
