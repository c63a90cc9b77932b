// Package telegram serves the scanner as a Telegram bot: one session per chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chip-scanner/api/internal/analysis"
	"chip-scanner/api/internal/session"
	"chip-scanner/api/internal/util"
)

const maxMessage = 3900

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Router struct {
	Bot        Bot
	NewSession SessionFactory
	Engine     string // shown by /engine, e.g. "gemini (gemini-3-pro-preview)"
	Logger     *slog.Logger
	HTTPClient *http.Client

	sessions sync.Map // chatID -> *session.Controller
}

// HandleUpdate processes one update to completion. Callers run it in its own goroutine;
// a second photo in the same chat during an analysis is refused by the session.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	cid := msg.Chat.ID

	switch {
	case msg.IsCommand():
		r.HandleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, cid, msg.Photo[len(msg.Photo)-1].FileID, "")
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		r.acceptPhoto(ctx, cid, msg.Document.FileID, msg.Document.MimeType)
	case strings.TrimSpace(msg.Text) != "":
		r.ask(ctx, cid, msg.Text)
	}
}

func (r *Router) ask(ctx context.Context, cid int64, question string) {
	ctx, cancel := context.WithTimeout(ctx, 70*time.Second)
	defer cancel()

	answer, err := r.session(ctx, cid).Ask(ctx, question)
	if errors.Is(err, session.ErrNoReport) {
		r.send(cid, "Send a photo of a component first, then ask about it.")
		return
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.send(cid, answer)
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessage))
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", slog.Int64("chat", chatID), slog.Any("error", err))
	}
}

func (r *Router) sendDocument(chatID int64, name string, body []byte, caption string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: body})
	doc.Caption = caption
	if _, err := r.Bot.Send(doc); err != nil {
		r.logger().Warn("telegram document failed", slog.Int64("chat", chatID), slog.Any("error", err))
	}
}

// SendError explains a failure in terms the user can act on.
func (r *Router) SendError(chatID int64, err error) {
	var (
		conf *analysis.ConfigurationError
		ae   *analysis.AnalysisError
	)
	switch {
	case errors.Is(err, session.ErrBusy):
		r.send(chatID, "⏳ Still analyzing the previous photo. Please wait for it to finish.")
	case errors.As(err, &conf):
		r.send(chatID, "⚙️ The scanner is not configured: "+conf.Msg)
	case errors.As(err, &ae):
		r.send(chatID, fmt.Sprintf("❌ Analysis failed: %v\nSend the photo again to retry.", err))
	default:
		r.send(chatID, fmt.Sprintf("❌ Error: %v", err))
	}
}

func (r *Router) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}
