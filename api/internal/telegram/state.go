package telegram

import (
	"context"
	"strconv"

	"chip-scanner/api/internal/session"
)

// SessionFactory builds the controller for one chat; prefix namespaces its history and notes.
type SessionFactory func(ctx context.Context, prefix string) *session.Controller

func chatPrefix(chatID int64) string { return "chat:" + strconv.FormatInt(chatID, 10) + ":" }

// session returns the chat's controller, creating it (and loading its history) on first use.
func (r *Router) session(ctx context.Context, chatID int64) *session.Controller {
	if v, ok := r.sessions.Load(chatID); ok {
		return v.(*session.Controller)
	}
	c := r.NewSession(ctx, chatPrefix(chatID))
	v, _ := r.sessions.LoadOrStore(chatID, c)
	return v.(*session.Controller)
}
