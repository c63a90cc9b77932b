package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/session"
)

const helpText = `Send a photo of an IC or other component and I will identify it and build an intelligence report: specs, pinout, tests, prices and references.

After a scan, just type a question about the part.

Commands:
/history - recent scans
/open <n> - reopen scan n from /history
/pins <query> - search the pin table
/notes [text] - show or replace your research notes
/reset - clear the current report
/engine - show the inference engine`

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "engine":
		r.send(cid, "Engine: "+r.Engine)
	case "history":
		r.send(cid, historyText(r.session(ctx, cid).History()))
	case "open":
		r.open(ctx, cid, args)
	case "reset":
		if err := r.session(ctx, cid).Reset(); err != nil {
			r.SendError(cid, err)
			return
		}
		r.send(cid, "Cleared. Send a new photo when ready.")
	case "pins":
		rep, ok := r.session(ctx, cid).Report()
		if !ok {
			r.send(cid, "No active report. Send a photo or /open a past scan.")
			return
		}
		r.send(cid, pinsText(rep.FilterPins(args), args))
	case "notes":
		r.notes(ctx, cid, args)
	default:
		r.send(cid, "Unknown command. /help lists them.")
	}
}

func (r *Router) open(ctx context.Context, cid int64, arg string) {
	sess := r.session(ctx, cid)
	items := sess.History()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(items) {
		r.send(cid, fmt.Sprintf("Usage: /open <n>, where n is 1..%d from /history.", len(items)))
		return
	}
	st, err := sess.SelectHistory(items[n-1].ID)
	if errors.Is(err, session.ErrNotFound) {
		r.send(cid, "That scan is no longer in history.")
		return
	}
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.sendReport(cid, *st.Report)
}

func (r *Router) notes(ctx context.Context, cid int64, text string) {
	sess := r.session(ctx, cid)
	if text != "" {
		if err := sess.SaveNotes(ctx, text); err != nil {
			r.SendError(cid, err)
			return
		}
		r.send(cid, "📝 Notes saved.")
		return
	}
	notes, err := sess.Notes(ctx)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	if notes == "" {
		r.send(cid, "No notes yet. Use /notes <text> to save some.")
		return
	}
	r.send(cid, "📝 Notes:\n\n"+notes)
}

func (r *Router) sendReport(cid int64, rep report.Report) {
	r.send(cid, summaryText(rep))
	var buf bytes.Buffer
	if err := rep.Dossier(&buf); err != nil {
		r.SendError(cid, err)
		return
	}
	r.sendDocument(cid, dossierName(rep), buf.Bytes(), "Research dossier")
}
