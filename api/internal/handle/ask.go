package handle

import (
	"context"
	"net/http"
	"strings"
	"time"

	"chip-scanner/api/internal/session"
)

type AskRequest struct {
	Question string `json:"question"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

func (h *Handle) Ask(w http.ResponseWriter, r *http.Request) error {
	var req AskRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Question) == "" {
		return badRequest{msg: "question is required"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 70*time.Second)
	defer cancel()

	answer, err := h.sess.Ask(ctx, req.Question)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, AskResponse{Answer: answer})
	return nil
}

// Pins filters the active report's pin table by number, name or description.
func (h *Handle) Pins(w http.ResponseWriter, r *http.Request) error {
	rep, ok := h.sess.Report()
	if !ok {
		return session.ErrNoReport
	}
	writeJSON(w, http.StatusOK, rep.FilterPins(r.URL.Query().Get("q")))
	return nil
}

func (h *Handle) Dossier(w http.ResponseWriter, r *http.Request) error {
	rep, ok := h.sess.Report()
	if !ok {
		return session.ErrNoReport
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	return rep.Dossier(w)
}
