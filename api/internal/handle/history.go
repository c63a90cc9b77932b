package handle

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HistoryEntry is a history item without its image.
type HistoryEntry struct {
	ID         string `json:"id"`
	Timestamp  int64  `json:"timestamp"`
	Name       string `json:"name"`
	PartNumber string `json:"partNumber"`
}

func (h *Handle) History(w http.ResponseWriter, r *http.Request) error {
	items := h.sess.History()
	out := make([]HistoryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, HistoryEntry{
			ID:         it.ID,
			Timestamp:  it.Timestamp,
			Name:       it.Name,
			PartNumber: it.Report.Identification.PartNumber,
		})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handle) SelectHistory(w http.ResponseWriter, r *http.Request) error {
	st, err := h.sess.SelectHistory(chi.URLParam(r, "id"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}
