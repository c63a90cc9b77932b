package handle

import "net/http"

type NotesBody struct {
	Notes string `json:"notes"`
}

func (h *Handle) Notes(w http.ResponseWriter, r *http.Request) error {
	notes, err := h.sess.Notes(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, NotesBody{Notes: notes})
	return nil
}

func (h *Handle) SaveNotes(w http.ResponseWriter, r *http.Request) error {
	var body NotesBody
	if err := decode(r, &body); err != nil {
		return err
	}
	if err := h.sess.SaveNotes(r.Context(), body.Notes); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, body)
	return nil
}
