package handle

import (
	"context"
	"net/http"
	"time"

	"chip-scanner/api/internal/util"
)

type ScanRequest struct {
	ImageB64 string `json:"image_b64"` // plain base64 or a data: URL
	MIME     string `json:"mime,omitempty"`
}

// Scan runs one analysis and answers with the resulting session.
func (h *Handle) Scan(w http.ResponseWriter, r *http.Request) error {
	var req ScanRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	img, hint, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		return badRequest{msg: "bad image_b64"}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 180*time.Second)
	defer cancel()

	st, err := h.sess.Submit(ctx, img, util.PickMIME(req.MIME, hint, img))
	if err != nil {
		return scanError{state: st, err: err}
	}
	writeJSON(w, http.StatusOK, st)
	return nil
}

func (h *Handle) Session(w http.ResponseWriter, r *http.Request) error {
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
	return nil
}

func (h *Handle) Reset(w http.ResponseWriter, r *http.Request) error {
	if err := h.sess.Reset(); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, h.sess.Snapshot())
	return nil
}
