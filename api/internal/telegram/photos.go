package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"chip-scanner/api/internal/util"
)

const maxPhotoBytes = 20 << 20

func (r *Router) acceptPhoto(ctx context.Context, cid int64, fileID, mime string) {
	url, err := r.Bot.GetFileDirectURL(fileID)
	if err != nil {
		r.SendError(cid, err)
		return
	}
	img, err := r.download(ctx, url)
	if err != nil {
		r.SendError(cid, fmt.Errorf("download photo: %w", err))
		return
	}

	r.send(cid, "🔬 Photo received. Analyzing the component, this can take a minute…")

	ctx, cancel := context.WithTimeout(ctx, 180*time.Second)
	defer cancel()

	st, err := r.session(ctx, cid).Submit(ctx, img, util.PickMIME(mime, "", img))
	if err != nil {
		r.SendError(cid, err)
		return
	}
	r.sendReport(cid, *st.Report)
}

func (r *Router) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(bytes.TrimSpace(b)))
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxPhotoBytes {
		return nil, fmt.Errorf("photo larger than %d MB", maxPhotoBytes>>20)
	}
	r.logger().Debug("photo downloaded", slog.Int("bytes", len(b)))
	return b, nil
}

func (r *Router) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
