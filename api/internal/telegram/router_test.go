package telegram

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/analysis"
	"chip-scanner/api/internal/followup"
	"chip-scanner/api/internal/history"
	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/inference/inferencetest"
	"chip-scanner/api/internal/report/reporttest"
	"chip-scanner/api/internal/session"
	"chip-scanner/api/internal/store"
)

var photo = []byte("\xff\xd8\xff\xe0 chip photo")

type fakeBot struct {
	fileURL string

	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetFileDirectURL(string) (string, error) { return b.fileURL, nil }

func (b *fakeBot) texts() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

func (b *fakeBot) last() string {
	t := b.texts()
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1]
}

func (b *fakeBot) documents() []tgbotapi.DocumentConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.DocumentConfig
	for _, c := range b.sent {
		if d, ok := c.(tgbotapi.DocumentConfig); ok {
			out = append(out, d)
		}
	}
	return out
}

func newRouter(t *testing.T, stub *inferencetest.Stub) (*Router, *fakeBot) {
	t.Helper()
	files := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(photo)
	}))
	t.Cleanup(files.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	an, err := analysis.New(stub, analysis.Config{}, logger)
	require.NoError(t, err)
	fu := followup.New(stub, 0, logger)

	bot := &fakeBot{fileURL: files.URL + "/photo.jpg"}
	r := &Router{
		Bot: bot,
		NewSession: func(ctx context.Context, prefix string) *session.Controller {
			pkv := store.WithPrefix(kv, prefix)
			h := history.New(pkv, logger)
			h.Load(ctx)
			return session.New(an, fu, h, pkv, logger)
		},
		Engine:     "stub (stub-model)",
		Logger:     logger,
		HTTPClient: files.Client(),
	}
	return r, bot
}

func command(chatID int64, text, cmd string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}},
	}}
}

func text(chatID int64, s string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: s}}
}

func photoUpdate(chatID int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:  &tgbotapi.Chat{ID: chatID},
		Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}},
	}}
}

func TestPhotoThenQuestion(t *testing.T) {
	ctx := context.Background()
	stub := &inferencetest.Stub{Resp: inference.Response{Text: string(reporttest.JSON("NE555"))}}
	r, bot := newRouter(t, stub)

	r.HandleUpdate(ctx, photoUpdate(7))

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, photo, calls[0].Image)
	assert.Equal(t, "image/jpeg", calls[0].MIME)
	assert.Contains(t, bot.last(), "NE555 (NE555N)")

	docs := bot.documents()
	require.Len(t, docs, 1)
	file, ok := docs[0].File.(tgbotapi.FileBytes)
	require.True(t, ok)
	assert.Equal(t, "dossier-NE555N.txt", file.Name)
	assert.Contains(t, string(file.Bytes), "RESEARCH DOSSIER: NE555")

	stub.Resp = inference.Response{Text: "Pin 4 resets."}
	r.HandleUpdate(ctx, text(7, "what does pin 4 do?"))
	assert.Equal(t, "Pin 4 resets.", bot.last())
}

func TestQuestionWithoutReport(t *testing.T) {
	stub := &inferencetest.Stub{}
	r, bot := newRouter(t, stub)

	r.HandleUpdate(context.Background(), text(7, "what is this?"))
	assert.Contains(t, bot.last(), "Send a photo")
	assert.Empty(t, stub.Calls())
}

func TestAnalysisFailure(t *testing.T) {
	stub := &inferencetest.Stub{Resp: inference.Response{Text: "{}"}}
	r, bot := newRouter(t, stub)

	r.HandleUpdate(context.Background(), photoUpdate(7))
	assert.Contains(t, bot.last(), "Analysis failed")
	assert.Empty(t, bot.documents())
}

func TestMissingKey(t *testing.T) {
	r, bot := newRouter(t, &inferencetest.Stub{NoKey: true})

	r.HandleUpdate(context.Background(), photoUpdate(7))
	assert.Contains(t, bot.last(), "not configured")
}

func TestHistoryAndOpen(t *testing.T) {
	ctx := context.Background()
	stub := &inferencetest.Stub{Resp: inference.Response{Text: string(reporttest.JSON("NE555"))}}
	r, bot := newRouter(t, stub)
	r.HandleUpdate(ctx, photoUpdate(7))
	stub.Resp = inference.Response{Text: string(reporttest.JSON("LM317"))}
	r.HandleUpdate(ctx, photoUpdate(7))

	r.HandleUpdate(ctx, command(7, "/history", "history"))
	list := bot.last()
	assert.Contains(t, list, "1. LM317")
	assert.Contains(t, list, "2. NE555")

	r.HandleUpdate(ctx, command(7, "/open 2", "open"))
	assert.Contains(t, bot.last(), "NE555 (NE555N)")
	assert.Len(t, stub.Calls(), 2)

	r.HandleUpdate(ctx, command(7, "/open 9", "open"))
	assert.Contains(t, bot.last(), "Usage: /open")

	// other chats keep their own history
	r.HandleUpdate(ctx, command(8, "/history", "history"))
	assert.Contains(t, bot.last(), "No scans yet")
}

func TestPinsNotesReset(t *testing.T) {
	ctx := context.Background()
	stub := &inferencetest.Stub{Resp: inference.Response{Text: string(reporttest.JSON("NE555"))}}
	r, bot := newRouter(t, stub)

	r.HandleUpdate(ctx, command(7, "/pins vcc", "pins"))
	assert.Contains(t, bot.last(), "No active report")

	r.HandleUpdate(ctx, photoUpdate(7))
	r.HandleUpdate(ctx, command(7, "/pins vcc", "pins"))
	assert.Equal(t, "Pin 8 · VCC: Supply voltage\n", bot.last())

	r.HandleUpdate(ctx, command(7, "/notes", "notes"))
	assert.Contains(t, bot.last(), "No notes yet")
	r.HandleUpdate(ctx, command(7, "/notes check pin 3", "notes"))
	r.HandleUpdate(ctx, command(7, "/notes", "notes"))
	assert.Contains(t, bot.last(), "check pin 3")

	r.HandleUpdate(ctx, command(7, "/reset", "reset"))
	_, ok := r.session(ctx, 7).Report()
	assert.False(t, ok)

	r.HandleUpdate(ctx, command(7, "/engine", "engine"))
	assert.Equal(t, "Engine: stub (stub-model)", bot.last())
}

func TestDossierName(t *testing.T) {
	rep := reporttest.Report("NE555")
	assert.Equal(t, "dossier-NE555N.txt", dossierName(rep))
	rep.Identification.PartNumber = "LM 317/T"
	assert.Equal(t, "dossier-LM_317_T.txt", dossierName(rep))
	rep.Identification.PartNumber = ""
	rep.Identification.Name = "??"
	assert.Equal(t, "dossier-component.txt", dossierName(rep))
}
