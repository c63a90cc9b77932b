package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/report"
)

func newTestEngine(t *testing.T, h http.HandlerFunc) *Engine {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	e := New("test-key", "gemini-test")
	e.BaseURL = srv.URL
	return e
}

func TestGenerate_RequestShape(t *testing.T) {
	var got map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-3-pro-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"text":"thinking...","thought":true},
			{"text":"{\"ok\":"},{"text":"true}"}]},
			"groundingMetadata":{"groundingChunks":[
				{"web":{"uri":"https://a","title":"A"}},
				{"retrievedContext":{"uri":"gs://b"}}]}}]}`))
	})

	e.Model = "gemini-3-pro-preview"

	resp, err := e.Generate(context.Background(), inference.Request{
		Image:          []byte{0xFF, 0xD8},
		MIME:           "image/jpeg",
		Prompt:         "identify",
		Schema:         report.ResponseSchema{},
		WebGrounding:   true,
		ThinkingBudget: 1024,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	require.Len(t, resp.Grounding, 2)
	assert.Equal(t, "https://a", resp.Grounding[0].Web.URI)
	assert.Nil(t, resp.Grounding[1].Web)
	assert.NotNil(t, resp.Grounding[1].RetrievedContext)

	cfg := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.NotNil(t, cfg["responseSchema"])
	assert.Equal(t, float64(1024), cfg["thinkingConfig"].(map[string]any)["thinkingBudget"])
	assert.Len(t, got["tools"], 1)

	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "/9g=", parts[0].(map[string]any)["inline_data"].(map[string]any)["data"])
	assert.Equal(t, "identify", parts[1].(map[string]any)["text"])
}

func TestGenerate_GroundedSchemaOnOlderModel(t *testing.T) {
	var got map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-pro:generateContent", r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	})
	e.Model = "gemini-2.5-pro"

	_, err := e.Generate(context.Background(), inference.Request{
		Prompt:         "identify",
		Schema:         report.ResponseSchema{},
		WebGrounding:   true,
		ThinkingBudget: 1024,
	})
	require.NoError(t, err)

	cfg := got["generationConfig"].(map[string]any)
	assert.NotContains(t, cfg, "responseMimeType")
	assert.NotContains(t, cfg, "responseSchema")
	assert.Contains(t, cfg, "thinkingConfig")
	assert.Len(t, got["tools"], 1)

	parts := got["contents"].([]any)[0].(map[string]any)["parts"].([]any)
	require.Len(t, parts, 1)
	text := parts[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(text, "identify\n\nRESPONSE JSON SCHEMA:\n"))
	assert.Contains(t, text, string(report.ResponseSchema{}.JSONSchema()))
}

func TestGenerate_SchemaWithoutTools(t *testing.T) {
	var got map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`))
	})
	e.Model = "gemini-2.5-pro"

	_, err := e.Generate(context.Background(), inference.Request{Prompt: "x", Schema: report.ResponseSchema{}})
	require.NoError(t, err)
	cfg := got["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.NotNil(t, cfg["responseSchema"])
}

func TestGenerate_FreeText(t *testing.T) {
	var got map[string]any
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &got))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Pin 4 is reset."}]}}]}`))
	})

	resp, err := e.Generate(context.Background(), inference.Request{Prompt: "what is pin 4?"})
	require.NoError(t, err)
	assert.Equal(t, "Pin 4 is reset.", resp.Text)
	assert.Nil(t, resp.Grounding)
	assert.NotContains(t, got, "tools")
	assert.Empty(t, got["generationConfig"])
}

func TestGenerate_Errors(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})
	_, err := e.Generate(context.Background(), inference.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Resource has been exhausted")

	e = newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	})
	_, err = e.Generate(context.Background(), inference.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerate_NoCredential(t *testing.T) {
	called := false
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	e.APIKey = ""

	_, err := e.Generate(context.Background(), inference.Request{Prompt: "x"})
	assert.ErrorIs(t, err, inference.ErrNoCredential)
	assert.False(t, called)
	assert.False(t, e.Configured())
}
