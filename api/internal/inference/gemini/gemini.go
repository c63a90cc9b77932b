// Package gemini talks to the Gemini REST generateContent endpoint directly.
// Unlike the SDK it can switch on Google Search grounding and a thinking budget.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chip-scanner/api/internal/inference"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string
	httpc   *http.Client
}

func New(key, model string) *Engine {
	return &Engine{
		APIKey:  strings.TrimSpace(key),
		Model:   strings.TrimSpace(model),
		BaseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: 10 * time.Minute},
	}
}

func (e *Engine) Name() string      { return "gemini" }
func (e *Engine) GetModel() string  { return e.Model }
func (e *Engine) Configured() bool  { return e.APIKey != "" }
func (e *Engine) SetModel(m string) { e.Model = strings.TrimSpace(m) }
func (e *Engine) Grounds() bool     { return true }

func schemaWithTools(model string) bool {
	return strings.HasPrefix(strings.TrimPrefix(model, "models/"), "gemini-3")
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
	Thought    bool        `json:"thought,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	Tools            []map[string]any `json:"tools,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generateResponse struct {
	Candidates []struct {
		Content           content `json:"content"`
		FinishReason      string  `json:"finishReason"`
		GroundingMetadata *struct {
			GroundingChunks []inference.GroundingChunk `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (e *Engine) Generate(ctx context.Context, in inference.Request) (inference.Response, error) {
	if e.APIKey == "" {
		return inference.Response{}, inference.ErrNoCredential
	}

	parts := make([]part, 0, 2)
	if len(in.Image) > 0 {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: in.MIME,
			Data:     base64.StdEncoding.EncodeToString(in.Image),
		}})
	}
	prompt := in.Prompt
	var schema json.RawMessage
	if in.Schema != nil {
		schema = in.Schema.JSONSchema()
	}
	// Models before Gemini 3 reject responseSchema next to tools; the schema travels in the prompt instead.
	if schema != nil && in.WebGrounding && !schemaWithTools(e.Model) {
		prompt += "\n\nRESPONSE JSON SCHEMA:\n" + string(schema)
		schema = nil
	}
	parts = append(parts, part{Text: prompt})

	body := generateRequest{Contents: []content{{Role: "user", Parts: parts}}}
	if schema != nil {
		body.GenerationConfig.ResponseMimeType = "application/json"
		body.GenerationConfig.ResponseSchema = schema
	}
	if in.ThinkingBudget > 0 {
		body.GenerationConfig.ThinkingConfig = &thinkingConfig{ThinkingBudget: in.ThinkingBudget}
	}
	if in.WebGrounding {
		body.Tools = []map[string]any{{"google_search": map[string]any{}}}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return inference.Response{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(e.BaseURL, "/"), e.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return inference.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.APIKey)

	resp, err := e.httpc.Do(req)
	if err != nil {
		return inference.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		x, _ := io.ReadAll(resp.Body)
		var ae apiError
		if json.Unmarshal(x, &ae) == nil && ae.Error.Message != "" {
			return inference.Response{}, fmt.Errorf("gemini %d: %s", resp.StatusCode, ae.Error.Message)
		}
		return inference.Response{}, fmt.Errorf("gemini %d: %s", resp.StatusCode, strings.TrimSpace(string(x)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return inference.Response{}, fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return inference.Response{}, fmt.Errorf("gemini: prompt blocked: %s", out.PromptFeedback.BlockReason)
		}
		return inference.Response{}, fmt.Errorf("gemini: no candidates")
	}

	c := out.Candidates[0]
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	res := inference.Response{Text: b.String()}
	if c.GroundingMetadata != nil {
		res.Grounding = c.GroundingMetadata.GroundingChunks
	}
	return res, nil
}
