// Package openai serves the inference capability with OpenAI vision chat models.
// There is no web grounding; responses never carry grounding chunks.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/util"
)

type Engine struct {
	APIKey  string
	Model   string
	BaseURL string // optional override
}

func New(apiKey, model string) *Engine {
	return &Engine{APIKey: strings.TrimSpace(apiKey), Model: strings.TrimSpace(model)}
}

func (e *Engine) Name() string      { return "openai" }
func (e *Engine) GetModel() string  { return e.Model }
func (e *Engine) Configured() bool  { return e.APIKey != "" }
func (e *Engine) SetModel(m string) { e.Model = strings.TrimSpace(m) }

func (e *Engine) client() *openai.Client {
	cfg := openai.DefaultConfig(e.APIKey)
	if e.BaseURL != "" {
		cfg.BaseURL = e.BaseURL
	}
	return openai.NewClientWithConfig(cfg)
}

func (e *Engine) Generate(ctx context.Context, in inference.Request) (inference.Response, error) {
	if e.APIKey == "" {
		return inference.Response{}, inference.ErrNoCredential
	}
	resp, err := e.client().CreateChatCompletion(ctx, buildRequest(e.Model, in))
	if err != nil {
		return inference.Response{}, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return inference.Response{}, fmt.Errorf("openai: no choices")
	}
	return inference.Response{Text: resp.Choices[0].Message.Content}, nil
}

func buildRequest(model string, in inference.Request) openai.ChatCompletionRequest {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(in.Image) > 0 {
		msg.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    util.MakeDataURL(in.MIME, in.Image),
					Detail: openai.ImageURLDetailHigh,
				},
			},
			{Type: openai.ChatMessagePartTypeText, Text: in.Prompt},
		}
	} else {
		msg.Content = in.Prompt
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: []openai.ChatCompletionMessage{msg},
	}
	if in.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "ic_intelligence_report",
				Schema: in.Schema.JSONSchema(),
				Strict: false,
			},
		}
	}
	// reasoning models take an effort level instead of a token budget
	if isReasoningModel(model) && in.ThinkingBudget > 0 {
		req.ReasoningEffort = effortFor(in.ThinkingBudget)
	}
	return req
}

func isReasoningModel(model string) bool {
	return strings.HasPrefix(model, "o1") || strings.HasPrefix(model, "o3") ||
		strings.HasPrefix(model, "o4") || strings.HasPrefix(model, "gpt-5")
}

func effortFor(budget int) string {
	switch {
	case budget >= 16384:
		return "high"
	case budget >= 4096:
		return "medium"
	default:
		return "low"
	}
}
