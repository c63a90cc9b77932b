// Package genaisdk runs requests through the generative-ai-go SDK.
// The SDK exposes no search tool and no thinking config, so WebGrounding and
// ThinkingBudget are not forwarded; responses never carry grounding chunks.
package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"chip-scanner/api/internal/inference"
)

type Engine struct {
	APIKey   string
	Model    string
	Endpoint string // optional override, used by tests
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string      { return "genai" }
func (e *Engine) GetModel() string  { return e.Model }
func (e *Engine) Configured() bool  { return e.APIKey != "" }
func (e *Engine) SetModel(m string) { e.Model = strings.TrimSpace(m) }

func (e *Engine) Generate(ctx context.Context, in inference.Request) (inference.Response, error) {
	if e.APIKey == "" {
		return inference.Response{}, inference.ErrNoCredential
	}
	opts := []option.ClientOption{option.WithAPIKey(e.APIKey)}
	if e.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(e.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return inference.Response{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return inference.Response{}, fmt.Errorf("genai: model is nil")
	}
	m.GenerationConfig = buildConfig(in)

	parts := make([]genai.Part, 0, 2)
	if len(in.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: in.MIME, Data: in.Image})
	}
	parts = append(parts, genai.Text(in.Prompt))

	resp, err := m.GenerateContent(ctx, parts...)
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return inference.Response{}, fmt.Errorf("genai: response blocked: %w", err)
		}
		return inference.Response{}, err
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return inference.Response{}, fmt.Errorf("genai: empty response")
	}
	return inference.Response{Text: txt}, nil
}

func buildConfig(in inference.Request) genai.GenerationConfig {
	var cfg genai.GenerationConfig
	if in.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = in.Schema.GenaiSchema()
	}
	return cfg
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}
