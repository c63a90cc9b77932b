package genaisdk

import (
	"context"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/report"
)

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig(inference.Request{Schema: report.ResponseSchema{}, WebGrounding: true, ThinkingBudget: 10})
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.NotNil(t, cfg.ResponseSchema)
	assert.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)

	cfg = buildConfig(inference.Request{Prompt: "free text"})
	assert.Empty(t, cfg.ResponseMIMEType)
	assert.Nil(t, cfg.ResponseSchema)
}

func TestFirstText(t *testing.T) {
	assert.Empty(t, firstText(nil))
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: nil},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}}},
	}}
	assert.Equal(t, `{"a":1}`, firstText(resp))
}

func TestGenerate_NoCredential(t *testing.T) {
	e := New("  ", "gemini-2.5-pro")
	assert.False(t, e.Configured())
	_, err := e.Generate(context.Background(), inference.Request{Prompt: "x"})
	assert.ErrorIs(t, err, inference.ErrNoCredential)
}
