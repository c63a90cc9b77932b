// Package followup answers free-text questions about one identified component.
package followup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/report"
)

// FallbackAnswer is returned whenever a question cannot be answered.
const FallbackAnswer = "Unable to process query."

const questionTemplate = `Expert IC Context: {{.Context}}. Question: {{.Question}}`

var tmpl = template.Must(template.New("question").Parse(questionTemplate))

type Service struct {
	gen    inference.Generator
	budget int
	logger *slog.Logger
}

func New(gen inference.Generator, thinkingBudget int, logger *slog.Logger) *Service {
	return &Service{gen: gen, budget: thinkingBudget, logger: logger.With("source", "FollowUp")}
}

// Ask sends the identification block and the question in one stateless request.
// It never fails: every error degrades to FallbackAnswer.
func (s *Service) Ask(ctx context.Context, id report.Identification, question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return FallbackAnswer
	}
	if s.gen == nil || !s.gen.Configured() {
		s.logger.WarnContext(ctx, "follow-up skipped: inference engine has no API key")
		return FallbackAnswer
	}
	prompt, err := Prompt(id, question)
	if err != nil {
		s.logger.ErrorContext(ctx, "build follow-up prompt", slog.Any("error", err))
		return FallbackAnswer
	}
	resp, err := s.gen.Generate(ctx, inference.Request{
		Prompt:         prompt,
		ThinkingBudget: s.budget,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "follow-up failed", slog.String("component", id.Name), slog.Any("error", err))
		return FallbackAnswer
	}
	if strings.TrimSpace(resp.Text) == "" {
		return FallbackAnswer
	}
	return resp.Text
}

// Prompt renders the follow-up request text.
func Prompt(id report.Identification, question string) (string, error) {
	ctxJSON, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("marshal identification: %w", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, map[string]string{"Context": string(ctxJSON), "Question": question}); err != nil {
		return "", err
	}
	return b.String(), nil
}
