// Package analysis turns a component photo into a validated intelligence report.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/report"
	"chip-scanner/api/internal/util"
)

// DefaultThinkingBudget suits the multi-part extraction; lower it to trade quality for latency and cost.
const DefaultThinkingBudget = 32768

type Config struct {
	ThinkingBudget int
	Instruction    *template.Template // nil: DefaultInstruction
	Prompt         PromptData
}

type Analyzer struct {
	gen    inference.Generator
	tmpl   *template.Template
	data   PromptData
	budget int
	logger *slog.Logger
}

func New(gen inference.Generator, cfg Config, logger *slog.Logger) (*Analyzer, error) {
	tmpl := cfg.Instruction
	if tmpl == nil {
		var err error
		if tmpl, err = ParseInstruction(DefaultInstruction); err != nil {
			return nil, err
		}
	}
	data := cfg.Prompt
	if data.Region == "" && data.Currency == "" && len(data.Retailers) == 0 {
		data = DefaultPromptData()
	}
	budget := cfg.ThinkingBudget
	if budget <= 0 {
		budget = DefaultThinkingBudget
	}
	a := &Analyzer{
		gen:    gen,
		tmpl:   tmpl,
		data:   data,
		budget: budget,
		logger: logger.With("source", "Analyzer"),
	}
	// fail on a broken template now rather than on the first photo
	if _, err := a.Instruction(); err != nil {
		return nil, err
	}
	return a, nil
}

// Instruction renders the extraction protocol text.
func (a *Analyzer) Instruction() (string, error) {
	return render(a.tmpl, a.data)
}

// Analyze sends one photo to the inference backend and returns a schema-valid report.
// Errors are *ConfigurationError or *AnalysisError. There is no retry.
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mime string) (report.Report, error) {
	if a.gen == nil || !a.gen.Configured() {
		return report.Report{}, &ConfigurationError{Msg: "missing API key for the inference engine"}
	}
	if len(image) == 0 {
		return report.Report{}, &AnalysisError{Msg: "empty image"}
	}
	prompt, err := a.Instruction()
	if err != nil {
		return report.Report{}, &AnalysisError{Msg: "render instruction", Err: err}
	}

	start := time.Now()
	resp, err := a.gen.Generate(ctx, inference.Request{
		Image:          image,
		MIME:           util.PickMIME(mime, "", image),
		Prompt:         prompt,
		Schema:         report.ResponseSchema{},
		WebGrounding:   true,
		ThinkingBudget: a.budget,
	})
	if err != nil {
		if errors.Is(err, inference.ErrNoCredential) {
			return report.Report{}, &ConfigurationError{Msg: err.Error()}
		}
		a.logger.ErrorContext(ctx, "inference failed", slog.String("engine", a.gen.Name()), slog.Any("error", err))
		return report.Report{}, &AnalysisError{Msg: "remote inference failed", Err: err}
	}

	txt := util.StripCodeFences(resp.Text)
	if !json.Valid([]byte(txt)) || !strings.HasPrefix(txt, "{") {
		a.logger.WarnContext(ctx, "malformed response", slog.String("head", util.Truncate(txt, 120)))
		return report.Report{}, &AnalysisError{Msg: MsgMalformedResponse}
	}
	rep, err := report.Validate([]byte(txt))
	if err != nil {
		a.logger.WarnContext(ctx, "report rejected", slog.Any("error", err))
		return report.Report{}, &AnalysisError{Msg: "incomplete report", Err: err}
	}
	rep = rep.WithGrounding(ExtractGrounding(resp.Grounding))

	a.logger.InfoContext(ctx, "analysis done",
		slog.String("engine", a.gen.Name()),
		slog.String("model", a.gen.GetModel()),
		slog.String("image", util.SHA256Hex(image)[:12]),
		slog.String("name", rep.Identification.Name),
		slog.Int("sources", len(rep.GroundingSources)),
		slog.Duration("took", time.Since(start)))
	return rep, nil
}
