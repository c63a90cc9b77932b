package followup_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chip-scanner/api/internal/followup"
	"chip-scanner/api/internal/inference"
	"chip-scanner/api/internal/inference/inferencetest"
	"chip-scanner/api/internal/report"
)

var id = report.Identification{Name: "NE555", PartNumber: "NE555P", Manufacturer: "TI", Family: "Timer", Confidence: 90}

func newService(gen inference.Generator) *followup.Service {
	return followup.New(gen, 1024, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestAsk(t *testing.T) {
	stub := &inferencetest.Stub{Resp: inference.Response{Text: "Pin 4 resets the timer."}}
	s := newService(stub)

	got := s.Ask(context.Background(), id, "What does pin 4 do?")
	assert.Equal(t, "Pin 4 resets the timer.", got)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Nil(t, req.Schema)
	assert.False(t, req.WebGrounding)
	assert.Empty(t, req.Image)
	assert.Equal(t, 1024, req.ThinkingBudget)
	assert.Contains(t, req.Prompt, `"partNumber":"NE555P"`)
	assert.Contains(t, req.Prompt, "Question: What does pin 4 do?")
}

func TestAsk_Stateless(t *testing.T) {
	stub := &inferencetest.Stub{Resp: inference.Response{Text: "ok"}}
	s := newService(stub)
	s.Ask(context.Background(), id, "first")
	s.Ask(context.Background(), id, "second")

	calls := stub.Calls()
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[1].Prompt, "first")
	assert.Contains(t, calls[1].Prompt, `"name":"NE555"`)
}

func TestAsk_Fallbacks(t *testing.T) {
	tests := []struct {
		name     string
		stub     *inferencetest.Stub
		question string
		calls    int
	}{
		{name: "remote error", stub: &inferencetest.Stub{Err: errors.New("boom")}, question: "q", calls: 1},
		{name: "empty answer", stub: &inferencetest.Stub{Resp: inference.Response{Text: "  "}}, question: "q", calls: 1},
		{name: "no credential", stub: &inferencetest.Stub{NoKey: true}, question: "q", calls: 0},
		{name: "blank question", stub: &inferencetest.Stub{}, question: "   ", calls: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, followup.FallbackAnswer, newService(tt.stub).Ask(context.Background(), id, tt.question))
			assert.Len(t, tt.stub.Calls(), tt.calls)
		})
	}
}
