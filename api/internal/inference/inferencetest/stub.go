// Package inferencetest provides an in-memory inference.Generator.
package inferencetest

import (
	"context"
	"sync"

	"chip-scanner/api/internal/inference"
)

// Stub answers every request with Resp/Err, or with Fn when set.
type Stub struct {
	Resp  inference.Response
	Err   error
	NoKey bool
	Fn    func(req inference.Request) (inference.Response, error)

	mu    sync.Mutex
	calls []inference.Request
}

func (s *Stub) Name() string     { return "stub" }
func (s *Stub) GetModel() string { return "stub-model" }
func (s *Stub) Configured() bool { return !s.NoKey }

func (s *Stub) Generate(ctx context.Context, req inference.Request) (inference.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	if s.NoKey {
		return inference.Response{}, inference.ErrNoCredential
	}
	if s.Fn != nil {
		return s.Fn(req)
	}
	return s.Resp, s.Err
}

func (s *Stub) Calls() []inference.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]inference.Request(nil), s.calls...)
}
