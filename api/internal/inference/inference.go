// Package inference describes the remote multimodal model as an opaque capability.
// Concrete backends live in the sub-packages.
package inference

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/generative-ai-go/genai"
)

// ErrNoCredential is returned before any network attempt when the backend has no API key.
var ErrNoCredential = errors.New("inference: API key is empty")

// Schema constrains the response to structured data, rendered per backend.
type Schema interface {
	JSONSchema() json.RawMessage
	GenaiSchema() *genai.Schema
}

type Request struct {
	Image  []byte // optional
	MIME   string
	Prompt string

	Schema         Schema // nil: free-text answer
	WebGrounding   bool
	ThinkingBudget int // tokens; 0 leaves the backend default
}

type Response struct {
	Text      string
	Grounding []GroundingChunk
}

// GroundingChunk is one record of the web-search augmentation metadata.
// Exactly one of the pointers is set, depending on the chunk's shape.
type GroundingChunk struct {
	Web              *WebChunk     `json:"web,omitempty"`
	RetrievedContext *ContextChunk `json:"retrievedContext,omitempty"`
}

type WebChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

type ContextChunk struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
}

type Generator interface {
	Name() string
	GetModel() string
	// Configured reports whether a credential is present.
	Configured() bool
	Generate(ctx context.Context, req Request) (Response, error)
}

// Grounder is implemented by backends that honour Request.WebGrounding.
type Grounder interface {
	Grounds() bool
}

// CanGround reports whether g attaches web-search citations to its answers.
func CanGround(g Generator) bool {
	gr, ok := g.(Grounder)
	return ok && gr.Grounds()
}
