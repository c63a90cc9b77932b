package inference

import (
	"fmt"
	"strings"
)

type Engines struct {
	Gemini Generator
	GenAI  Generator
	OpenAI Generator
}

func (e *Engines) GetEngine(name string) (Generator, error) {
	var g Generator
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini":
		g = e.Gemini
	case "genai", "gemini-sdk":
		g = e.GenAI
	case "gpt", "openai":
		g = e.OpenAI
	default:
		return nil, fmt.Errorf("unknown engine %q; use gemini | genai | openai", name)
	}
	if g == nil {
		return nil, fmt.Errorf("engine %q is not set up", name)
	}
	return g, nil
}

// Names lists the engines that are set up.
func (e *Engines) Names() []string {
	var out []string
	if e.Gemini != nil {
		out = append(out, "gemini")
	}
	if e.GenAI != nil {
		out = append(out, "genai")
	}
	if e.OpenAI != nil {
		out = append(out, "openai")
	}
	return out
}
