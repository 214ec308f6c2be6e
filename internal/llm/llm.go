// Package llm talks to the text-extraction language model.
package llm

import "context"

// Request is a single-turn completion: one system instruction followed by
// one user message. No history is carried between calls.
type Request struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	JSON        bool // ask for a JSON-object response
}

// Completer defines the interface for LLM providers.
type Completer interface {
	// Complete returns the raw text of the model's reply.
	Complete(ctx context.Context, req Request) (string, error)
}
