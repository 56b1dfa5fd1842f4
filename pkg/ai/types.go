package ai

import "context"

// Message is one turn of prior conversation included for context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles understood by the provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionRequest is a single prompt sent to the text-generation provider.
type CompletionRequest struct {
	System      string
	Prompt      string
	History     []Message
	MaxTokens   int
	Temperature float32
	JSONOnly    bool
}

// Provider describes an external text/JSON-generation service. Callers treat
// it as opaque and unreliable: responses may be prose, code-fenced, or
// structurally incomplete, and must be repaired downstream.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
