// Package llm hides the differences between chat-completion backends behind
// a single Provider interface used for topic and subtopic generation.
package llm

import "context"

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a backend-neutral chat completion request. JSONMode
// asks the backend to constrain its reply to a single JSON object.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse carries the reply text and token accounting.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Provider sends completion requests to one backend.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// defaultMaxTokens bounds replies when the caller does not. Topic trees are
// small JSON documents.
const defaultMaxTokens = 2048
