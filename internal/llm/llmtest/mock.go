// Package llmtest provides a scripted llm.Provider for tests.
package llmtest

import (
	"context"
	"sync"

	"github.com/ziadkadry99/mindmap/internal/llm"
)

// Reply computes the response for one request. Returning an error fails
// the call.
type Reply func(req llm.CompletionRequest) (string, error)

// Provider records every request and answers through Reply. Gate, when
// non-nil, blocks each call until a value is received or ctx ends.
type Provider struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	Reply Reply
	Gate  chan struct{}
}

// New returns a Provider answering every request with content.
func New(content string) *Provider {
	return &Provider{Reply: func(llm.CompletionRequest) (string, error) { return content, nil }}
}

func (p *Provider) Name() string { return "mock" }

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.mu.Unlock()

	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	content, err := p.Reply(req)
	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content:      content,
		InputTokens:  10,
		OutputTokens: 20,
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

// CallCount returns how many requests have been received.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Calls returns a copy of the recorded requests.
func (p *Provider) Calls() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.calls...)
}
