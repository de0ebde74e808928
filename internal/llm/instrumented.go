package llm

import (
	"context"
	"time"
)

// Observer receives one callback per completed provider call.
type Observer interface {
	ObserveCompletion(provider string, elapsed time.Duration, resp *CompletionResponse, err error)
}

type instrumentedProvider struct {
	provider Provider
	observer Observer
}

// WithObserver reports every call made through provider to observer.
func WithObserver(provider Provider, observer Observer) Provider {
	if observer == nil {
		return provider
	}
	return &instrumentedProvider{provider: provider, observer: observer}
}

func (p *instrumentedProvider) Name() string {
	return p.provider.Name()
}

func (p *instrumentedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()
	resp, err := p.provider.Complete(ctx, req)
	p.observer.ObserveCompletion(p.provider.Name(), time.Since(start), resp, err)
	return resp, err
}
