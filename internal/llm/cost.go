package llm

import (
	"sync"
	"time"
)

// modelPricing is USD per million tokens.
type modelPricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var priceTable = map[string]modelPricing{
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-haiku-4-5-20251001":  {InputPerMillion: 0.80, OutputPerMillion: 4.00},
	"gpt-4o":                     {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":                {InputPerMillion: 0.15, OutputPerMillion: 0.60},
}

// EstimateCost returns the USD cost of a call, or 0 for unpriced models
// (including every local Ollama model).
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	pricing, ok := priceTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000.0*pricing.InputPerMillion +
		float64(outputTokens)/1_000_000.0*pricing.OutputPerMillion
}

// Totals is a point-in-time copy of Usage.
type Totals struct {
	Requests     int
	Failures     int
	InputTokens  int
	OutputTokens int
	CostUSD      float64
}

// Usage accumulates token counts across calls. It implements Observer so
// it can be attached with WithObserver.
type Usage struct {
	mu     sync.Mutex
	totals Totals
}

func (u *Usage) ObserveCompletion(_ string, _ time.Duration, resp *CompletionResponse, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totals.Requests++
	if err != nil || resp == nil {
		u.totals.Failures++
		return
	}
	u.totals.InputTokens += resp.InputTokens
	u.totals.OutputTokens += resp.OutputTokens
	u.totals.CostUSD += EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)
}

// Totals returns the accumulated counts.
func (u *Usage) Totals() Totals {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totals
}
