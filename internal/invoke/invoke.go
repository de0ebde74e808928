// Package invoke fulfils structured generation requests: a prompt plus the
// JSON schema the reply must follow, answered by an LLM provider.
package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"go.uber.org/zap"

	"github.com/ziadkadry99/mindmap/internal/llm"
)

// ErrMalformedReply is returned when the model's reply is not JSON.
var ErrMalformedReply = errors.New("model reply is not valid JSON")

// Request is one structured generation call.
type Request struct {
	Prompt                 string          `json:"prompt"`
	AddContextFromInternet bool            `json:"add_context_from_internet"`
	ResponseJSONSchema     json.RawMessage `json:"response_json_schema"`
}

// Invoker answers a Request by decoding the reply into out.
type Invoker interface {
	Invoke(ctx context.Context, req Request, out any) error
}

// SchemaFor reflects the JSON schema of v's type with all definitions
// inlined, so it can be pasted into a prompt verbatim.
func SchemaFor(v any) json.RawMessage {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	data, err := json.Marshal(r.Reflect(v))
	if err != nil {
		// Reflected schemas of plain structs always marshal.
		panic(fmt.Sprintf("invoke: marshalling schema: %v", err))
	}
	return data
}

// LLMInvoker sends Requests to an llm.Provider in JSON mode.
type LLMInvoker struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewLLMInvoker creates an invoker. model may be empty to use the
// provider's default.
func NewLLMInvoker(provider llm.Provider, model string, logger *zap.Logger) *LLMInvoker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMInvoker{provider: provider, model: model, temperature: 0.7, logger: logger}
}

const systemPrompt = `You are a knowledgeable educator building concept maps.
Reply with one JSON object that conforms to this JSON schema and nothing else:
%s`

// Providers here have no browsing tool, so internet context becomes an
// instruction to draw on current general knowledge.
const internetContextHint = "Use up-to-date, widely accepted facts about the topic."

func (i *LLMInvoker) Invoke(ctx context.Context, req Request, out any) error {
	prompt := req.Prompt
	if req.AddContextFromInternet {
		prompt += "\n\n" + internetContextHint
	}

	resp, err := i.provider.Complete(ctx, llm.CompletionRequest{
		Model: i.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: fmt.Sprintf(systemPrompt, req.ResponseJSONSchema)},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: i.temperature,
		JSONMode:    true,
	})
	if err != nil {
		return fmt.Errorf("invoking %s: %w", i.provider.Name(), err)
	}

	i.logger.Debug("structured generation complete",
		zap.String("provider", i.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens))

	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return nil
}

// extractJSON strips Markdown code fences and any prose around the
// outermost JSON object.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return strings.TrimSpace(s)
}
