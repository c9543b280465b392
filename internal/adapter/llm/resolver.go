package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
)

// Catalog is the set of operations offered to the model.
type Catalog interface {
	Operations() []domain.Operation
	Lookup(name string) (domain.Operation, bool)
}

// Resolver turns a free-text prompt into a ResolvedIntent using function calling.
type Resolver struct {
	client       LLMClient
	catalog      Catalog
	model        string
	systemPrompt string
	logger       zerolog.Logger
}

// NewResolver creates a resolver offering the catalog's operations to the model.
func NewResolver(client LLMClient, catalog Catalog, model, systemPrompt string) *Resolver {
	return &Resolver{
		client:       client,
		catalog:      catalog,
		model:        model,
		systemPrompt: systemPrompt,
		logger:       log.WithComponent("resolver"),
	}
}

// Resolve asks the model to either answer in text or select one operation.
func (r *Resolver) Resolve(ctx context.Context, prompt string) (domain.ResolvedIntent, error) {
	req := &ChatCompletionRequest{
		Model: r.model,
		Messages: []ChatMessage{
			{Role: "system", Content: r.systemPrompt},
			{Role: "user", Content: prompt},
		},
		Tools:      r.tools(),
		ToolChoice: "auto",
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.ResolvedIntent{}, fmt.Errorf("resolve intent: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return domain.ResolvedIntent{}, nil
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return domain.ResolvedIntent{Text: msg.Content}, nil
	}

	call := msg.ToolCalls[0].Function
	if _, ok := r.catalog.Lookup(call.Name); !ok {
		log.FromContext(ctx, r.logger).Warn().Str("operation", call.Name).Msg("model selected an unregistered operation")
		return domain.ResolvedIntent{Text: msg.Content}, nil
	}

	return domain.ResolvedIntent{
		Text:      msg.Content,
		Operation: call.Name,
		Arguments: r.parseArguments(ctx, call),
	}, nil
}

// parseArguments falls back to an empty object: a malformed argument string
// should degrade the reply, not fail the request.
func (r *Resolver) parseArguments(ctx context.Context, call ToolCallFunction) map[string]any {
	args := map[string]any{}
	raw := strings.TrimSpace(call.Arguments)
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		log.FromContext(ctx, r.logger).Warn().Err(err).Str("operation", call.Name).Msg("discarding unparseable tool arguments")
		return map[string]any{}
	}
	return args
}

func (r *Resolver) tools() []Tool {
	ops := r.catalog.Operations()
	out := make([]Tool, 0, len(ops))
	for _, op := range ops {
		out = append(out, Tool{
			Type: "function",
			Function: ToolFunction{
				Name:        op.Name,
				Description: op.Description,
				Parameters:  op.Parameters,
			},
		})
	}
	return out
}
