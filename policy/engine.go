// Package policy evaluates which resolved operations may run directly.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

// Decision is the outcome of evaluating the operation policy.
type Decision string

const (
	DecisionAllow               Decision = "allow"
	DecisionRequireConfirmation Decision = "require_confirmation"
	DecisionBlock               Decision = "block"
)

// Input is what the policy sees for a resolved operation.
type Input struct {
	Operation string         `json:"operation"`
	Arguments map[string]any `json:"arguments"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.operation_policy"),
		rego.Module("operation_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}
	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy from path, or the default policy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy %s: %w", path, err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate returns the decision for input and an optional reason.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, string, error) {
	if input.Arguments == nil {
		input.Arguments = map[string]any{}
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "", nil
	}

	doc, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return DecisionAllow, "", nil
	}
	reason, _ := doc["reason"].(string)
	switch d, _ := doc["decision"].(string); Decision(d) {
	case DecisionBlock:
		return DecisionBlock, reason, nil
	case DecisionRequireConfirmation:
		return DecisionRequireConfirmation, reason, nil
	case DecisionAllow, "":
		return DecisionAllow, reason, nil
	default:
		return "", "", fmt.Errorf("policy returned unknown decision %q", d)
	}
}

// DefaultPolicy lets every registered operation run directly.
const DefaultPolicy = `
package operation_policy

default decision = "allow"
`
