package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const confirmPayments = `
package operation_policy

default decision = "allow"

decision = "require_confirmation" {
	input.operation == "pay_invoice"
}

decision = "block" {
	input.operation == "setup_payment_method"
}

reason = "card changes are disabled" {
	input.operation == "setup_payment_method"
}
`

func TestDefaultPolicyAllows(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, DefaultPolicy)
	require.NoError(t, err)

	decision, _, err := e.Evaluate(ctx, Input{Operation: "pay_invoice", Arguments: map[string]any{"invoiceId": "in_1"}})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
}

func TestCustomPolicyDecisions(t *testing.T) {
	ctx := context.Background()
	e, err := NewEngine(ctx, confirmPayments)
	require.NoError(t, err)

	decision, _, err := e.Evaluate(ctx, Input{Operation: "pay_invoice"})
	require.NoError(t, err)
	assert.Equal(t, DecisionRequireConfirmation, decision)

	decision, reason, err := e.Evaluate(ctx, Input{Operation: "setup_payment_method"})
	require.NoError(t, err)
	assert.Equal(t, DecisionBlock, decision)
	assert.Equal(t, "card changes are disabled", reason)

	decision, _, err = e.Evaluate(ctx, Input{Operation: "list_unpaid_invoices"})
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, decision)
}

func TestNewEngineFromFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.rego")
	require.NoError(t, os.WriteFile(path, []byte(confirmPayments), 0o600))

	e, err := NewEngineFromFile(ctx, path)
	require.NoError(t, err)
	decision, _, err := e.Evaluate(ctx, Input{Operation: "pay_invoice"})
	require.NoError(t, err)
	assert.Equal(t, DecisionRequireConfirmation, decision)

	_, err = NewEngineFromFile(ctx, filepath.Join(t.TempDir(), "missing.rego"))
	assert.Error(t, err)
}

func TestNewEngineRejectsInvalidPolicy(t *testing.T) {
	_, err := NewEngine(context.Background(), "package operation_policy\n decision = ")
	assert.Error(t, err)
}
