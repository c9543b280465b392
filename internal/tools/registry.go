// Package tools holds the catalog of operations the intent resolver may select.
package tools

import (
	"fmt"
	"sync"

	"github.com/xiaot623/spendagent/internal/domain"
)

// Registry stores operations in registration order, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	order []string
	ops   map[string]domain.Operation
}

// NewRegistry creates an empty operation registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string]domain.Operation),
	}
}

// Register adds an operation. Names must be unique.
func (r *Registry) Register(op domain.Operation) error {
	if op.Name == "" {
		return fmt.Errorf("operation name is required")
	}
	if op.Parameters.Type == "" {
		op.Parameters = domain.EmptyParameters()
	}
	if op.Parameters.Properties == nil {
		op.Parameters.Properties = map[string]domain.ParameterProperty{}
	}
	for _, req := range op.Parameters.Required {
		if _, ok := op.Parameters.Properties[req]; !ok {
			return fmt.Errorf("operation %s: required parameter %s is not declared", op.Name, req)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("operation already registered: %s", op.Name)
	}
	r.ops[op.Name] = op
	r.order = append(r.order, op.Name)
	return nil
}

// MustRegister adds an operation or panics.
func (r *Registry) MustRegister(op domain.Operation) {
	if err := r.Register(op); err != nil {
		panic(err)
	}
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (domain.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Operations returns the catalog in registration order.
func (r *Registry) Operations() []domain.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Operation, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name])
	}
	return out
}

// Names returns the registered operation names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
