package tools

import "github.com/xiaot623/spendagent/internal/domain"

// NewCatalog returns a registry holding the built-in operations.
func NewCatalog() *Registry {
	r := NewRegistry()
	r.MustRegister(domain.Operation{
		Name:        domain.OpListUnpaidInvoices,
		Description: "List open invoices for the user",
	})
	r.MustRegister(domain.Operation{
		Name:        domain.OpPayInvoice,
		Description: "Pay an invoice by ID",
		Parameters: domain.ParameterSchema{
			Type: "object",
			Properties: map[string]domain.ParameterProperty{
				"invoiceId": {Type: "string", Description: "The ID of the invoice to pay"},
			},
			Required: []string{"invoiceId"},
		},
	})
	r.MustRegister(domain.Operation{
		Name:        domain.OpInitiatePaymentFlow,
		Description: "Start an interactive payment flow where the user can select an invoice to pay",
	})
	r.MustRegister(domain.Operation{
		Name:        domain.OpListPaymentMethods,
		Description: "List all payment methods for the user",
	})
	r.MustRegister(domain.Operation{
		Name:        domain.OpSetupPaymentMethod,
		Description: "Start the process to add a new payment method",
	})
	return r
}
