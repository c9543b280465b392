// Package domain defines the core domain models for the spend agent.
package domain

// ActionType identifies a follow-up action submitted from an interactive prompt.
type ActionType string

const (
	ActionSelectInvoice           ActionType = "select_invoice"
	ActionConfirmPayment          ActionType = "confirm_payment"
	ActionCancelFlow              ActionType = "cancel_flow"
	ActionSetupPaymentMethod      ActionType = "setup_payment_method"
	ActionSelectPaymentMethod     ActionType = "select_payment_method"
	ActionSetDefaultPaymentMethod ActionType = "set_default_payment_method"
)

// PromptType identifies the kind of interactive prompt surfaced to the user.
type PromptType string

const (
	PromptInvoiceSelection       PromptType = "invoice_selection"
	PromptPaymentConfirmation    PromptType = "payment_confirmation"
	PromptPaymentMethodSetup     PromptType = "payment_method_setup"
	PromptPaymentMethodSelection PromptType = "payment_method_selection"
)

// ContentKind tags what the content of an AgentResponse holds.
type ContentKind string

const (
	ContentText        ContentKind = "text"
	ContentInvoiceList ContentKind = "invoice_list"
)

// InvoiceStatus mirrors the provider's invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "draft"
	InvoiceStatusOpen          InvoiceStatus = "open"
	InvoiceStatusPaid          InvoiceStatus = "paid"
	InvoiceStatusUncollectible InvoiceStatus = "uncollectible"
	InvoiceStatusVoid          InvoiceStatus = "void"
	InvoiceStatusUnknown       InvoiceStatus = "unknown"
)

// ParseInvoiceStatus normalizes a provider status, mapping anything
// unrecognized to InvoiceStatusUnknown.
func ParseInvoiceStatus(s string) InvoiceStatus {
	switch st := InvoiceStatus(s); st {
	case InvoiceStatusDraft, InvoiceStatusOpen, InvoiceStatusPaid, InvoiceStatusUncollectible, InvoiceStatusVoid:
		return st
	}
	return InvoiceStatusUnknown
}

// Operation names exposed to the intent resolver.
const (
	OpListUnpaidInvoices  = "list_unpaid_invoices"
	OpPayInvoice          = "pay_invoice"
	OpInitiatePaymentFlow = "initiate_payment_flow"
	OpListPaymentMethods  = "list_payment_methods"
	OpSetupPaymentMethod  = "setup_payment_method"
)
