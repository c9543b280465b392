package domain

// InvoiceSummary is a read-only projection of a provider invoice.
type InvoiceSummary struct {
	ID               string        `json:"id"`
	Number           string        `json:"number"`
	Total            int64         `json:"total"` // minor units
	Currency         string        `json:"currency"`
	Status           InvoiceStatus `json:"status"`
	DueDate          *int64        `json:"due_date"`
	Description      string        `json:"description"`
	CustomerEmail    string        `json:"customer_email,omitempty"`
	HostedInvoiceURL string        `json:"hosted_invoice_url,omitempty"`
	AccountName      string        `json:"account_name,omitempty"`
}

// NoDescription is shown for invoices without a description.
const NoDescription = "(No description)"

// CardDetails holds the displayable part of a card payment method.
type CardDetails struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// PaymentMethodSummary is a read-only projection of a provider payment method.
type PaymentMethodSummary struct {
	ID      string       `json:"id"`
	Type    string       `json:"type"`
	Card    *CardDetails `json:"card,omitempty"`
	Created int64        `json:"created"`
}

// PaymentReceipt is the outcome of a successful invoice payment.
type PaymentReceipt struct {
	InvoiceID  string `json:"invoice_id"`
	AmountPaid int64  `json:"amount_paid"`
	Currency   string `json:"currency"`
}
