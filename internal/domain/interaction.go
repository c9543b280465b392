package domain

import "time"

// PromptVersion is the version of the interactive payload contract. Clients
// echo it back on follow-up actions.
const PromptVersion = 1

// ActionData carries every fact a follow-up step needs. The server keeps no
// session, so these values round-trip through the client.
type ActionData struct {
	InvoiceID               string `json:"invoiceId,omitempty"`
	PaymentMethodID         string `json:"paymentMethodId,omitempty"`
	SetupIntentClientSecret string `json:"setupIntentClientSecret,omitempty"`
}

// FollowUpAction is submitted by the client when the user acts on a prompt.
type FollowUpAction struct {
	Version int        `json:"version,omitempty"`
	Type    ActionType `json:"type"`
	Data    ActionData `json:"data"`
}

// InteractivePrompt is a structured follow-up the user must act on.
type InteractivePrompt struct {
	Version        int                    `json:"version"`
	Type           PromptType             `json:"type"`
	Invoices       []InvoiceSummary       `json:"invoices,omitempty"`
	Invoice        *InvoiceSummary        `json:"invoice,omitempty"`
	ClientSecret   string                 `json:"client_secret,omitempty"`
	PaymentMethods []PaymentMethodSummary `json:"payment_methods,omitempty"`
	// InvoiceID is the payment a setup or selection flow resumes afterwards.
	InvoiceID string `json:"invoice_id,omitempty"`
}

// NewPrompt returns a prompt stamped with the current payload version.
func NewPrompt(t PromptType) *InteractivePrompt {
	return &InteractivePrompt{Version: PromptVersion, Type: t}
}

// AgentResponse is the uniform result of a dispatched prompt or action.
type AgentResponse struct {
	Content     string             `json:"result"`
	Kind        ContentKind        `json:"kind"`
	Interactive *InteractivePrompt `json:"interactive,omitempty"`
}

// TextResponse builds a plain text response.
func TextResponse(content string) *AgentResponse {
	return &AgentResponse{Content: content, Kind: ContentText}
}

// InteractionSource says which entry point produced a journal entry.
type InteractionSource string

const (
	SourcePrompt InteractionSource = "prompt"
	SourceAction InteractionSource = "action"
)

// Interaction is one journal entry of a dispatched prompt or action.
type Interaction struct {
	InteractionID string            `json:"interaction_id"`
	RequestID     string            `json:"request_id,omitempty"`
	Source        InteractionSource `json:"source"`
	Name          string            `json:"name"`
	InvoiceID     string            `json:"invoice_id,omitempty"`
	Outcome       string            `json:"outcome"`
	Detail        string            `json:"detail,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
