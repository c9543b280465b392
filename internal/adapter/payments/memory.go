package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/spendagent/internal/domain"
)

// MemoryProvider is an in-process payments provider for a single customer.
// It backs MOCK mode and serves as the test double for the dispatcher.
type MemoryProvider struct {
	mu            sync.Mutex
	invoices      []domain.InvoiceSummary // newest first
	methods       []domain.PaymentMethodSummary
	defaultMethod string

	// Failure injection.
	ListErr       error
	PayErr        map[string]error
	SetDefaultErr error
	SetupErr      error

	// Call log for assertions.
	Calls []string
}

// NewMemoryProvider creates an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{PayErr: make(map[string]error)}
}

// NewDemoProvider seeds a few open invoices and no payment method, so the
// setup remediation flow is reachable on the first payment.
func NewDemoProvider() *MemoryProvider {
	p := NewMemoryProvider()
	now := time.Now()
	due := func(days int) *int64 {
		ts := now.AddDate(0, 0, days).Unix()
		return &ts
	}
	p.AddInvoice(domain.InvoiceSummary{ID: "in_demo_hosting", Number: "DEMO-0003", Total: 12000, Currency: "usd", Description: "Cloud hosting - monthly", DueDate: due(7)})
	p.AddInvoice(domain.InvoiceSummary{ID: "in_demo_design", Number: "DEMO-0002", Total: 45050, Currency: "usd", Description: "Design retainer", DueDate: due(14)})
	p.AddInvoice(domain.InvoiceSummary{ID: "in_demo_license", Number: "DEMO-0001", Total: 9900, Currency: "eur", Description: "Software license", DueDate: due(30)})
	return p
}

// AddInvoice prepends an invoice so the newest is listed first. Missing
// status defaults to open.
func (p *MemoryProvider) AddInvoice(inv domain.InvoiceSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if inv.Status == "" {
		inv.Status = domain.InvoiceStatusOpen
	}
	if inv.Description == "" {
		inv.Description = domain.NoDescription
	}
	p.invoices = append([]domain.InvoiceSummary{inv}, p.invoices...)
}

// AddPaymentMethod attaches a payment method; the first one becomes default.
func (p *MemoryProvider) AddPaymentMethod(pm domain.PaymentMethodSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attach(pm)
	if p.defaultMethod == "" {
		p.defaultMethod = pm.ID
	}
}

// DefaultPaymentMethod returns the current default payment method id.
func (p *MemoryProvider) DefaultPaymentMethod() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.defaultMethod
}

// Invoice returns the stored invoice by id.
func (p *MemoryProvider) Invoice(id string) (domain.InvoiceSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, inv := range p.invoices {
		if inv.ID == id {
			return inv, true
		}
	}
	return domain.InvoiceSummary{}, false
}

// ListOpenInvoices returns at most limit open invoices, newest first.
func (p *MemoryProvider) ListOpenInvoices(ctx context.Context, limit int) ([]domain.InvoiceSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "list_invoices")
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	out := make([]domain.InvoiceSummary, 0, limit)
	for _, inv := range p.invoices {
		if len(out) == limit {
			break
		}
		if inv.Status == domain.InvoiceStatusOpen {
			out = append(out, inv)
		}
	}
	return out, nil
}

// PayInvoice charges the default payment method.
func (p *MemoryProvider) PayInvoice(ctx context.Context, invoiceID string) (*domain.PaymentReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "pay:"+invoiceID)
	if err := p.PayErr[invoiceID]; err != nil {
		return nil, err
	}

	idx := -1
	for i := range p.invoices {
		if p.invoices[i].ID == invoiceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, &domain.PaymentError{InvoiceID: invoiceID, Kind: domain.ErrPaymentDeclined, Message: "No such invoice: '" + invoiceID + "'"}
	}
	inv := &p.invoices[idx]
	if inv.Status != domain.InvoiceStatusOpen {
		return nil, &domain.PaymentError{InvoiceID: invoiceID, Kind: domain.ErrPaymentDeclined, Message: fmt.Sprintf("Invoice is %s and cannot be paid", inv.Status)}
	}
	if p.defaultMethod == "" {
		return nil, &domain.PaymentError{
			InvoiceID: invoiceID,
			Kind:      domain.ErrPaymentRequiresMethod,
			Message:   "This customer has no attached payment source or default payment method.",
		}
	}
	inv.Status = domain.InvoiceStatusPaid
	return &domain.PaymentReceipt{InvoiceID: inv.ID, AmountPaid: inv.Total, Currency: inv.Currency}, nil
}

// ListPaymentMethods returns attached payment methods in attach order.
func (p *MemoryProvider) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "list_payment_methods")
	if p.ListErr != nil {
		return nil, p.ListErr
	}
	return append([]domain.PaymentMethodSummary(nil), p.methods...), nil
}

// CreateSetupIntent returns a fresh client secret.
func (p *MemoryProvider) CreateSetupIntent(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "create_setup_intent")
	if p.SetupErr != nil {
		return "", p.SetupErr
	}
	id := "seti_" + uuid.NewString()[:8]
	return id + "_secret_" + uuid.NewString()[:8], nil
}

// SetDefaultPaymentMethod sets the default. Unknown ids are treated as cards
// the client just attached through a setup intent.
func (p *MemoryProvider) SetDefaultPaymentMethod(ctx context.Context, paymentMethodID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, "set_default:"+paymentMethodID)
	if paymentMethodID == "" {
		return errors.New("payment method id is required")
	}
	if !p.hasMethod(paymentMethodID) {
		p.attach(domain.PaymentMethodSummary{
			ID:      paymentMethodID,
			Type:    "card",
			Card:    &domain.CardDetails{Brand: "visa", Last4: "4242", ExpMonth: 12, ExpYear: int64(time.Now().Year() + 3)},
			Created: time.Now().Unix(),
		})
	}
	if p.SetDefaultErr != nil {
		return p.SetDefaultErr
	}
	p.defaultMethod = paymentMethodID
	return nil
}

func (p *MemoryProvider) hasMethod(id string) bool {
	for _, pm := range p.methods {
		if pm.ID == id {
			return true
		}
	}
	return false
}

// attach must be called with p.mu held.
func (p *MemoryProvider) attach(pm domain.PaymentMethodSummary) {
	if pm.Created == 0 {
		pm.Created = time.Now().Unix()
	}
	p.methods = append(p.methods, pm)
}
