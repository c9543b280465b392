// Package payments adapts payments providers to the dispatcher's needs.
package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/setupintent"

	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/resilience"
	"github.com/xiaot623/spendagent/internal/telemetry"
)

// StripeProvider implements the payments provider on the Stripe API for a
// single configured customer.
type StripeProvider struct {
	customerID string
	invoices   invoice.Client
	methods    paymentmethod.Client
	intents    setupintent.Client
	customers  customer.Client
	breaker    *resilience.Breaker
}

// NewStripeProvider builds a provider with its own backend; no package-level
// Stripe key is set.
func NewStripeProvider(cfg config.Stripe, breaker config.Breaker) *StripeProvider {
	bc := &stripe.BackendConfig{
		HTTPClient:        telemetry.HTTPClient(&http.Client{Timeout: cfg.Timeout}),
		MaxNetworkRetries: stripe.Int64(0),
	}
	if cfg.BaseURL != "" {
		bc.URL = stripe.String(cfg.BaseURL)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, bc)

	return &StripeProvider{
		customerID: cfg.CustomerID,
		invoices:   invoice.Client{B: backend, Key: cfg.SecretKey},
		methods:    paymentmethod.Client{B: backend, Key: cfg.SecretKey},
		intents:    setupintent.Client{B: backend, Key: cfg.SecretKey},
		customers:  customer.Client{B: backend, Key: cfg.SecretKey},
		breaker:    resilience.NewBreaker(breaker.MaxFailures, breaker.Timeout, countsAsOutage),
	}
}

// ListOpenInvoices returns at most limit open invoices, newest first.
func (p *StripeProvider) ListOpenInvoices(ctx context.Context, limit int) ([]domain.InvoiceSummary, error) {
	if err := p.requireCustomer(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartProviderSpan(ctx, "list_invoices")
	var out []domain.InvoiceSummary
	err := p.breaker.Execute(func() error {
		params := &stripe.InvoiceListParams{
			Customer: stripe.String(p.customerID),
			Status:   stripe.String(string(stripe.InvoiceStatusOpen)),
		}
		params.Context = ctx
		params.Limit = stripe.Int64(int64(limit))

		it := p.invoices.List(params)
		for len(out) < limit && it.Next() {
			out = append(out, invoiceSummary(it.Invoice()))
		}
		if err := it.Err(); err != nil {
			return classify("list invoices", err)
		}
		return nil
	})
	telemetry.End(span, err)
	if err != nil {
		return nil, wrapOpen("list invoices", err)
	}
	return out, nil
}

// PayInvoice pays an invoice with the customer's default payment method.
func (p *StripeProvider) PayInvoice(ctx context.Context, invoiceID string) (*domain.PaymentReceipt, error) {
	ctx, span := telemetry.StartProviderSpan(ctx, "pay_invoice")
	var receipt *domain.PaymentReceipt
	err := p.breaker.Execute(func() error {
		params := &stripe.InvoicePayParams{}
		params.Context = ctx
		paid, err := p.invoices.Pay(invoiceID, params)
		if err != nil {
			return classifyPayment(invoiceID, err)
		}
		receipt = &domain.PaymentReceipt{
			InvoiceID:  paid.ID,
			AmountPaid: paid.AmountPaid,
			Currency:   string(paid.Currency),
		}
		return nil
	})
	telemetry.End(span, err)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &domain.PaymentError{InvoiceID: invoiceID, Kind: domain.ErrProvider, Err: err}
	}
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListPaymentMethods returns the customer's card payment methods.
func (p *StripeProvider) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodSummary, error) {
	if err := p.requireCustomer(); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartProviderSpan(ctx, "list_payment_methods")
	var out []domain.PaymentMethodSummary
	err := p.breaker.Execute(func() error {
		params := &stripe.PaymentMethodListParams{
			Customer: stripe.String(p.customerID),
			Type:     stripe.String(string(stripe.PaymentMethodTypeCard)),
		}
		params.Context = ctx

		it := p.methods.List(params)
		for it.Next() {
			out = append(out, paymentMethodSummary(it.PaymentMethod()))
		}
		if err := it.Err(); err != nil {
			return classify("list payment methods", err)
		}
		return nil
	})
	telemetry.End(span, err)
	if err != nil {
		return nil, wrapOpen("list payment methods", err)
	}
	return out, nil
}

// CreateSetupIntent creates an off-session card setup intent and returns its
// client secret.
func (p *StripeProvider) CreateSetupIntent(ctx context.Context) (string, error) {
	if err := p.requireCustomer(); err != nil {
		return "", err
	}
	ctx, span := telemetry.StartProviderSpan(ctx, "create_setup_intent")
	var secret string
	err := p.breaker.Execute(func() error {
		params := &stripe.SetupIntentParams{
			Customer:           stripe.String(p.customerID),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
			Usage:              stripe.String("off_session"),
		}
		params.Context = ctx
		si, err := p.intents.New(params)
		if err != nil {
			return classify("create setup intent", err)
		}
		secret = si.ClientSecret
		return nil
	})
	telemetry.End(span, err)
	if err != nil {
		return "", wrapOpen("create setup intent", err)
	}
	return secret, nil
}

// SetDefaultPaymentMethod makes paymentMethodID the customer's default for invoices.
func (p *StripeProvider) SetDefaultPaymentMethod(ctx context.Context, paymentMethodID string) error {
	if err := p.requireCustomer(); err != nil {
		return err
	}
	ctx, span := telemetry.StartProviderSpan(ctx, "set_default_payment_method")
	err := p.breaker.Execute(func() error {
		params := &stripe.CustomerParams{
			InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
				DefaultPaymentMethod: stripe.String(paymentMethodID),
			},
		}
		params.Context = ctx
		if _, err := p.customers.Update(p.customerID, params); err != nil {
			return classify("set default payment method", err)
		}
		return nil
	})
	telemetry.End(span, err)
	return wrapOpen("set default payment method", err)
}

func (p *StripeProvider) requireCustomer() error {
	if p.customerID == "" {
		return fmt.Errorf("%w: stripe customer id is not set (STRIPE_CUSTOMER_ID)", domain.ErrConfiguration)
	}
	return nil
}

func invoiceSummary(inv *stripe.Invoice) domain.InvoiceSummary {
	s := domain.InvoiceSummary{
		ID:               inv.ID,
		Number:           inv.Number,
		Total:            inv.Total,
		Currency:         string(inv.Currency),
		Status:           domain.ParseInvoiceStatus(string(inv.Status)),
		Description:      inv.Description,
		CustomerEmail:    inv.CustomerEmail,
		HostedInvoiceURL: inv.HostedInvoiceURL,
		AccountName:      inv.AccountName,
	}
	if s.Description == "" {
		s.Description = domain.NoDescription
	}
	if inv.DueDate != 0 {
		due := inv.DueDate
		s.DueDate = &due
	}
	return s
}

func paymentMethodSummary(pm *stripe.PaymentMethod) domain.PaymentMethodSummary {
	s := domain.PaymentMethodSummary{
		ID:      pm.ID,
		Type:    string(pm.Type),
		Created: pm.Created,
	}
	if pm.Card != nil {
		s.Card = &domain.CardDetails{
			Brand:    string(pm.Card.Brand),
			Last4:    pm.Card.Last4,
			ExpMonth: pm.Card.ExpMonth,
			ExpYear:  pm.Card.ExpYear,
		}
	}
	return s
}

// noPaymentMethodMarkers are the phrases Stripe uses when an invoice cannot
// be charged because the customer has nothing to charge.
var noPaymentMethodMarkers = []string{
	"no attached payment source",
	"no default payment method",
	"default payment method",
}

func requiresPaymentMethod(serr *stripe.Error) bool {
	msg := strings.ToLower(serr.Msg)
	for _, marker := range noPaymentMethodMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// classifyPayment turns a failed pay call into a typed PaymentError so the
// dispatcher never inspects provider wording.
func classifyPayment(invoiceID string, err error) error {
	pe := &domain.PaymentError{InvoiceID: invoiceID, Kind: domain.ErrProvider, Err: err}
	var serr *stripe.Error
	if !errors.As(err, &serr) {
		return pe
	}
	pe.Message = serr.Msg
	switch {
	case serr.Type == stripe.ErrorTypeInvalidRequest && requiresPaymentMethod(serr):
		pe.Kind = domain.ErrPaymentRequiresMethod
	case serr.Type == stripe.ErrorTypeCard, serr.Type == stripe.ErrorTypeInvalidRequest:
		pe.Kind = domain.ErrPaymentDeclined
	}
	return pe
}

// classify maps non-payment call failures onto the domain taxonomy.
func classify(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) && serr.Type == stripe.ErrorTypeInvalidRequest && serr.Code == "resource_missing" {
		return fmt.Errorf("%w: %s: %s", domain.ErrNotFound, op, serr.Msg)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrProvider, op, err)
}

func wrapOpen(op string, err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %s: %w", domain.ErrProvider, op, err)
	}
	return err
}

// countsAsOutage keeps business outcomes from tripping the breaker.
func countsAsOutage(err error) bool {
	for _, benign := range []error{
		domain.ErrPaymentRequiresMethod,
		domain.ErrPaymentDeclined,
		domain.ErrNotFound,
		domain.ErrInvalidInput,
		domain.ErrConfiguration,
	} {
		if errors.Is(err, benign) {
			return false
		}
	}
	return true
}
