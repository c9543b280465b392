package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
	"github.com/xiaot623/spendagent/internal/metrics"
	"github.com/xiaot623/spendagent/internal/telemetry"
)

const (
	msgConfirmPayment   = "Please confirm your payment:"
	msgCancelled        = "Payment cancelled. Let me know if there's anything else I can help with."
	msgMethodAdded      = "🎉 Your payment method was added and set as your default. You can now retry your payment."
	msgMethodSavedOnly  = "Your payment method was saved, but we couldn't make it your default. Choose it as default from your payment methods before retrying your payment."
	msgChooseDefault    = "Choose the payment method to use as your default:"
	msgNoMethodsToPick  = "You don't have any payment methods yet. Add one to continue."
	msgDefaultUpdated   = "Your default payment method has been updated."
	msgResumePaymentFmt = "%s Let's finish paying invoice %s."
)

// HandleAction resumes a flow using only the data carried by the action.
func (s *Service) HandleAction(ctx context.Context, action domain.FollowUpAction) (*domain.AgentResponse, error) {
	if action.Type == "" {
		return nil, domain.InvalidInputf("action type is required")
	}
	if action.Version != 0 && action.Version != domain.PromptVersion {
		return nil, domain.InvalidInputf("unsupported action version %d", action.Version)
	}

	name := actionLabel(action.Type)
	ctx, span := telemetry.StartDispatchSpan(ctx, string(domain.SourceAction), name)
	resp, err := s.runAction(ctx, action)
	telemetry.End(span, err)
	s.record(ctx, domain.SourceAction, name, action.Data.InvoiceID, resp, err)
	metrics.RecordAction(name, outcomeOf(resp, err))
	return resp, err
}

// actionLabel bounds client-supplied action types to the known set so that
// span names and metric labels stay low-cardinality.
func actionLabel(t domain.ActionType) string {
	switch t {
	case domain.ActionSelectInvoice,
		domain.ActionConfirmPayment,
		domain.ActionCancelFlow,
		domain.ActionSetupPaymentMethod,
		domain.ActionSelectPaymentMethod,
		domain.ActionSetDefaultPaymentMethod:
		return string(t)
	}
	return "unknown"
}

func (s *Service) runAction(ctx context.Context, action domain.FollowUpAction) (*domain.AgentResponse, error) {
	data := action.Data
	switch action.Type {
	case domain.ActionSelectInvoice:
		if data.InvoiceID == "" {
			return nil, domain.InvalidInputf("invoiceId is required")
		}
		return s.confirmationPrompt(ctx, data.InvoiceID)

	case domain.ActionConfirmPayment:
		if data.InvoiceID == "" {
			return nil, domain.InvalidInputf("invoiceId is required")
		}
		return s.pay(ctx, data.InvoiceID)

	case domain.ActionSetupPaymentMethod:
		if data.PaymentMethodID == "" {
			return nil, domain.InvalidInputf("paymentMethodId is required")
		}
		return s.completeSetup(ctx, data)

	case domain.ActionSetDefaultPaymentMethod:
		return s.choosePaymentMethod(ctx, data.InvoiceID)

	case domain.ActionSelectPaymentMethod:
		if data.PaymentMethodID == "" {
			return nil, domain.InvalidInputf("paymentMethodId is required")
		}
		return s.selectPaymentMethod(ctx, data)

	case domain.ActionCancelFlow:
		return domain.TextResponse(msgCancelled), nil

	default:
		return nil, domain.InvalidInputf("unknown action type %q", action.Type)
	}
}

// confirmationPrompt re-fetches the open invoices and asks the user to
// confirm paying invoiceID.
func (s *Service) confirmationPrompt(ctx context.Context, invoiceID string) (*domain.AgentResponse, error) {
	invoices, err := s.provider.ListOpenInvoices(ctx, invoicePageSize)
	if err != nil {
		return nil, fmt.Errorf("list unpaid invoices: %w", err)
	}
	for i := range invoices {
		if invoices[i].ID != invoiceID {
			continue
		}
		prompt := domain.NewPrompt(domain.PromptPaymentConfirmation)
		inv := invoices[i]
		prompt.Invoice = &inv
		resp := domain.TextResponse(msgConfirmPayment)
		resp.Interactive = prompt
		return resp, nil
	}
	return nil, domain.NotFoundf("invoice %s is not open", invoiceID)
}

// completeSetup makes a freshly saved payment method the default. The card
// already exists provider-side, so a failed default assignment degrades to a
// partial success.
func (s *Service) completeSetup(ctx context.Context, data domain.ActionData) (*domain.AgentResponse, error) {
	if err := s.provider.SetDefaultPaymentMethod(ctx, data.PaymentMethodID); err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return nil, err
		}
		log.FromContext(ctx, s.logger).Warn().Err(err).
			Str("payment_method_id", data.PaymentMethodID).
			Msg("payment method saved but not set as default")
		return domain.TextResponse(msgMethodSavedOnly), nil
	}
	if data.InvoiceID == "" {
		return domain.TextResponse(msgMethodAdded), nil
	}
	return s.resumePayment(ctx, msgMethodAdded, data.InvoiceID), nil
}

func (s *Service) choosePaymentMethod(ctx context.Context, invoiceID string) (*domain.AgentResponse, error) {
	methods, err := s.provider.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	if len(methods) == 0 {
		return s.setupPrompt(ctx, msgNoMethodsToPick, invoiceID)
	}
	prompt := domain.NewPrompt(domain.PromptPaymentMethodSelection)
	prompt.PaymentMethods = methods
	prompt.InvoiceID = invoiceID
	resp := domain.TextResponse(msgChooseDefault)
	resp.Interactive = prompt
	return resp, nil
}

func (s *Service) selectPaymentMethod(ctx context.Context, data domain.ActionData) (*domain.AgentResponse, error) {
	methods, err := s.provider.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	found := false
	for _, pm := range methods {
		if pm.ID == data.PaymentMethodID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.NotFoundf("payment method %s not found", data.PaymentMethodID)
	}
	if err := s.provider.SetDefaultPaymentMethod(ctx, data.PaymentMethodID); err != nil {
		return nil, fmt.Errorf("set default payment method: %w", err)
	}
	if data.InvoiceID == "" {
		return domain.TextResponse(msgDefaultUpdated), nil
	}
	return s.resumePayment(ctx, msgDefaultUpdated, data.InvoiceID), nil
}

// resumePayment attaches a confirmation prompt for the interrupted payment.
// The preceding step already succeeded, so a failed re-fetch only drops the
// prompt.
func (s *Service) resumePayment(ctx context.Context, done, invoiceID string) *domain.AgentResponse {
	resp, err := s.confirmationPrompt(ctx, invoiceID)
	if err != nil {
		log.FromContext(ctx, s.logger).Warn().Err(err).Str("invoice_id", invoiceID).Msg("cannot resume payment")
		return domain.TextResponse(done)
	}
	resp.Content = fmt.Sprintf(msgResumePaymentFmt, done, invoiceID)
	return resp
}
