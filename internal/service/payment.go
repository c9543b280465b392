package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
	"github.com/xiaot623/spendagent/internal/metrics"
)

const msgNeedsPaymentMethod = "You don't have a default payment method yet. Add a card below and we'll continue with your payment."

// pay runs the payment sub-protocol shared by pay_invoice and
// confirm_payment. A missing payment method pivots into the setup flow and a
// decline is reported as text; provider failures are returned.
func (s *Service) pay(ctx context.Context, invoiceID string) (*domain.AgentResponse, error) {
	receipt, err := s.provider.PayInvoice(ctx, invoiceID)
	if err == nil {
		metrics.RecordPaymentAttempt("paid")
		return domain.TextResponse(fmt.Sprintf("Invoice %s paid successfully for %s",
			receipt.InvoiceID, domain.FormatAmount(receipt.AmountPaid, receipt.Currency))), nil
	}

	logger := log.FromContext(ctx, s.logger)
	switch {
	case errors.Is(err, domain.ErrPaymentRequiresMethod):
		metrics.RecordPaymentAttempt("requires_method")
		logger.Info().Str("invoice_id", invoiceID).Msg("payment needs a payment method, starting setup")
		metrics.RecordRemediation()
		return s.setupPrompt(ctx, msgNeedsPaymentMethod, invoiceID)

	case errors.Is(err, domain.ErrPaymentDeclined):
		metrics.RecordPaymentAttempt("declined")
		return domain.TextResponse(paymentFailureText(invoiceID, err)), nil

	default:
		metrics.RecordPaymentAttempt("error")
		return nil, fmt.Errorf("pay invoice %s: %w", invoiceID, err)
	}
}

// paymentFailureText renders a payment failure for the user, preferring the
// provider's own message when one was returned.
func paymentFailureText(invoiceID string, err error) string {
	detail := err.Error()
	var pe *domain.PaymentError
	if errors.As(err, &pe) {
		detail = pe.Detail()
	}
	return fmt.Sprintf("Error paying invoice %s: %s", invoiceID, detail)
}

// setupPrompt creates a setup intent and returns the card collection prompt.
// invoiceID, when set, is the payment to resume once the card is saved.
func (s *Service) setupPrompt(ctx context.Context, text, invoiceID string) (*domain.AgentResponse, error) {
	secret, err := s.provider.CreateSetupIntent(ctx)
	if err != nil {
		return nil, fmt.Errorf("create setup intent: %w", err)
	}
	prompt := domain.NewPrompt(domain.PromptPaymentMethodSetup)
	prompt.ClientSecret = secret
	prompt.InvoiceID = invoiceID
	resp := domain.TextResponse(text)
	resp.Interactive = prompt
	return resp, nil
}
