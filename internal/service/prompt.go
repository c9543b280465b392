package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
	"github.com/xiaot623/spendagent/internal/metrics"
	"github.com/xiaot623/spendagent/internal/telemetry"
	"github.com/xiaot623/spendagent/policy"
)

const (
	msgNoResponse      = "No response from AI."
	msgNoMatchingTool  = "No matching tool found."
	msgGenericFailure  = "Sorry, I encountered an error processing your request."
	msgInvoiceRequired = "Error: Invoice ID is required for payment."
	msgNoUnpaid        = "You have no unpaid invoices right now."
	msgSelectInvoice   = "Please select an invoice to pay:"
	msgNoMethods       = "You don't have any payment methods yet. Would you like to add one?"
	msgSetupIntro      = "Let's add a new payment method. Enter your card details below to save it securely."
)

// HandlePrompt interprets a free-text prompt and runs the selected operation.
// Failures degrade to a chat message; only invalid input and configuration
// errors are returned.
func (s *Service) HandlePrompt(ctx context.Context, prompt string) (*domain.AgentResponse, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, domain.InvalidInputf("prompt is required")
	}
	logger := log.FromContext(ctx, s.logger)

	rctx, span := telemetry.StartResolveSpan(ctx)
	intent, err := s.resolver.Resolve(rctx, prompt)
	telemetry.End(span, err)
	if err != nil {
		metrics.RecordResolverCall("error")
		if errors.Is(err, domain.ErrConfiguration) {
			return nil, err
		}
		logger.Error().Err(err).Msg("intent resolution failed")
		return domain.TextResponse(msgGenericFailure), nil
	}

	if !intent.Selected() {
		metrics.RecordResolverCall("text")
		if intent.Text == "" {
			return domain.TextResponse(msgNoResponse), nil
		}
		return domain.TextResponse(intent.Text), nil
	}
	metrics.RecordResolverCall("operation")

	ctx, span = telemetry.StartDispatchSpan(ctx, string(domain.SourcePrompt), intent.Operation)
	resp, err := s.runOperation(ctx, intent)
	telemetry.End(span, err)
	s.record(ctx, domain.SourcePrompt, intent.Operation, intent.StringArg("invoiceId"), resp, err)
	metrics.RecordOperation(intent.Operation, outcomeOf(resp, err))

	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return nil, err
		}
		logger.Error().Err(err).Str("operation", intent.Operation).Msg("operation failed")
		return domain.TextResponse(msgGenericFailure), nil
	}
	return resp, nil
}

func (s *Service) runOperation(ctx context.Context, intent domain.ResolvedIntent) (*domain.AgentResponse, error) {
	decision, reason, err := s.policyEngine.Evaluate(ctx, policy.Input{
		Operation: intent.Operation,
		Arguments: intent.Arguments,
	})
	if err != nil {
		return nil, err
	}
	switch decision {
	case policy.DecisionBlock:
		if reason == "" {
			reason = "this operation is not allowed"
		}
		return domain.TextResponse("Sorry, I can't do that: " + reason), nil
	case policy.DecisionRequireConfirmation:
		if intent.Operation == domain.OpPayInvoice && intent.StringArg("invoiceId") != "" {
			return s.confirmInPrompt(ctx, intent.StringArg("invoiceId"))
		}
	}

	switch intent.Operation {
	case domain.OpListUnpaidInvoices:
		return s.listUnpaidInvoices(ctx)
	case domain.OpPayInvoice:
		invoiceID := intent.StringArg("invoiceId")
		if invoiceID == "" {
			return domain.TextResponse(msgInvoiceRequired), nil
		}
		resp, err := s.pay(ctx, invoiceID)
		if err != nil && !errors.Is(err, domain.ErrConfiguration) {
			log.FromContext(ctx, s.logger).Warn().Err(err).Str("invoice_id", invoiceID).Msg("payment failed")
			return domain.TextResponse(paymentFailureText(invoiceID, err)), nil
		}
		return resp, err
	case domain.OpInitiatePaymentFlow:
		return s.initiatePaymentFlow(ctx)
	case domain.OpListPaymentMethods:
		return s.listPaymentMethods(ctx)
	case domain.OpSetupPaymentMethod:
		return s.setupPrompt(ctx, msgSetupIntro, "")
	default:
		return domain.TextResponse(msgNoMatchingTool), nil
	}
}

func (s *Service) listUnpaidInvoices(ctx context.Context) (*domain.AgentResponse, error) {
	invoices, err := s.provider.ListOpenInvoices(ctx, invoicePageSize)
	if err != nil {
		return nil, fmt.Errorf("list unpaid invoices: %w", err)
	}
	if invoices == nil {
		invoices = []domain.InvoiceSummary{}
	}
	body, err := json.Marshal(invoices)
	if err != nil {
		return nil, fmt.Errorf("encode invoices: %w", err)
	}
	return &domain.AgentResponse{Content: string(body), Kind: domain.ContentInvoiceList}, nil
}

func (s *Service) initiatePaymentFlow(ctx context.Context) (*domain.AgentResponse, error) {
	invoices, err := s.provider.ListOpenInvoices(ctx, invoicePageSize)
	if err != nil {
		return nil, fmt.Errorf("list unpaid invoices: %w", err)
	}
	if len(invoices) == 0 {
		return domain.TextResponse(msgNoUnpaid), nil
	}
	prompt := domain.NewPrompt(domain.PromptInvoiceSelection)
	prompt.Invoices = invoices
	resp := domain.TextResponse(msgSelectInvoice)
	resp.Interactive = prompt
	return resp, nil
}

func (s *Service) listPaymentMethods(ctx context.Context) (*domain.AgentResponse, error) {
	methods, err := s.provider.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	if len(methods) == 0 {
		return domain.TextResponse(msgNoMethods), nil
	}
	lines := make([]string, 0, len(methods))
	for _, pm := range methods {
		lines = append(lines, formatPaymentMethod(pm))
	}
	return domain.TextResponse(strings.Join(lines, "\n")), nil
}

// confirmInPrompt answers a pay request with a confirmation step instead of
// paying straight away.
func (s *Service) confirmInPrompt(ctx context.Context, invoiceID string) (*domain.AgentResponse, error) {
	resp, err := s.confirmationPrompt(ctx, invoiceID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.TextResponse(fmt.Sprintf("Invoice %s is not open for payment.", invoiceID)), nil
	}
	return resp, err
}

// formatPaymentMethod renders e.g. "• VISA •••• 4242 (expires 12/2030)".
func formatPaymentMethod(pm domain.PaymentMethodSummary) string {
	if pm.Card == nil {
		return "• " + strings.ToUpper(pm.Type)
	}
	return fmt.Sprintf("• %s •••• %s (expires %d/%d)",
		strings.ToUpper(pm.Card.Brand), pm.Card.Last4, pm.Card.ExpMonth, pm.Card.ExpYear)
}
