package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
)

// ListInteractions returns the newest journal entries.
func (s *Service) ListInteractions(ctx context.Context, limit int) ([]domain.Interaction, error) {
	return s.store.ListInteractions(ctx, limit)
}

// record appends a journal entry. Journal failures never affect the response.
func (s *Service) record(ctx context.Context, source domain.InteractionSource, name, invoiceID string, resp *domain.AgentResponse, err error) {
	entry := &domain.Interaction{
		InteractionID: "ix_" + uuid.NewString(),
		RequestID:     log.RequestIDFromContext(ctx),
		Source:        source,
		Name:          name,
		InvoiceID:     invoiceID,
		Outcome:       outcomeOf(resp, err),
		CreatedAt:     time.Now().UTC(),
	}
	if err != nil {
		entry.Detail = err.Error()
	}
	if werr := s.store.RecordInteraction(context.WithoutCancel(ctx), entry); werr != nil {
		log.FromContext(ctx, s.logger).Warn().Err(werr).Str("name", name).Msg("failed to record interaction")
	}
}

func outcomeOf(resp *domain.AgentResponse, err error) string {
	switch {
	case err != nil:
		return "error"
	case resp == nil:
		return "empty"
	case resp.Interactive != nil:
		return string(resp.Interactive.Type)
	default:
		return string(resp.Kind)
	}
}
