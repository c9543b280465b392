// Package store persists the interaction journal.
package store

import (
	"context"

	"github.com/xiaot623/spendagent/internal/domain"
)

// Store records dispatched prompts and actions. Nothing in the dispatch path
// reads it back: flow state lives with the client.
type Store interface {
	RecordInteraction(ctx context.Context, interaction *domain.Interaction) error
	ListInteractions(ctx context.Context, limit int) ([]domain.Interaction, error)
	Close() error
}

// NopStore discards interactions. It is used when no database is configured.
type NopStore struct{}

func (NopStore) RecordInteraction(context.Context, *domain.Interaction) error { return nil }

func (NopStore) ListInteractions(context.Context, int) ([]domain.Interaction, error) {
	return []domain.Interaction{}, nil
}

func (NopStore) Close() error { return nil }

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = NopStore{}
)
