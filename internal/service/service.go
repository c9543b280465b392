package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
	store "github.com/xiaot623/spendagent/internal/repository"
	"github.com/xiaot623/spendagent/internal/tools"
	"github.com/xiaot623/spendagent/policy"
)

// invoicePageSize caps every invoice listing.
const invoicePageSize = 5

// Provider is the payments backend the dispatcher drives. Implementations
// classify payment failures into the domain error taxonomy.
type Provider interface {
	ListOpenInvoices(ctx context.Context, limit int) ([]domain.InvoiceSummary, error)
	PayInvoice(ctx context.Context, invoiceID string) (*domain.PaymentReceipt, error)
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethodSummary, error)
	CreateSetupIntent(ctx context.Context) (string, error)
	SetDefaultPaymentMethod(ctx context.Context, paymentMethodID string) error
}

// Resolver turns a free-text prompt into text or one catalog operation.
type Resolver interface {
	Resolve(ctx context.Context, prompt string) (domain.ResolvedIntent, error)
}

type Service struct {
	provider     Provider
	resolver     Resolver
	catalog      *tools.Registry
	policyEngine *policy.Engine
	store        store.Store
	logger       zerolog.Logger
}

func New(provider Provider, resolver Resolver, catalog *tools.Registry, policyEngine *policy.Engine, st store.Store) *Service {
	if st == nil {
		st = store.NopStore{}
	}
	return &Service{
		provider:     provider,
		resolver:     resolver,
		catalog:      catalog,
		policyEngine: policyEngine,
		store:        st,
		logger:       log.WithComponent("dispatcher"),
	}
}

// Handles reports whether the dispatcher has a branch for the operation.
func (s *Service) Handles(name string) bool {
	switch name {
	case domain.OpListUnpaidInvoices,
		domain.OpPayInvoice,
		domain.OpInitiatePaymentFlow,
		domain.OpListPaymentMethods,
		domain.OpSetupPaymentMethod:
		return true
	}
	return false
}

// Operations returns the catalog offered to the resolver.
func (s *Service) Operations() []domain.Operation {
	return s.catalog.Operations()
}
