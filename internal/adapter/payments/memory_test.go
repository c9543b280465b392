package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/spendagent/internal/domain"
)

func TestMemoryListOpenInvoicesNewestFirstAndCapped(t *testing.T) {
	p := NewMemoryProvider()
	for _, id := range []string{"in_1", "in_2", "in_3", "in_4", "in_5", "in_6"} {
		p.AddInvoice(domain.InvoiceSummary{ID: id, Total: 100, Currency: "usd"})
	}
	p.AddInvoice(domain.InvoiceSummary{ID: "in_paid", Status: domain.InvoiceStatusPaid})

	got, err := p.ListOpenInvoices(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "in_6", got[0].ID)
	assert.Equal(t, "in_2", got[4].ID)
}

func TestMemoryPayInvoiceRequiresMethod(t *testing.T) {
	p := NewMemoryProvider()
	p.AddInvoice(domain.InvoiceSummary{ID: "in_1", Total: 12000, Currency: "usd"})

	_, err := p.PayInvoice(context.Background(), "in_1")
	assert.ErrorIs(t, err, domain.ErrPaymentRequiresMethod)

	p.AddPaymentMethod(domain.PaymentMethodSummary{ID: "pm_1", Type: "card"})
	receipt, err := p.PayInvoice(context.Background(), "in_1")
	require.NoError(t, err)
	assert.Equal(t, int64(12000), receipt.AmountPaid)

	_, err = p.PayInvoice(context.Background(), "in_1")
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)

	_, err = p.PayInvoice(context.Background(), "in_missing")
	assert.ErrorIs(t, err, domain.ErrPaymentDeclined)
}

func TestMemorySetDefaultAttachesUnknownMethod(t *testing.T) {
	p := NewMemoryProvider()
	require.NoError(t, p.SetDefaultPaymentMethod(context.Background(), "pm_new"))
	assert.Equal(t, "pm_new", p.DefaultPaymentMethod())

	methods, err := p.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "4242", methods[0].Card.Last4)
}

func TestMemorySetDefaultFailureStillSavesMethod(t *testing.T) {
	p := NewMemoryProvider()
	p.SetDefaultErr = errors.New("customer update failed")

	assert.Error(t, p.SetDefaultPaymentMethod(context.Background(), "pm_new"))
	assert.Empty(t, p.DefaultPaymentMethod())
	methods, _ := p.ListPaymentMethods(context.Background())
	assert.Len(t, methods, 1)
}

func TestDemoProviderHasOpenInvoicesAndNoMethods(t *testing.T) {
	p := NewDemoProvider()
	invoices, err := p.ListOpenInvoices(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, invoices, 3)
	methods, err := p.ListPaymentMethods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, methods)

	secret, err := p.CreateSetupIntent(context.Background())
	require.NoError(t, err)
	assert.Contains(t, secret, "_secret_")
}
