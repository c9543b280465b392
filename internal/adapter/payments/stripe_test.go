package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"

	"github.com/xiaot623/spendagent/internal/config"
	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/resilience"
)

func newTestStripe(t *testing.T, handler http.HandlerFunc, customerID string) *StripeProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStripeProvider(
		config.Stripe{SecretKey: "sk_test_123", CustomerID: customerID, BaseURL: server.URL, Timeout: time.Second},
		config.Breaker{MaxFailures: 2, Timeout: time.Minute},
	)
}

func TestClassifyPaymentRequiresMethod(t *testing.T) {
	err := classifyPayment("in_1", &stripe.Error{
		Type: stripe.ErrorTypeInvalidRequest,
		Msg:  "This customer has no attached payment source or default payment method. Please consider adding a default payment method.",
	})
	assert.ErrorIs(t, err, domain.ErrPaymentRequiresMethod)

	var pe *domain.PaymentError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "in_1", pe.InvoiceID)
	assert.Contains(t, pe.Detail(), "no attached payment source")
}

func TestClassifyPaymentDeclined(t *testing.T) {
	card := classifyPayment("in_1", &stripe.Error{Type: stripe.ErrorTypeCard, Code: "card_declined", Msg: "Your card was declined."})
	assert.ErrorIs(t, card, domain.ErrPaymentDeclined)

	notOpen := classifyPayment("in_1", &stripe.Error{Type: stripe.ErrorTypeInvalidRequest, Msg: "Invoice is already paid"})
	assert.ErrorIs(t, notOpen, domain.ErrPaymentDeclined)
}

func TestClassifyPaymentProviderError(t *testing.T) {
	api := classifyPayment("in_1", &stripe.Error{Type: stripe.ErrorTypeAPI, Msg: "Something went wrong"})
	assert.ErrorIs(t, api, domain.ErrProvider)

	network := classifyPayment("in_1", errors.New("dial tcp: connection refused"))
	assert.ErrorIs(t, network, domain.ErrProvider)
	assert.NotErrorIs(t, network, domain.ErrPaymentDeclined)
}

func TestStripeRequiresCustomerID(t *testing.T) {
	p := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, "")

	_, err := p.ListOpenInvoices(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = p.ListPaymentMethods(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	_, err = p.CreateSetupIntent(context.Background())
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.ErrorIs(t, p.SetDefaultPaymentMethod(context.Background(), "pm_1"), domain.ErrConfiguration)
}

func TestStripeListOpenInvoices(t *testing.T) {
	p := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		assert.Equal(t, "cus_1", r.URL.Query().Get("customer"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","url":"/v1/invoices","has_more":false,"data":[
			{"id":"in_1","object":"invoice","number":"A-1","total":12000,"currency":"usd","status":"open","due_date":1700000000,"description":"Hosting"},
			{"id":"in_2","object":"invoice","number":"A-2","total":500,"currency":"eur","status":"open","description":null}
		]}`)
	}, "cus_1")

	invoices, err := p.ListOpenInvoices(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "in_1", invoices[0].ID)
	assert.Equal(t, int64(12000), invoices[0].Total)
	assert.Equal(t, domain.InvoiceStatusOpen, invoices[0].Status)
	require.NotNil(t, invoices[0].DueDate)
	assert.Equal(t, int64(1700000000), *invoices[0].DueDate)
	assert.Nil(t, invoices[1].DueDate)
	assert.Equal(t, domain.NoDescription, invoices[1].Description)
}

func TestStripePayInvoiceNoDefaultMethod(t *testing.T) {
	p := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices/in_1/pay", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"type":"invalid_request_error","message":"This customer has no attached payment source or default payment method."}}`)
	}, "cus_1")

	_, err := p.PayInvoice(context.Background(), "in_1")
	assert.ErrorIs(t, err, domain.ErrPaymentRequiresMethod)
}

func TestStripePayInvoiceSuccess(t *testing.T) {
	p := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"in_1","object":"invoice","amount_paid":12000,"currency":"usd","status":"paid"}`)
	}, "cus_1")

	receipt, err := p.PayInvoice(context.Background(), "in_1")
	require.NoError(t, err)
	assert.Equal(t, &domain.PaymentReceipt{InvoiceID: "in_1", AmountPaid: 12000, Currency: "usd"}, receipt)
}

func TestStripeBreakerOpensOnOutages(t *testing.T) {
	calls := 0
	p := newTestStripe(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"type":"api_error","message":"boom"}}`)
	}, "cus_1")

	for i := 0; i < 2; i++ {
		_, err := p.ListPaymentMethods(context.Background())
		assert.ErrorIs(t, err, domain.ErrProvider)
	}
	_, err := p.ListPaymentMethods(context.Background())
	assert.ErrorIs(t, err, domain.ErrProvider)
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestCountsAsOutage(t *testing.T) {
	assert.False(t, countsAsOutage(&domain.PaymentError{Kind: domain.ErrPaymentDeclined}))
	assert.False(t, countsAsOutage(&domain.PaymentError{Kind: domain.ErrPaymentRequiresMethod}))
	assert.True(t, countsAsOutage(&domain.PaymentError{Kind: domain.ErrProvider}))
	assert.True(t, countsAsOutage(errors.New("timeout")))
}
