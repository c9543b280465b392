package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/tools"
)

type stubClient struct {
	resp *ChatCompletionResponse
	err  error
	last *ChatCompletionRequest
}

func (s *stubClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	s.last = req
	return s.resp, s.err
}

func toolCallResponse(name, args string) *ChatCompletionResponse {
	return &ChatCompletionResponse{Choices: []Choice{{Message: &ChatMessage{
		Role:      "assistant",
		ToolCalls: []ToolCall{{ID: "call_1", Type: "function", Function: ToolCallFunction{Name: name, Arguments: args}}},
	}}}}
}

func newTestResolver(client LLMClient) *Resolver {
	return NewResolver(client, tools.NewCatalog(), "gpt-test", "be helpful")
}

func TestResolveSendsCatalogAndSystemPrompt(t *testing.T) {
	client := &stubClient{resp: &ChatCompletionResponse{Choices: []Choice{{Message: &ChatMessage{Content: "hi"}}}}}
	_, err := newTestResolver(client).Resolve(context.Background(), "hello")
	require.NoError(t, err)

	require.NotNil(t, client.last)
	assert.Equal(t, "gpt-test", client.last.Model)
	assert.Equal(t, "auto", client.last.ToolChoice)
	require.Len(t, client.last.Messages, 2)
	assert.Equal(t, "system", client.last.Messages[0].Role)
	assert.Equal(t, "be helpful", client.last.Messages[0].Content)
	assert.Equal(t, "hello", client.last.Messages[1].Content)
	require.Len(t, client.last.Tools, 5)
	assert.Equal(t, domain.OpListUnpaidInvoices, client.last.Tools[0].Function.Name)
}

func TestResolveTextReplyPassesThrough(t *testing.T) {
	client := &stubClient{resp: &ChatCompletionResponse{Choices: []Choice{{Message: &ChatMessage{Content: "  Hello *there*  "}}}}}
	intent, err := newTestResolver(client).Resolve(context.Background(), "hi")
	require.NoError(t, err)
	assert.False(t, intent.Selected())
	assert.Equal(t, "  Hello *there*  ", intent.Text)
}

func TestResolveToolCallWithArguments(t *testing.T) {
	client := &stubClient{resp: toolCallResponse(domain.OpPayInvoice, `{"invoiceId":"in_123"}`)}
	intent, err := newTestResolver(client).Resolve(context.Background(), "pay in_123")
	require.NoError(t, err)
	assert.True(t, intent.Selected())
	assert.Equal(t, domain.OpPayInvoice, intent.Operation)
	assert.Equal(t, "in_123", intent.StringArg("invoiceId"))
}

func TestResolveDefaultsMalformedArgumentsToEmpty(t *testing.T) {
	for _, args := range []string{"", "not json", "null", "[1,2]"} {
		client := &stubClient{resp: toolCallResponse(domain.OpListUnpaidInvoices, args)}
		intent, err := newTestResolver(client).Resolve(context.Background(), "list")
		require.NoError(t, err, args)
		assert.Equal(t, domain.OpListUnpaidInvoices, intent.Operation)
		assert.NotNil(t, intent.Arguments, args)
		assert.Empty(t, intent.Arguments, args)
	}
}

func TestResolveIgnoresUnregisteredOperation(t *testing.T) {
	client := &stubClient{resp: toolCallResponse("transfer_everything", "{}")}
	intent, err := newTestResolver(client).Resolve(context.Background(), "do it")
	require.NoError(t, err)
	assert.False(t, intent.Selected())
}

func TestResolveNoChoices(t *testing.T) {
	client := &stubClient{resp: &ChatCompletionResponse{}}
	intent, err := newTestResolver(client).Resolve(context.Background(), "hi")
	require.NoError(t, err)
	assert.False(t, intent.Selected())
	assert.Empty(t, intent.Text)
}

func TestResolvePropagatesClientError(t *testing.T) {
	boom := errors.New("boom")
	_, err := newTestResolver(&stubClient{err: boom}).Resolve(context.Background(), "hi")
	assert.ErrorIs(t, err, boom)
}

func TestResolveWithMockClient(t *testing.T) {
	r := newTestResolver(NewMockClient())
	cases := map[string]string{
		"Pay my latest invoice":           domain.OpInitiatePaymentFlow,
		"please pay in_42":                domain.OpPayInvoice,
		"show my unpaid invoices":         domain.OpListUnpaidInvoices,
		"which payment methods do I have": domain.OpListPaymentMethods,
		"add a new card":                  domain.OpSetupPaymentMethod,
	}
	for prompt, want := range cases {
		intent, err := r.Resolve(context.Background(), prompt)
		require.NoError(t, err, prompt)
		assert.Equal(t, want, intent.Operation, prompt)
	}

	intent, err := r.Resolve(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.False(t, intent.Selected())
	assert.NotEmpty(t, intent.Text)
}
