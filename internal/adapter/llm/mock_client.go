package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xiaot623/spendagent/internal/domain"
)

// MockClient picks a tool from keywords in the last user message. It lets
// the agent run end to end without an LLM.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

var invoiceIDPattern = regexp.MustCompile(`\bin_[A-Za-z0-9]+\b`)

// CreateChatCompletion returns a tool call or a canned text reply.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	prompt := lastUserMessage(req.Messages)
	msg := &ChatMessage{Role: "assistant"}

	if name, args := m.pickTool(prompt); name != "" && offers(req.Tools, name) {
		msg.ToolCalls = []ToolCall{{
			ID:   fmt.Sprintf("call_mock_%d", time.Now().UnixNano()),
			Type: "function",
			Function: ToolCallFunction{
				Name:      name,
				Arguments: args,
			},
		}}
	} else {
		msg.Content = fmt.Sprintf("[MOCK] I can list or pay your invoices and manage payment methods. You said: %q", truncate(prompt, 100))
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: "stop"}},
	}, nil
}

func (m *MockClient) pickTool(prompt string) (string, string) {
	p := strings.ToLower(prompt)
	methods := strings.Contains(p, "card") || strings.Contains(p, "payment method")
	switch {
	case methods && strings.Contains(p, "add"):
		return domain.OpSetupPaymentMethod, "{}"
	case methods:
		return domain.OpListPaymentMethods, "{}"
	case strings.Contains(p, "pay"):
		if id := invoiceIDPattern.FindString(prompt); id != "" {
			args, _ := json.Marshal(map[string]string{"invoiceId": id})
			return domain.OpPayInvoice, string(args)
		}
		return domain.OpInitiatePaymentFlow, "{}"
	case strings.Contains(p, "invoice"):
		return domain.OpListUnpaidInvoices, "{}"
	}
	return "", ""
}

func offers(tools []Tool, name string) bool {
	for _, t := range tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}

func lastUserMessage(msgs []ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return msgs[i].Content
		}
	}
	return ""
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
