// Package main provides a terminal chat client for the spend agent WebSocket.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/xiaot623/spendagent/internal/domain"
	"github.com/xiaot623/spendagent/internal/log"
)

// Request mirrors the agent request body.
type Request struct {
	RequestID string                 `json:"request_id"`
	Prompt    string                 `json:"prompt,omitempty"`
	Action    *domain.FollowUpAction `json:"action,omitempty"`
}

// Reply mirrors the agent WebSocket reply.
type Reply struct {
	RequestID   string                    `json:"request_id"`
	Content     string                    `json:"result"`
	Kind        domain.ContentKind        `json:"kind"`
	Interactive *domain.InteractivePrompt `json:"interactive,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Status      int                       `json:"status,omitempty"`
}

// Client represents a WebSocket client.
type Client struct {
	conn *websocket.Conn
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Send sends one request and waits for its reply.
func (c *Client) Send(req Request, timeout time.Duration) (*Reply, error) {
	if req.RequestID == "" {
		req.RequestID = "cli_" + uuid.NewString()[:8]
	}
	if err := c.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	var reply Reply
	if err := c.conn.ReadJSON(&reply); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return &reply, nil
}

// actionFor turns the user's answer to an interactive prompt into a
// follow-up action. A nil action with a nil error means the input is a new
// free-text prompt.
func actionFor(p *domain.InteractivePrompt, input string) (*domain.FollowUpAction, error) {
	if p == nil {
		return nil, nil
	}
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "c") || strings.EqualFold(input, "cancel") {
		return newAction(domain.ActionCancelFlow, domain.ActionData{}), nil
	}

	switch p.Type {
	case domain.PromptInvoiceSelection:
		i, ok := choice(input, len(p.Invoices))
		if !ok {
			return nil, nil
		}
		return newAction(domain.ActionSelectInvoice, domain.ActionData{InvoiceID: p.Invoices[i].ID}), nil

	case domain.PromptPaymentConfirmation:
		if p.Invoice == nil {
			return nil, fmt.Errorf("confirmation prompt without invoice")
		}
		switch strings.ToLower(input) {
		case "y", "yes":
			return newAction(domain.ActionConfirmPayment, domain.ActionData{InvoiceID: p.Invoice.ID}), nil
		case "n", "no":
			return newAction(domain.ActionCancelFlow, domain.ActionData{}), nil
		}

	case domain.PromptPaymentMethodSetup:
		if strings.HasPrefix(input, "pm_") {
			return newAction(domain.ActionSetupPaymentMethod, domain.ActionData{
				PaymentMethodID: input,
				InvoiceID:       p.InvoiceID,
			}), nil
		}

	case domain.PromptPaymentMethodSelection:
		i, ok := choice(input, len(p.PaymentMethods))
		if !ok {
			return nil, nil
		}
		return newAction(domain.ActionSelectPaymentMethod, domain.ActionData{
			PaymentMethodID: p.PaymentMethods[i].ID,
			InvoiceID:       p.InvoiceID,
		}), nil
	}
	return nil, nil
}

func newAction(t domain.ActionType, data domain.ActionData) *domain.FollowUpAction {
	return &domain.FollowUpAction{Version: domain.PromptVersion, Type: t, Data: data}
}

// choice parses a 1-based menu choice.
func choice(input string, n int) (int, bool) {
	i, err := strconv.Atoi(input)
	if err != nil || i < 1 || i > n {
		return 0, false
	}
	return i - 1, true
}

// render formats a reply for the terminal.
func render(r *Reply) string {
	var b strings.Builder
	if r.Error != "" {
		fmt.Fprintf(&b, "error (%d): %s\n", r.Status, r.Error)
		return b.String()
	}
	if r.Content != "" && r.Kind != domain.ContentInvoiceList {
		b.WriteString(r.Content + "\n")
	}
	if r.Kind == domain.ContentInvoiceList {
		b.WriteString(renderInvoiceList(r.Content))
	}

	p := r.Interactive
	if p == nil {
		return b.String()
	}
	switch p.Type {
	case domain.PromptInvoiceSelection:
		for i, inv := range p.Invoices {
			fmt.Fprintf(&b, "  %d) %s  %s  %s\n", i+1, inv.ID, domain.FormatAmount(inv.Total, inv.Currency), inv.Description)
		}
		b.WriteString("Pick a number, or c to cancel.\n")
	case domain.PromptPaymentConfirmation:
		if inv := p.Invoice; inv != nil {
			fmt.Fprintf(&b, "  %s  %s  %s\n", inv.ID, domain.FormatAmount(inv.Total, inv.Currency), inv.Description)
		}
		b.WriteString("Pay now? [y/n]\n")
	case domain.PromptPaymentMethodSetup:
		fmt.Fprintf(&b, "  setup intent client secret: %s\n", p.ClientSecret)
		b.WriteString("Confirm the card with your payment provider, then paste the pm_... id (or c to cancel).\n")
	case domain.PromptPaymentMethodSelection:
		for i, pm := range p.PaymentMethods {
			label := pm.Type
			if pm.Card != nil {
				label = fmt.Sprintf("%s •••• %s", strings.ToUpper(pm.Card.Brand), pm.Card.Last4)
			}
			fmt.Fprintf(&b, "  %d) %s (%s)\n", i+1, label, pm.ID)
		}
		b.WriteString("Pick a number, or c to cancel.\n")
	}
	return b.String()
}

func main() {
	addr := flag.String("addr", "ws://localhost:8080/v1/agent/ws", "Agent WebSocket address")
	timeout := flag.Duration("timeout", 90*time.Second, "Reply timeout")
	flag.Parse()

	log.Configure(log.Config{Output: zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}, Service: "spendagent-cli"})
	logger := log.WithComponent("cli")

	fmt.Printf("Connecting to %s...\n", *addr)
	client, err := NewClient(*addr)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer client.Close()

	fmt.Println("Connected. Ask about your invoices or payment methods. /quit to exit.")

	var pending *domain.InteractivePrompt
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return
		}

		req := Request{Prompt: line}
		action, err := actionFor(pending, line)
		if err != nil {
			logger.Error().Err(err).Msg("cannot answer prompt")
			pending = nil
			continue
		}
		if action != nil {
			req = Request{Action: action}
		}

		reply, err := client.Send(req, *timeout)
		if err != nil {
			logger.Error().Err(err).Msg("request failed")
			return
		}
		fmt.Print(render(reply))
		if reply.Error == "" {
			pending = reply.Interactive
		}
	}
}
