package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xiaot623/spendagent/internal/domain"
)

func renderInvoiceList(content string) string {
	var invoices []domain.InvoiceSummary
	if err := json.Unmarshal([]byte(content), &invoices); err != nil {
		return content + "\n"
	}
	if len(invoices) == 0 {
		return "No open invoices.\n"
	}
	var b strings.Builder
	for _, inv := range invoices {
		fmt.Fprintf(&b, "  %s  %-12s %s  %s\n", inv.ID, inv.Number, domain.FormatAmount(inv.Total, inv.Currency), inv.Description)
	}
	return b.String()
}
