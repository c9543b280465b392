package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/spendagent/internal/domain"
)

func TestActionLabel(t *testing.T) {
	assert.Equal(t, "confirm_payment", actionLabel(domain.ActionConfirmPayment))
	assert.Equal(t, "set_default_payment_method", actionLabel(domain.ActionSetDefaultPaymentMethod))
	assert.Equal(t, "unknown", actionLabel("drop_tables"))
}

func TestUnknownActionTypesShareMetricLabel(t *testing.T) {
	svc := newTestService(t, seededProvider(), &stubResolver{})
	for i := 0; i < 20; i++ {
		_, err := svc.HandleAction(context.Background(), domain.FollowUpAction{
			Type: domain.ActionType(fmt.Sprintf("junk_%d", i)),
		})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var labels []string
	for _, mf := range families {
		if mf.GetName() != "spendagent_actions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "action" {
					labels = append(labels, lp.GetValue())
				}
			}
		}
	}
	assert.Contains(t, labels, "unknown")
	for _, l := range labels {
		assert.NotContains(t, l, "junk")
	}
}
