// Package metrics exposes Prometheus instruments for the dispatcher.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendagent_operations_total",
		Help: "Resolved operations dispatched from prompts by outcome",
	}, []string{"operation", "outcome"})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendagent_actions_total",
		Help: "Follow-up actions dispatched by outcome",
	}, []string{"action", "outcome"})

	paymentAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendagent_payment_attempts_total",
		Help: "Invoice payment attempts by result",
	}, []string{"result"}) // result=paid|requires_method|declined|error

	remediationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "spendagent_remediations_total",
		Help: "Payments pivoted into the payment method setup flow",
	})

	resolverCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spendagent_resolver_calls_total",
		Help: "Intent resolver calls by result",
	}, []string{"result"}) // result=operation|text|error
)

// RecordOperation counts a dispatched operation.
func RecordOperation(operation, outcome string) {
	operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordAction counts a dispatched follow-up action.
func RecordAction(action, outcome string) {
	actionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordPaymentAttempt counts an invoice payment attempt.
func RecordPaymentAttempt(result string) {
	paymentAttemptsTotal.WithLabelValues(result).Inc()
}

// RecordRemediation counts a pivot into the setup flow.
func RecordRemediation() {
	remediationsTotal.Inc()
}

// RecordResolverCall counts an intent resolver call.
func RecordResolverCall(result string) {
	resolverCallsTotal.WithLabelValues(result).Inc()
}
