// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LedgerMutations counts create/update/delete of transactions by outcome
	LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance_tracker",
		Name:      "ledger_mutations_total",
		Help:      "Transaction mutations by operation and result.",
	}, []string{"operation", "result"})

	// BalanceDrifts counts users found with a stored balance different from their transactions
	BalanceDrifts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance_tracker",
		Name:      "balance_drifts_total",
		Help:      "Balance drifts found by the reconciler.",
	}, []string{"repaired"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "finance_tracker",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "finance_tracker",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
