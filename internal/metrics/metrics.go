// Package metrics registers the Prometheus metrics the wrapper updates
// while serving reconciliation requests:
//   - mt5_requests_total{endpoint,outcome}        – HTTP requests by outcome (ok|not_found|unavailable|error)
//   - mt5_terminal_calls_total{call,outcome}      – terminal gateway calls (ok|empty|error)
//   - mt5_reconciliations_total{kind,result}      – reconciliations (kind: position|deal; result: full|degraded|not_found|error)
//   - mt5_degraded_lookups_total{stage}           – secondary lookups resolved by fallback (opening_deal|order|clock)
//
// Served at /metrics in Prometheus text exposition format.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_requests_total",
			Help: "HTTP requests by endpoint and outcome",
		},
		[]string{"endpoint", "outcome"},
	)

	mtxTerminalCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_terminal_calls_total",
			Help: "Terminal gateway calls by outcome",
		},
		[]string{"call", "outcome"},
	)

	mtxReconciliations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_reconciliations_total",
			Help: "Reconciliations by kind and result",
		},
		[]string{"kind", "result"},
	)

	mtxDegradedLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mt5_degraded_lookups_total",
			Help: "Secondary lookups resolved by a documented fallback",
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(mtxRequests, mtxTerminalCalls, mtxReconciliations, mtxDegradedLookups)
}

func IncRequest(endpoint, outcome string)   { mtxRequests.WithLabelValues(endpoint, outcome).Inc() }
func IncTerminalCall(call, outcome string)  { mtxTerminalCalls.WithLabelValues(call, outcome).Inc() }
func IncReconciliation(kind, result string) { mtxReconciliations.WithLabelValues(kind, result).Inc() }
func IncDegradedLookup(stage string)        { mtxDegradedLookups.WithLabelValues(stage).Inc() }
