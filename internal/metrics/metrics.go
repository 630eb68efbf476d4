// ABOUTME: Prometheus collectors for upstream calls, chat exchanges, and the status poller.
// ABOUTME: Registered on the default registry at init through promauto.

// Package metrics is the single place shopdesk metric names, labels, and help
// strings are defined. The collectors are registered with the default
// Prometheus registry, which the server exposes through promhttp.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopdesk"

// Outcome labels shared by the upstream and chat collectors.
const (
	OutcomeOK           = "ok"
	OutcomeRejected     = "rejected"
	OutcomeUnauthorized = "unauthorized"
	OutcomeTimeout      = "timeout"
	OutcomeUnreachable  = "unreachable"
	OutcomeStatus       = "status"
	OutcomeError        = "error"
)

// UpstreamRequestsTotal counts REST API calls.
// Labels:
//   - op: client operation (e.g. "list_products", "login", "verify")
//   - outcome: one of the Outcome* constants
var UpstreamRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upstream_requests_total",
		Help:      "Total number of REST API calls, by operation and outcome.",
	},
	[]string{"op", "outcome"},
)

// UpstreamRequestDuration measures REST API call latency including timeouts.
var UpstreamRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "upstream_request_duration_seconds",
		Help:      "Duration of REST API calls.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"op"},
)

// ChatExchangesTotal counts webhook exchanges by outcome.
var ChatExchangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_exchanges_total",
		Help:      "Total number of chat webhook exchanges, by outcome.",
	},
	[]string{"outcome"},
)

// ChatDedupTotal counts duplicate-submission decisions.
// Label:
//   - result: "hit" (duplicate, dropped) or "miss" (new submission)
var ChatDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_dedup_total",
		Help:      "Total number of chat submission dedupe checks, by result.",
	},
	[]string{"result"},
)

// AssistantStatus is 1 when the last status poll succeeded, 0 otherwise.
var AssistantStatus = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "assistant_online",
		Help:      "Whether the conversational webhook reported healthy on the last poll.",
	},
)

// SessionsForcedLogoutTotal counts sessions ended by the server rather than the user.
// Label:
//   - reason: "unauthorized", "verify_failed", or "expired"
var SessionsForcedLogoutTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_forced_logout_total",
		Help:      "Total number of sessions terminated by the console.",
	},
	[]string{"reason"},
)

// ObserveUpstream records one REST API call.
func ObserveUpstream(op, outcome string, started time.Time) {
	UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}
