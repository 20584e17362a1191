package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for ReviewVerdicts.
const (
	OutcomeVerified = "verified"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

var (
	ReviewsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besaha_reviews_submitted_total",
			Help: "Reviews accepted by the intake path in pending state",
		},
	)

	ReviewVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besaha_review_verdicts_total",
			Help: "Verification outcomes by result and reason",
		},
		[]string{"outcome", "reason"},
	)

	VerificationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "besaha_review_verification_duration_seconds",
			Help:    "Time from orchestrator start to a recorded outcome",
			Buckets: prometheus.DefBuckets,
		},
	)

	VerificationRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besaha_review_verification_retries_total",
			Help: "Transaction attempts retried after a transient storage error",
		},
	)

	AggregateUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besaha_restaurant_aggregate_updates_total",
			Help: "Committed restaurant aggregate updates",
		},
	)

	ReconcileRedrives = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "besaha_reconcile_redrives_total",
			Help: "Reviews re-driven by the reconciler",
		},
	)

	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besaha_cache_requests_total",
			Help: "Restaurant cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)

	ConciergeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "besaha_concierge_requests_total",
			Help: "Concierge questions by result",
		},
		[]string{"result"}, // "answered", "offline", "fallback"
	)

	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "besaha_websocket_connections",
			Help: "Currently open websocket connections",
		},
	)
)

// RecordVerdict counts one orchestrator outcome and its latency.
func RecordVerdict(outcome, reason string, started time.Time) {
	ReviewVerdicts.WithLabelValues(outcome, reasonLabel(reason)).Inc()
	VerificationDuration.Observe(time.Since(started).Seconds())
}

// reasonLabel keeps label cardinality bounded: distance-bearing reasons
// collapse into one value.
func reasonLabel(reason string) string {
	const tooFar = "Too far away"
	if strings.HasPrefix(reason, tooFar) {
		return tooFar
	}
	return reason
}
