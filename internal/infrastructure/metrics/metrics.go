package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Business metrics
	SubscriptionsCreated   *prometheus.CounterVec
	SubscriptionsExtended  *prometheus.CounterVec
	LedgerEvents           *prometheus.CounterVec
	MaterializationRetries prometheus.Counter

	// Payment metrics
	PaymentAttempts *prometheus.CounterVec
	BreakerState    prometheus.Gauge

	// Sweep metrics
	ReconciledEntries    *prometheus.CounterVec
	ExpiredSubscriptions prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		SubscriptionsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_created_total",
				Help: "Total number of subscriptions materialized",
			},
			[]string{"account_id", "duration_type_id"},
		),
		SubscriptionsExtended: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_extended_total",
				Help: "Total number of subscription extensions materialized",
			},
			[]string{"account_id", "duration_type_id"},
		),
		LedgerEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_ledger_events_total",
				Help: "Ledger entry transitions by event type and status",
			},
			[]string{"event_type", "status"},
		),
		MaterializationRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_materialization_retries_total",
			Help: "Total number of materialization retries",
		}),
		PaymentAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_payment_attempts_total",
				Help: "Payment attempts by outcome",
			},
			[]string{"outcome"},
		),
		BreakerState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "subscriptions_payment_breaker_state",
			Help: "Payment circuit breaker state (0 closed, 1 open, 2 half-open)",
		}),
		ReconciledEntries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_reconciled_entries_total",
				Help: "Ledger entries recovered by the reconciliation sweep",
			},
			[]string{"action"},
		),
		ExpiredSubscriptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Subscriptions transitioned to EXPIRED by the sweep",
		}),
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subscriptions_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_rate_limit_hits_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"path"},
		),
	}
}

// SubscriptionCreated implements usecase.BusinessMetrics.
func (m *Metrics) SubscriptionCreated(accountID, durationTypeID string) {
	m.SubscriptionsCreated.WithLabelValues(accountID, durationTypeID).Inc()
}

// SubscriptionExtended implements usecase.BusinessMetrics.
func (m *Metrics) SubscriptionExtended(accountID, durationTypeID string) {
	m.SubscriptionsExtended.WithLabelValues(accountID, durationTypeID).Inc()
}

// LedgerEvent implements usecase.BusinessMetrics.
func (m *Metrics) LedgerEvent(eventType, status string) {
	m.LedgerEvents.WithLabelValues(eventType, status).Inc()
}

// MaterializationRetry implements usecase.BusinessMetrics.
func (m *Metrics) MaterializationRetry() {
	m.MaterializationRetries.Inc()
}

// PaymentAttempt implements payment.Metrics.
func (m *Metrics) PaymentAttempt(outcome string) {
	m.PaymentAttempts.WithLabelValues(outcome).Inc()
}

// RateLimitHit counts a request rejected by the rate limiter.
func (m *Metrics) RateLimitHit(path string) {
	m.RateLimitHits.WithLabelValues(path).Inc()
}

// SetBreakerState records the breaker state as a gauge value.
func (m *Metrics) SetBreakerState(state int) {
	m.BreakerState.Set(float64(state))
}
