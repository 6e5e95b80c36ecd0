package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "masset_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OrdersInitiatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_orders_initiated_total",
			Help: "Purchase initiations by outcome (created, already_purchased, failed)",
		},
		[]string{"outcome"},
	)

	CapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_captures_total",
			Help: "Capture callbacks by terminal state",
		},
		[]string{"state"},
	)

	PurchasesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_purchases_recorded_total",
			Help: "Ledger record calls by result (created, already_exists, failed)",
		},
		[]string{"result"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "masset_provider_request_duration_seconds",
			Help:    "Payment provider call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	ModerationActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_moderation_actions_total",
			Help: "Asset moderation actions",
		},
		[]string{"status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "masset_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "masset_events_published_total",
			Help: "Domain events published to the broker",
		},
		[]string{"routing_key", "status"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOrderInitiated(outcome string) {
	OrdersInitiatedTotal.WithLabelValues(outcome).Inc()
}

func RecordCapture(state string) {
	CapturesTotal.WithLabelValues(state).Inc()
}

func RecordPurchase(result string) {
	PurchasesRecordedTotal.WithLabelValues(result).Inc()
}

func RecordProviderCall(operation, status string, duration float64) {
	ProviderRequestDuration.WithLabelValues(operation, status).Observe(duration)
}

func RecordModeration(status string) {
	ModerationActionsTotal.WithLabelValues(status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordEvent(routingKey, status string) {
	EventsPublishedTotal.WithLabelValues(routingKey, status).Inc()
}
