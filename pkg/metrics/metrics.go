package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MQ handling latency in milliseconds.
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"routing_key", "queue"},
	)

	// Upstream call latency in milliseconds (gemini, geocode, relay).
	UpstreamCallLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_call_latency_ms",
			Help:    "Latency of calls to the model, geocoder and message relay in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 12),
		},
		[]string{"upstream", "status"},
	)

	// Slow queries.
	SlowQueryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_slow_query_total",
			Help: "Number of queries slower than the configured threshold",
		},
		[]string{"statement"},
	)

	SlowQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "db_slow_query_duration_seconds",
			Help:    "Duration of slow queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		},
	)

	// HTTP request latency in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)

	// Chat intents by party.
	ChatIntentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_intent_total",
			Help: "Inbound chat messages by party and resolved intent",
		},
		[]string{"party", "intent"},
	)

	// Shift status transitions.
	ShiftTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shift_transition_total",
			Help: "Shift state transitions",
		},
		[]string{"to"},
	)

	// Outbound messages by outcome.
	MessageSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "message_sent_total",
			Help: "Outbound messages handed to the relay",
		},
		[]string{"status"}, // status: sent, duplicate, retry, dead_lettered
	)

	OpenShiftGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "open_shifts",
			Help: "Number of upcoming shifts still open",
		},
	)
)

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// RecordUpstreamCall records the latency of one upstream call.
func RecordUpstreamCall(upstream, status string, duration time.Duration) {
	UpstreamCallLatency.WithLabelValues(upstream, status).Observe(float64(duration.Milliseconds()))
}

// IncrementSlowQuery counts one slow query.
func IncrementSlowQuery(statement string, duration time.Duration) {
	SlowQueryCount.WithLabelValues(statement).Inc()
	SlowQueryDuration.Observe(duration.Seconds())
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementChatIntent(party, intent string) {
	ChatIntentCount.WithLabelValues(party, intent).Inc()
}

func IncrementShiftTransition(to string) {
	ShiftTransitionCount.WithLabelValues(to).Inc()
}

func IncrementMessageSent(status string) {
	MessageSentCount.WithLabelValues(status).Inc()
}

func SetOpenShifts(n int) {
	OpenShiftGauge.Set(float64(n))
}
