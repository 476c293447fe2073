// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sourcehub_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcehub_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ConversationsTotal tracks conversations started by visitors.
	ConversationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sourcehub_conversations_total",
			Help: "Total conversations created",
		},
	)

	// MessagesTotal tracks appended chat messages by sender.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcehub_messages_total",
			Help: "Total chat messages appended",
		},
		[]string{"sender"},
	)

	// AutoRepliesTotal tracks simulated admin replies by outcome.
	AutoRepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcehub_auto_replies_total",
			Help: "Simulated admin replies by outcome",
		},
		[]string{"outcome"},
	)

	// WsConnectionsActive tracks open live-event connections.
	WsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sourcehub_ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	// EventsTotal tracks live events by type and outcome.
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcehub_events_total",
			Help: "Live events published",
		},
		[]string{"type", "outcome"},
	)

	// CounterActionsTotal tracks like/download actions by outcome.
	CounterActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sourcehub_counter_actions_total",
			Help: "Like and download actions",
		},
		[]string{"action", "outcome"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordMessage counts an appended message.
func RecordMessage(sender string) {
	MessagesTotal.WithLabelValues(sender).Inc()
}

// RecordAutoReply counts a simulated reply outcome such as "sent" or "cancelled".
func RecordAutoReply(outcome string) {
	AutoRepliesTotal.WithLabelValues(outcome).Inc()
}

// RecordEvent counts a live event outcome: "queued", "relayed" or "dropped".
func RecordEvent(eventType, outcome string) {
	EventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordCounterAction counts a like/download outcome.
func RecordCounterAction(action, outcome string) {
	CounterActionsTotal.WithLabelValues(action, outcome).Inc()
}
