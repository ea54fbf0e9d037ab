// Package metrics provides Prometheus metrics for the mentorship hub.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mentorship_hub"

var (
	// LifecycleOutcomes tracks propose/accept/decline results by wire code.
	// Successful operations are recorded with code "OK".
	LifecycleOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaboration",
			Name:      "lifecycle_total",
			Help:      "Collaboration request lifecycle operations by outcome",
		},
		[]string{"operation", "code"},
	)

	// LifecycleDuration tracks the full transaction time including retries.
	LifecycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "collaboration",
			Name:      "lifecycle_duration_seconds",
			Help:      "Duration of collaboration lifecycle operations in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	// TxRetries tracks transaction retries after transient failures.
	TxRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collaboration",
			Name:      "tx_retries_total",
			Help:      "Lifecycle transactions retried after a transient failure",
		},
		[]string{"operation"},
	)

	// SuggestionsServed tracks suggestions returned per tier.
	SuggestionsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "suggestions_total",
			Help:      "Suggestions returned to callers by tier",
		},
		[]string{"tier"},
	)

	// SuggestionCache tracks suggestion cache lookups.
	SuggestionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "matching",
			Name:      "cache_lookups_total",
			Help:      "Suggestion cache lookups by result",
		},
		[]string{"result"},
	)

	// EventsPublished tracks domain events dispatched on the bus.
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published by type",
		},
		[]string{"event_type"},
	)

	// EventHandlerFailures tracks subscriber errors and panics.
	EventHandlerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "handler_failures_total",
			Help:      "Event handler failures by event type",
		},
		[]string{"event_type"},
	)

	// HTTPRequestsTotal tracks inbound HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	// HTTPRequestDuration tracks inbound HTTP request duration.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of inbound HTTP requests in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// CodeOK labels a successful lifecycle operation.
const CodeOK = "OK"

// RecordLifecycle records the outcome of one lifecycle operation.
func RecordLifecycle(operation, code string, d time.Duration) {
	if code == "" {
		code = CodeOK
	}
	LifecycleOutcomes.WithLabelValues(operation, code).Inc()
	LifecycleDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordTxRetry records one transaction retry.
func RecordTxRetry(operation string) {
	TxRetries.WithLabelValues(operation).Inc()
}

// RecordSuggestion records one served suggestion.
func RecordSuggestion(tier string) {
	SuggestionsServed.WithLabelValues(tier).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	SuggestionCache.WithLabelValues(result).Inc()
}

// RecordEvent records a published event.
func RecordEvent(eventType string) {
	EventsPublished.WithLabelValues(eventType).Inc()
}

// RecordHandlerFailure records a failed event handler.
func RecordHandlerFailure(eventType string) {
	EventHandlerFailures.WithLabelValues(eventType).Inc()
}

// RecordHTTPRequest records an inbound HTTP request.
func RecordHTTPRequest(method, route, statusCode string, d time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
