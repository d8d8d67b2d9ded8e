package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BackendRequests counts travel backend calls by endpoint and outcome.
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_backend_requests_total",
			Help: "Total number of travel backend requests",
		},
		[]string{"endpoint", "outcome"}, // outcome: success, error, rejected
	)

	BackendLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travel_backend_request_duration_seconds",
			Help:    "Duration of travel backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// CircuitBreakerState tracks the backend breaker (0=closed, 1=half-open, 2=open).
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "travel_backend_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_backend_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// SelectionSpins counts started selection runs per step.
	SelectionSpins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_selection_spins_total",
			Help: "Total number of randomized selection runs started",
		},
		[]string{"step"},
	)

	SelectionCancels = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_selection_cancels_total",
			Help: "Total number of selection runs cancelled before settling",
		},
		[]string{"step"},
	)

	// ActiveWorkflows reports workflows currently held in the store.
	ActiveWorkflows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "travel_active_workflows",
			Help: "Number of selection workflows currently stored",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_web_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)
)
