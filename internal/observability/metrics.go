package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects dispatcher-level Prometheus metrics: turn outcomes, model
// calls, tool executions, and proposal flow.
type Metrics struct {
	// TurnCounter counts dispatcher turns by terminal phase.
	// Labels: outcome (finished|awaiting_confirmation|error)
	TurnCounter *prometheus.CounterVec

	// TurnDuration measures full turn latency in seconds.
	TurnDuration prometheus.Histogram

	// LLMRequestCounter counts model calls.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMRequestDuration measures model call latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// ToolExecutionCounter counts tool invocations.
	// Labels: app, kind (read|write), status (success|error)
	ToolExecutionCounter *prometheus.CounterVec

	// ToolExecutionDuration measures tool execution time in seconds.
	// Labels: app
	ToolExecutionDuration *prometheus.HistogramVec

	// ProposalCounter counts write proposals surfaced to the user.
	// Labels: app
	ProposalCounter *prometheus.CounterVec

	// RateLimitRetryCounter counts model retries triggered by rate limits.
	// Labels: provider
	RateLimitRetryCounter *prometheus.CounterVec

	// EventCounter counts stream events by kind.
	EventCounter *prometheus.CounterVec

	// ActiveTurns tracks turns currently in flight.
	ActiveTurns prometheus.Gauge
}

// NewMetrics creates and registers all dispatcher metrics with the default
// Prometheus registry. Call once at startup.
func NewMetrics() *Metrics {
	return &Metrics{
		TurnCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_turns_total",
				Help: "Total dispatcher turns by terminal outcome",
			},
			[]string{"outcome"},
		),

		TurnDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "concierge_turn_duration_seconds",
				Help:    "Duration of full dispatcher turns in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),

		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_llm_requests_total",
				Help: "Total model requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_llm_request_duration_seconds",
				Help:    "Duration of model requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_tool_executions_total",
				Help: "Total tool executions by app, kind, and status",
			},
			[]string{"app", "kind", "status"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "concierge_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"app"},
		),

		ProposalCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_proposals_total",
				Help: "Total write proposals surfaced for confirmation",
			},
			[]string{"app"},
		),

		RateLimitRetryCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_rate_limit_retries_total",
				Help: "Total model call retries caused by rate limiting",
			},
			[]string{"provider"},
		),

		EventCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "concierge_events_total",
				Help: "Total stream events emitted by kind",
			},
			[]string{"kind"},
		),

		ActiveTurns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "concierge_active_turns",
				Help: "Number of dispatcher turns currently in flight",
			},
		),
	}
}
