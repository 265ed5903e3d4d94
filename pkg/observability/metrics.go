package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one engine instance.
type Metrics struct {
	registry    *prometheus.Registry
	turns       *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	completion  *prometheus.HistogramVec
	suspensions *prometheus.CounterVec
}

// NewMetrics creates the collectors on a private registry that also carries
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teller_turns_total",
				Help: "Total number of turns by the route that handled them",
			},
			[]string{"route"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teller_tool_calls_total",
				Help: "Total number of model-requested tool executions",
			},
			[]string{"tool", "status"},
		),
		completion: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "teller_completion_seconds",
				Help:    "Duration of completion service calls",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"outcome"},
		),
		suspensions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "teller_process_suspensions_total",
				Help: "Total number of multi-step processes suspended by a topic switch",
			},
			[]string{"process"},
		),
	}
	m.registry.MustRegister(
		m.turns, m.toolCalls, m.completion, m.suspensions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) TurnRouted(route string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(route).Inc()
}

func (m *Metrics) ToolCalled(tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, status).Inc()
}

func (m *Metrics) CompletionObserved(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.completion.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ProcessSuspended(process string) {
	if m == nil {
		return
	}
	m.suspensions.WithLabelValues(process).Inc()
}
