package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors are the Prometheus metrics of the planner service.
type Collectors struct {
	registry *prometheus.Registry

	generationsTotal   *prometheus.CounterVec
	modificationsTotal *prometheus.CounterVec
	rateLimitedTotal   *prometheus.CounterVec
	completionDuration prometheus.Histogram
	completionTokens   *prometheus.CounterVec
}

// NewCollectors registers every collector on a fresh registry.
func NewCollectors() *Collectors {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collectors{
		registry: reg,
		generationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_plan_generations_total",
				Help: "Generated meal plans by source and fallback reason",
			},
			[]string{"source", "reason"},
		),
		modificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_plan_modifications_total",
				Help: "Applied plan modifications by rule",
			},
			[]string{"rule"},
		),
		rateLimitedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_plan_rate_limited_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"identity"},
		),
		completionDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "meal_plan_completion_duration_seconds",
				Help:    "Completion service call duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
			},
		),
		completionTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_plan_completion_tokens_total",
				Help: "Tokens used by the completion service",
			},
			[]string{"model", "kind"},
		),
	}
}

// ObserveGeneration counts one generated plan.
func (c *Collectors) ObserveGeneration(source, reason string, latency time.Duration) {
	c.generationsTotal.WithLabelValues(source, reason).Inc()
	if latency > 0 {
		c.completionDuration.Observe(latency.Seconds())
	}
}

// ObserveTokens adds completion token usage for model.
func (c *Collectors) ObserveTokens(model string, prompt, completion int) {
	if model == "" {
		model = "unknown"
	}
	c.completionTokens.WithLabelValues(model, "prompt").Add(float64(prompt))
	c.completionTokens.WithLabelValues(model, "completion").Add(float64(completion))
}

func (c *Collectors) ObserveModification(rule string) {
	c.modificationsTotal.WithLabelValues(rule).Inc()
}

// ObserveRateLimited counts a rejection; identity is "user" or "anonymous".
func (c *Collectors) ObserveRateLimited(identity string) {
	c.rateLimitedTotal.WithLabelValues(identity).Inc()
}

// Registry exposes the underlying registry, mostly for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
