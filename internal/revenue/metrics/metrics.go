// Package metrics exposes revenue engine metrics in Prometheus format.
package metrics

import (
	"net/http"

	"revenue_backend/internal/revenue/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records cycle, channel and revenue metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	cycles        *prometheus.CounterVec
	skips         *prometheus.CounterVec
	channelSends  *prometheus.CounterVec
	stageErrors   *prometheus.CounterVec
	revenue       prometheus.Counter
	dealsClosed   prometheus.Counter
	cycleDuration prometheus.Histogram
	inFlight      prometheus.Gauge
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arce_cycles_total",
			Help: "Total number of sealed revenue cycles",
		}, []string{"trigger"}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arce_cycle_skips_total",
			Help: "Total number of triggers dropped because a cycle was in flight or the engine was stopped",
		}, []string{"trigger", "reason"}),
		channelSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arce_channel_sends_total",
			Help: "Outreach attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arce_stage_errors_total",
			Help: "Unexpected failures caught at a stage boundary",
		}, []string{"stage"}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arce_revenue_total",
			Help: "Revenue recorded across all sealed cycles",
		}),
		dealsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arce_deals_closed_total",
			Help: "Deals closed across all sealed cycles",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arce_cycle_duration_seconds",
			Help:    "Wall-clock duration of sealed cycles",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arce_in_flight",
			Help: "1 while a cycle is executing",
		}),
	}

	c.registry.MustRegister(
		c.cycles,
		c.skips,
		c.channelSends,
		c.stageErrors,
		c.revenue,
		c.dealsClosed,
		c.cycleDuration,
		c.inFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// CycleStarted marks a cycle as in flight.
func (c *Collector) CycleStarted() {
	c.inFlight.Set(1)
}

// CycleSealed records a finished cycle and its channel outcomes.
func (c *Collector) CycleSealed(summary domain.CycleSummary, results []domain.StageResult) {
	c.inFlight.Set(0)
	c.cycles.WithLabelValues(string(summary.Trigger)).Inc()
	c.cycleDuration.Observe(float64(summary.DurationMs) / 1000)
	c.revenue.Add(float64(summary.RevenueThisCycle))
	c.dealsClosed.Add(float64(summary.DealsClosed))

	for _, e := range summary.Errors {
		c.stageErrors.WithLabelValues(string(e.Stage)).Inc()
	}
	for _, r := range results {
		if r.Channel == "" {
			continue
		}
		c.channelSends.WithLabelValues(string(r.Channel), string(r.Outcome)).Inc()
	}
}

// CycleSkipped counts a dropped trigger.
func (c *Collector) CycleSkipped(trigger domain.Trigger, reason string) {
	c.skips.WithLabelValues(string(trigger), reason).Inc()
}
