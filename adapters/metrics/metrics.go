// Package metrics provides Prometheus metrics for dispatch activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds all Prometheus metrics for calltree.
type Collector struct {
	// Request metrics (server dispatcher)
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Registration metrics
	RegisteredEndpoints prometheus.Gauge

	// Config metrics (demo gateway hot reload)
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered on the default Prometheus registry.
func New() *Collector {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a collector registered on the given registerer. Tests
// pass a fresh prometheus.NewRegistry so collectors never collide.
func NewWith(reg prometheus.Registerer) *Collector {
	c := &Collector{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "calltree",
				Name:      "requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"verb", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "calltree",
				Name:      "request_duration_seconds",
				Help:      "Request dispatch duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"verb", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "calltree",
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being dispatched",
			},
		),
		RegisteredEndpoints: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "calltree",
				Name:      "registered_endpoints",
				Help:      "Number of endpoints currently registered",
			},
		),
		ConfigReloads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "calltree",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "calltree",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
	}

	reg.MustRegister(
		c.RequestsTotal,
		c.RequestDuration,
		c.RequestsInFlight,
		c.RegisteredEndpoints,
		c.ConfigReloads,
		c.ConfigReloadErrors,
	)

	return c
}

// ObserveRequest records one dispatched request.
func (c *Collector) ObserveRequest(verb, path, status string, elapsed time.Duration) {
	c.RequestsTotal.WithLabelValues(verb, path, status).Inc()
	c.RequestDuration.WithLabelValues(verb, path).Observe(elapsed.Seconds())
}
