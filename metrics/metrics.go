// Package metrics provides Prometheus metrics collection for fighting apps.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/buildwithgo/fighting"
	"github.com/buildwithgo/fighting/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fighting"

// Collector holds all Prometheus metrics for a fighting app.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Client errors raised by input validation and by Abort
	ValidationFailures *prometheus.CounterVec
	Aborts             *prometheus.CounterVec

	ConfigReloads prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a collector registered with reg. Handler serves
// the metrics gathered by g.
func NewWithRegistry(reg prometheus.Registerer, g prometheus.Gatherer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of requests rejected by input validation",
			},
			[]string{"route"},
		),
		Aborts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aborts_total",
				Help:      "Total number of requests aborted with a client error",
			},
			[]string{"route"},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		gatherer: g,
	}
}

// Middleware records every request. Requests that match no route are
// labelled "unmatched" to keep the label set bounded.
func (m *Collector) Middleware() fighting.Middleware {
	return func(next fighting.Handler) fighting.Handler {
		return func(c *fighting.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)

			route := c.RoutePath()
			if route == "" {
				route = "unmatched"
			}
			status := fighting.StatusOf(c, err)
			m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())

			var invalid *schema.Invalid
			switch {
			case errors.As(err, &invalid):
				m.ValidationFailures.WithLabelValues(route).Inc()
			case fighting.IsAbort(err):
				m.Aborts.WithLabelValues(route).Inc()
			}
			return err
		}
	}
}

// Handler serves the gathered metrics in the Prometheus text format.
func (m *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
