// Package metrics exposes Prometheus collectors for cleaning runs and HTTP
// traffic. Each Collector owns its own registry so tests and multiple
// servers in one process never collide.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tidycsv"

// Collector holds every metric the service exports.
type Collector struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	rows         prometheus.Counter
	duplicates   prometheus.Counter
	filled       prometheus.Counter
	runDuration  *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a Collector with Go runtime and process collectors attached.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Cleaning runs by outcome and format or error code.",
		}, []string{"outcome", "detail"}),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Rows read by successful cleaning runs.",
		}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_removed_total",
			Help:      "Duplicate rows removed.",
		}),
		filled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_filled_total",
			Help:      "Missing values filled by imputation.",
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Time spent cleaning one upload.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.runs, c.rows, c.duplicates, c.filled, c.runDuration,
		c.httpRequests, c.httpDuration,
	)
	return c
}

// RunCompleted records a successful run.
func (c *Collector) RunCompleted(format string, rows, duplicates, filled int, d time.Duration) {
	c.runs.WithLabelValues("success", format).Inc()
	c.rows.Add(float64(rows))
	c.duplicates.Add(float64(duplicates))
	c.filled.Add(float64(filled))
	c.runDuration.WithLabelValues(format).Observe(d.Seconds())
}

// RunFailed records a failed run under its user-facing error code.
func (c *Collector) RunFailed(code string) {
	c.runs.WithLabelValues("error", code).Inc()
}

// ObserveRequest records one served HTTP request. route should be the
// route pattern, not the raw path, to keep label cardinality bounded.
func (c *Collector) ObserveRequest(method, route string, status int, d time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
