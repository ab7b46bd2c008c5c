package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dialfa_analytics"

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	analysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Time spent fetching and computing an analysis on a cache miss.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"dataset", "status"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Analytics cache lookups by result.",
		},
		[]string{"dataset", "result"},
	)

	defaultedRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "defaulted_rows_total",
			Help:      "Rows with null or out of range fields replaced by defaults.",
		},
		[]string{"query"},
	)

	warmupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "warmup",
			Name:      "job_runs_total",
			Help:      "Cache warm-up job executions.",
		},
		[]string{"job", "status"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		analysisDuration,
		cacheLookups,
		defaultedRows,
		warmupRuns,
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveAnalysis records a computed dataset.
func ObserveAnalysis(dataset string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	analysisDuration.WithLabelValues(dataset, status).Observe(duration.Seconds())
}

// RecordCacheLookup counts a hit, miss or error for dataset.
func RecordCacheLookup(dataset, result string) {
	cacheLookups.WithLabelValues(dataset, result).Inc()
}

// RecordDefaultedRows counts rows the query layer had to patch.
func RecordDefaultedRows(query string, n int) {
	if n <= 0 {
		return
	}
	defaultedRows.WithLabelValues(query).Add(float64(n))
}

// RecordWarmupRun counts a warm-up job by outcome.
func RecordWarmupRun(job string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	warmupRuns.WithLabelValues(job, status).Inc()
}
