package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefit",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "benefit",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefit",
			Subsystem: "calculator",
			Name:      "runs_total",
			Help:      "Total number of benefit calculations.",
		},
		[]string{"success"},
	)

	calculationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "benefit",
			Subsystem: "calculator",
			Name:      "run_duration_seconds",
			Help:      "Duration of benefit calculations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "benefit",
			Subsystem: "applications",
			Name:      "status_transitions_total",
			Help:      "Application status changes by source and target status.",
		},
		[]string{"from", "to"},
	)

	exportedApplications = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "benefit",
			Subsystem: "export",
			Name:      "applications_total",
			Help:      "Decided applications exported in batches.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		calculations,
		calculationDuration,
		statusTransitions,
		exportedApplications,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordCalculation(success bool, duration time.Duration) {
	calculations.WithLabelValues(strconv.FormatBool(success)).Inc()
	calculationDuration.Observe(duration.Seconds())
}

func RecordStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

func RecordExport(applications int) {
	exportedApplications.Add(float64(applications))
}
