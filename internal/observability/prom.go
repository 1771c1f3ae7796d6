package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tempus"

// Prom bundles the process metrics for the API and the worker. Both
// binaries register the full set; unused series simply stay at zero.
type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// auth outcomes, labelled by operation and result (ok|denied|error)
	AuthAttempts *prometheus.CounterVec

	// worker job outcomes, labelled by type and result (done|retry|failed)
	JobDuration  *prometheus.HistogramVec
	JobResults   *prometheus.CounterVec
	JobsInFlight prometheus.Gauge
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func NewProm(reg prometheus.Registerer) *Prom {
	httpBuckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}
	dbBuckets := []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5}
	jobBuckets := []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60}

	p := &Prom{
		RequestsTotal: counter("", "http_requests_total",
			"Total HTTP requests processed.", "method", "route", "status"),
		RequestsDuration: histogram("", "http_request_duration_seconds",
			"HTTP request latency distributions.", httpBuckets, "method", "route", "status"),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}, []string{"method", "route"}),

		DbQueryDuration: histogram("db", "query_duration_seconds",
			"DB operation latency (logical op, not raw SQL).", dbBuckets, "op", "status"),
		DbErrorsTotal: counter("db", "errors_total",
			"DB errors by logical op and class.", "op", "class"),

		AuthAttempts: counter("auth", "attempts_total",
			"Authentication operations by outcome.", "op", "result"),

		JobDuration: histogram("jobs", "duration_seconds",
			"Job execution duration by type and result.", jobBuckets, "job_type", "result"),
		JobResults: counter("jobs", "results_total",
			"Job outcomes by type and result.", "job_type", "result"),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "jobs",
			Name:      "in_flight",
			Help:      "Current number of executing jobs (per process).",
		}),
	}

	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal, p.AuthAttempts,
		p.JobDuration, p.JobResults, p.JobsInFlight,
	)
	return p
}

// GinHandleMiddleware records request totals, latency and in-flight
// gauge per route template.
func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// route template is only known after routing; unmatched paths
		// collapse into one series instead of exploding cardinality
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}
