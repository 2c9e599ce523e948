package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "sideswap",
			Subsystem: "session",
			Name:      "active",
			Help:      "Connections currently running a session.",
		},
	)
	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideswap",
			Subsystem: "session",
			Name:      "closed_total",
			Help:      "Sessions closed, by reason.",
		},
		[]string{"reason"},
	)
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideswap",
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Commands handled, by command and reply status.",
		},
		[]string{"command", "status"},
	)
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideswap",
			Subsystem: "job",
			Name:      "finished_total",
			Help:      "Transform jobs finished, by terminal status.",
		},
		[]string{"status"},
	)
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sideswap",
			Subsystem: "job",
			Name:      "duration_seconds",
			Help:      "Transform job run time in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status", "lanes"},
	)
	readRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideswap",
			Subsystem: "frame",
			Name:      "read_retries_total",
			Help:      "Failed frame reads that were retried.",
		},
		[]string{"role"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sideswap",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sideswap",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			sessionsActive,
			sessionsTotal,
			commandsTotal,
			jobsTotal,
			jobDuration,
			readRetries,
			httpRequests,
			httpDuration,
		)
	})
}

func SessionOpened() {
	RegisterMetrics()
	sessionsActive.Inc()
}

func SessionClosed(reason string) {
	RegisterMetrics()
	sessionsActive.Dec()
	sessionsTotal.WithLabelValues(reason).Inc()
}

func RecordCommand(command, status string) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(command, status).Inc()
}

func RecordJob(status string, lanes int, duration time.Duration) {
	RegisterMetrics()
	jobsTotal.WithLabelValues(status).Inc()
	jobDuration.WithLabelValues(status, strconv.Itoa(lanes)).Observe(duration.Seconds())
}

func RecordReadRetry(role string) {
	RegisterMetrics()
	readRetries.WithLabelValues(role).Inc()
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}
