package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	queueDepth   *prometheus.GaugeVec
	enqueueTotal *prometheus.CounterVec
	dequeueTotal *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec

	activeSessions      prometheus.Gauge
	sessionOpenDuration prometheus.Histogram

	rowsFetchedTotal *prometheus.CounterVec
	checkpointTotal  *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			queueDepth: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "agent_queue_depth",
					Help: "Current queued task count by agent.",
				},
				[]string{"agent"},
			),
			enqueueTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "agent_enqueue_total",
					Help: "Total enqueue operations by agent.",
				},
				[]string{"agent"},
			),
			dequeueTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "agent_dequeue_total",
					Help: "Total dequeue/completion operations by agent and status.",
				},
				[]string{"agent", "status"},
			),
			taskDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "agent_task_duration_seconds",
					Help:    "Task execution duration in seconds by agent.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"agent"},
			),
			activeSessions: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "active_sessions",
					Help: "Current open session count.",
				},
			),
			sessionOpenDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "session_open_duration_seconds",
					Help:    "Connection open duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			rowsFetchedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "rows_fetched_total",
					Help: "Total rows fetched by session.",
				},
				[]string{"session"},
			),
			checkpointTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "checkpoint_total",
					Help: "Total checkpoint operations by status.",
				},
				[]string{"status"},
			),
		}

		prometheus.MustRegister(
			m.queueDepth,
			m.enqueueTotal,
			m.dequeueTotal,
			m.taskDuration,
			m.activeSessions,
			m.sessionOpenDuration,
			m.rowsFetchedTotal,
			m.checkpointTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func RecordQueueEnqueue(agent string, queueDepth int) {
	m := getMetrics()
	m.enqueueTotal.WithLabelValues(agent).Inc()
	m.queueDepth.WithLabelValues(agent).Set(float64(queueDepth))
}

func RecordQueueCompletion(agent string, duration time.Duration, success bool, queueDepth int) {
	m := getMetrics()
	status := "error"
	if success {
		status = "success"
	}
	m.dequeueTotal.WithLabelValues(agent, status).Inc()
	m.taskDuration.WithLabelValues(agent).Observe(duration.Seconds())
	m.queueDepth.WithLabelValues(agent).Set(float64(queueDepth))
}

func SessionOpened(duration time.Duration) {
	m := getMetrics()
	m.activeSessions.Inc()
	m.sessionOpenDuration.Observe(duration.Seconds())
}

func SessionClosed() {
	getMetrics().activeSessions.Dec()
}

func RecordRowsFetched(session string, count int) {
	if count <= 0 {
		return
	}
	getMetrics().rowsFetchedTotal.WithLabelValues(session).Add(float64(count))
}

func RecordCheckpoint(success bool) {
	status := "error"
	if success {
		status = "success"
	}
	getMetrics().checkpointTotal.WithLabelValues(status).Inc()
}
