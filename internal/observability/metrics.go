package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	// HTTP metrics
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsorch_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsorch_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	ActiveRequests = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wsorch_active_requests",
		Help: "Current in-flight requests",
	})

	// orchestrator metrics
	OperationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsorch_operation_total",
		Help: "Orchestrator operations by result code",
	}, []string{"op", "result"})

	PollDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsorch_poll_duration_seconds",
		Help:    "Time spent waiting for a phase",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"wait", "result"})

	TeardownWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsorch_teardown_warnings_total",
		Help: "Dependent resource deletions that failed during teardown",
	}, []string{"kind"})

	// background task metrics
	BackgroundQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "wsorch_background_queue_depth",
		Help: "Queued background tasks",
	})

	BackgroundTaskTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsorch_background_task_total",
		Help: "Background task outcomes",
	}, []string{"task", "outcome"})

	BackgroundTaskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wsorch_background_task_duration_seconds",
		Help:    "Background task duration",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"task"})

	ReleaseOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wsorch_release_outcome_total",
		Help: "Release creation outcomes, including abandoned background waits",
	}, []string{"path", "outcome"})
)

func RegisterAll(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, ActiveRequests,
		OperationTotal, PollDuration, TeardownWarningsTotal,
		BackgroundQueueDepth, BackgroundTaskTotal, BackgroundTaskDuration,
		ReleaseOutcomeTotal,
	)
}
