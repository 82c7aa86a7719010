package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	graphOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdeps",
		Name:      "graph_operations_total",
		Help:      "Graph mutations by operation and result.",
	}, []string{"op", "result"})

	graphOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "taskdeps",
		Name:      "graph_operation_duration_seconds",
		Help:      "Time spent holding the graph lock, including load and persist.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	statusChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskdeps",
		Name:      "status_changes_total",
		Help:      "Task statuses moved by the resolver.",
	})

	cyclesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskdeps",
		Name:      "cycles_rejected_total",
		Help:      "Dependency inserts refused because they would close a loop.",
	})

	eventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdeps",
		Name:      "events_published_total",
		Help:      "Events recorded and fanned out, by topic.",
	}, []string{"topic"})

	sseClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "taskdeps",
		Name:      "sse_clients",
		Help:      "Connected event stream clients.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskdeps",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"method", "route", "code"})
)

func observeGraphOp(op string, d time.Duration, changes int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	graphOps.WithLabelValues(op, result).Inc()
	graphOpDuration.WithLabelValues(op).Observe(d.Seconds())
	if err == nil {
		statusChanges.Add(float64(changes))
	}
}
