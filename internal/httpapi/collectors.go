package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineCacheSizer reports how many compiled pipelines are cached.
// Satisfied by *pipelinecache.Cache.
type PipelineCacheSizer interface {
	Len() int
}

// LogQueueStats reports log sink occupancy and drops. Satisfied by
// *logsink.Sink.
type LogQueueStats interface {
	Depth() int
	Dropped() int64
}

// recognitionsTotal counts recognition outcomes served over HTTP, labeled
// by the recognizer that produced the final answer and the failure type
// (both empty-valued labels when not applicable).
var recognitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "intentd_recognitions_total",
	Help: "Recognition responses by final recognizer and failure type.",
}, []string{"final_recognizer", "failure_type"})

func init() {
	prometheus.MustRegister(recognitionsTotal)
}

// RegisterCollectors exposes pipeline-cache and log-queue state as gauges
// on the default Prometheus registry, which GET /metrics serves. Safe to
// call more than once; duplicate registrations are ignored.
func RegisterCollectors(pipes PipelineCacheSizer, sink LogQueueStats) {
	if pipes != nil {
		register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "intentd_pipeline_cache_size",
			Help: "Number of compiled pipelines currently cached.",
		}, func() float64 { return float64(pipes.Len()) }))
	}
	if sink != nil {
		register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "intentd_log_queue_depth",
			Help: "Current occupancy of the recognition log queue.",
		}, func() float64 { return float64(sink.Depth()) }))
		register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "intentd_log_entries_dropped_total",
			Help: "Log entries dropped because the queue was full.",
		}, func() float64 { return float64(sink.Dropped()) }))
	}
}

// register ignores AlreadyRegisteredError so repeated wiring (tests,
// restarts of the composition root) is harmless; metrics are best-effort.
func register(c prometheus.Collector) {
	_ = prometheus.Register(c)
}
