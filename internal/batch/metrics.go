package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the Prometheus gauges instrumenting queue saturation and
// worker utilization. A fresh instance is created per Executor so tests can
// inject a private prometheus.Registry, mirroring the server's metrics.
type metrics struct {
	queueDepth  prometheus.Gauge
	workersBusy prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vdex",
			Subsystem: "batch",
			Name:      "queue_depth",
			Help:      "Number of batch embedding jobs currently queued.",
		}),
		workersBusy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "vdex",
			Subsystem: "batch",
			Name:      "workers_busy",
			Help:      "Number of batch executor worker goroutines currently processing a job.",
		}),
	}
}
