package rpc

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "chainsnapd"

// serverMetrics are registered on a registry owned by the server so that
// several servers may live in one process.
type serverMetrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newServerMetrics(extraCollectors []prometheus.Collector) (*serverMetrics, error) {
	metrics := &serverMetrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rpc",
			Name:      "requests_total",
			Help:      "Number of RPC requests by method and result",
		}, []string{"method", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "rpc",
			Name:      "request_duration_seconds",
			Help:      "Duration of RPC requests by method",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"method"}),
	}

	toRegister := []prometheus.Collector{
		metrics.requests,
		metrics.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	toRegister = append(toRegister, extraCollectors...)
	for _, collector := range toRegister {
		err := metrics.registry.Register(collector)
		if err != nil {
			return nil, err
		}
	}
	return metrics, nil
}

func (m *serverMetrics) observe(method string, start time.Time, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	m.requests.WithLabelValues(method, result).Inc()
	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
