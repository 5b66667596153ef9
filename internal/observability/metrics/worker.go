package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	embedTotal    *prometheus.CounterVec
	embedDuration *prometheus.HistogramVec
	embedInFlight prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	embedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reco",
			Subsystem: "worker",
			Name:      "embed_total",
			Help:      "Total embedding jobs by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	embedDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reco",
			Subsystem: "worker",
			Name:      "embed_duration_seconds",
			Help:      "Embedding job duration in seconds by kind.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind", "status"},
	)
	embedInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reco",
			Subsystem: "worker",
			Name:      "embed_in_flight",
			Help:      "Number of in-flight embedding jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(embedTotal, embedDuration, embedInFlight)

	return &WorkerMetrics{
		registry:      registry,
		embedTotal:    embedTotal,
		embedDuration: embedDuration,
		embedInFlight: embedInFlight,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.embedInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service, kind string, duration time.Duration, err error) {
	m.embedInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.embedTotal.WithLabelValues(service, kind, status).Inc()
	m.embedDuration.WithLabelValues(service, kind, status).Observe(duration.Seconds())
}
