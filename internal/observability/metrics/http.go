package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	recommendationsTotal *prometheus.CounterVec
	recommendationSize   *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reco",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "reco",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	recommendationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reco",
			Subsystem: "ranker",
			Name:      "recommendations_total",
			Help:      "Recommendation requests by outcome status.",
		},
		[]string{"service", "status"},
	)
	recommendationSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reco",
			Subsystem: "ranker",
			Name:      "recommendation_candidates",
			Help:      "Matched candidate counts per recommendation request.",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 60},
		},
		[]string{"service"},
	)

	registry.MustRegister(requestTotal, requestDuration, requestInFlight, recommendationsTotal, recommendationSize)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		recommendationsTotal: recommendationsTotal,
		recommendationSize:   recommendationSize,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) ObserveRequest(service, method, path string, status int, duration time.Duration) {
	m.requestTotal.WithLabelValues(service, method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(service, method, path).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) StartRequest()  { m.requestInFlight.Inc() }
func (m *HTTPServerMetrics) FinishRequest() { m.requestInFlight.Dec() }

func (m *HTTPServerMetrics) ObserveRecommendation(service, status string, matched int) {
	m.recommendationsTotal.WithLabelValues(service, status).Inc()
	m.recommendationSize.WithLabelValues(service).Observe(float64(matched))
}
