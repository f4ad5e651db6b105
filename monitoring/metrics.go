// Package monitoring exposes Prometheus metrics for the prediction service.
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns a private registry so tests and multiple servers
// do not collide on global registration.
type MetricsCollector struct {
	registry *prometheus.Registry

	predictions        *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	predictionErrors   *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	wsConnections      prometheus.Gauge
	modelsLoaded       prometheus.Gauge

	startTime time.Time
}

// NewMetricsCollector registers all collectors, including the Go runtime
// and process collectors, on a fresh registry.
func NewMetricsCollector() *MetricsCollector {
	reg := prometheus.NewRegistry()
	mc := &MetricsCollector{
		registry: reg,
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "predictions_total",
				Help: "Predictions served by model and predicted label",
			},
			[]string{"model", "label"},
		),
		predictionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "prediction_duration_seconds",
				Help: "Preprocess plus dispatch latency",
				// In-memory models answer in micro to milliseconds.
				Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"model"},
		),
		predictionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prediction_errors_total",
				Help: "Rejected or failed predictions by reason",
			},
			[]string{"reason"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prediction_cache_lookups_total",
				Help: "Prediction cache lookups by result",
			},
			[]string{"result"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Open prediction websocket connections",
		}),
		modelsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "models_loaded",
			Help: "Classifiers available in the registry",
		}),
		startTime: time.Now(),
	}

	reg.MustRegister(
		mc.predictions,
		mc.predictionDuration,
		mc.predictionErrors,
		mc.cacheLookups,
		mc.httpRequests,
		mc.httpDuration,
		mc.wsConnections,
		mc.modelsLoaded,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return mc
}

// RecordPrediction counts a served prediction. Cached answers still count
// as predictions but skip the latency histogram.
func (mc *MetricsCollector) RecordPrediction(model string, label int, cached bool, d time.Duration) {
	mc.predictions.WithLabelValues(model, strconv.Itoa(label)).Inc()
	if cached {
		mc.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	mc.cacheLookups.WithLabelValues("miss").Inc()
	mc.predictionDuration.WithLabelValues(model).Observe(d.Seconds())
}

// RecordPredictionError counts a rejected or failed prediction.
func (mc *MetricsCollector) RecordPredictionError(reason string) {
	mc.predictionErrors.WithLabelValues(reason).Inc()
}

// RecordRequest counts one HTTP request and observes its latency.
func (mc *MetricsCollector) RecordRequest(method, route string, status int, d time.Duration) {
	mc.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	mc.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// WebSocketOpened increments the open connection gauge.
func (mc *MetricsCollector) WebSocketOpened() {
	mc.wsConnections.Inc()
}

// WebSocketClosed decrements the open connection gauge.
func (mc *MetricsCollector) WebSocketClosed() {
	mc.wsConnections.Dec()
}

// SetModelsLoaded records how many classifiers the registry holds.
func (mc *MetricsCollector) SetModelsLoaded(n int) {
	mc.modelsLoaded.Set(float64(n))
}

// GetUptime returns the time since the collector was created.
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// Handler serves the Prometheus exposition format.
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// Registry is exposed for tests.
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}
