package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector owns the prometheus registry for the assistant
type MetricsCollector struct {
	registry *prometheus.Registry
	metrics  map[string]prometheus.Collector
}

// NewMetricsCollector creates and registers all collectors
func NewMetricsCollector() *MetricsCollector {
	registry := prometheus.NewRegistry()

	chatQueries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuopt_chat_queries_total",
			Help: "Chat questions answered, by dispatch rule",
		},
		[]string{"rule"},
	)

	viewRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "menuopt_view_requests_total",
			Help: "Menu view computations, by view",
		},
		[]string{"view"},
	)

	datasetRows := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "menuopt_dataset_rows",
			Help: "Dishes in the loaded menu",
		},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "menuopt_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	metrics := map[string]prometheus.Collector{
		"chat_queries":     chatQueries,
		"view_requests":    viewRequests,
		"dataset_rows":     datasetRows,
		"request_duration": requestDuration,
	}

	for _, metric := range metrics {
		registry.MustRegister(metric)
	}

	return &MetricsCollector{
		registry: registry,
		metrics:  metrics,
	}
}

// RecordChatQuery counts an answered question
func (mc *MetricsCollector) RecordChatQuery(rule string) {
	if counter, ok := mc.metrics["chat_queries"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(rule).Inc()
	}
}

// RecordView counts a computed view
func (mc *MetricsCollector) RecordView(view string) {
	if counter, ok := mc.metrics["view_requests"].(*prometheus.CounterVec); ok {
		counter.WithLabelValues(view).Inc()
	}
}

// SetDatasetRows records the size of the loaded menu
func (mc *MetricsCollector) SetDatasetRows(n int) {
	if gauge, ok := mc.metrics["dataset_rows"].(prometheus.Gauge); ok {
		gauge.Set(float64(n))
	}
}

// ObserveRequest records how long a route took
func (mc *MetricsCollector) ObserveRequest(route string, seconds float64) {
	if histogram, ok := mc.metrics["request_duration"].(*prometheus.HistogramVec); ok {
		histogram.WithLabelValues(route).Observe(seconds)
	}
}

// Registry exposes the underlying registry
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the registry in the prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
