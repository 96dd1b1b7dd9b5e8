package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordChatQuery(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordChatQuery("remove")
	mc.RecordChatQuery("remove")
	mc.RecordChatQuery("help")

	counter := mc.metrics["chat_queries"].(*prometheus.CounterVec)
	assert.Equal(t, 2.0, testutil.ToFloat64(counter.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(counter.WithLabelValues("help")))
}

func TestRecordViewAndRows(t *testing.T) {
	mc := NewMetricsCollector()

	mc.RecordView("waste_ranking")
	mc.SetDatasetRows(42)

	views := mc.metrics["view_requests"].(*prometheus.CounterVec)
	assert.Equal(t, 1.0, testutil.ToFloat64(views.WithLabelValues("waste_ranking")))
	assert.Equal(t, 42.0, testutil.ToFloat64(mc.metrics["dataset_rows"]))
}

func TestHandlerExposesMetrics(t *testing.T) {
	mc := NewMetricsCollector()
	mc.RecordChatQuery("waste")
	mc.ObserveRequest("/api/v1/chat", 0.01)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	mc.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `menuopt_chat_queries_total{rule="waste"} 1`)
	assert.Contains(t, w.Body.String(), "menuopt_request_duration_seconds_bucket")
}

func TestCollectorsAreIsolated(t *testing.T) {
	a, b := NewMetricsCollector(), NewMetricsCollector()
	a.RecordChatQuery("help")

	counter := b.metrics["chat_queries"].(*prometheus.CounterVec)
	assert.Equal(t, 0.0, testutil.ToFloat64(counter.WithLabelValues("help")))
}
