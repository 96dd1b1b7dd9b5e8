package monitoring

import (
	"sync"
	"time"
)

// Monitor keeps a small set of process statistics for the stats endpoint
type Monitor struct {
	metrics      map[string]interface{}
	counters     map[string]int64
	metricsMutex sync.RWMutex
	startTime    time.Time
}

// NewMonitor creates a new monitoring instance
func NewMonitor() *Monitor {
	return &Monitor{
		metrics:   make(map[string]interface{}),
		counters:  make(map[string]int64),
		startTime: time.Now(),
	}
}

// RecordMetric records a metric value
func (m *Monitor) RecordMetric(name string, value interface{}) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics[name] = value
}

// Increment adds one to a named counter
func (m *Monitor) Increment(name string) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.counters[name]++
}

// GetMetrics returns all current metrics
func (m *Monitor) GetMetrics() map[string]interface{} {
	m.metricsMutex.RLock()
	defer m.metricsMutex.RUnlock()

	metrics := make(map[string]interface{}, len(m.metrics)+len(m.counters)+1)
	for k, v := range m.metrics {
		metrics[k] = v
	}
	for k, v := range m.counters {
		metrics[k] = v
	}
	metrics["uptime_seconds"] = time.Since(m.startTime).Seconds()

	return metrics
}

// RecordDatasetLoad records what the loader produced
func (m *Monitor) RecordDatasetLoad(source string, rows int) {
	m.metricsMutex.Lock()
	defer m.metricsMutex.Unlock()
	m.metrics["dataset_source"] = source
	m.metrics["dataset_rows"] = rows
	m.metrics["dataset_loaded_at"] = time.Now().Format(time.RFC3339)
}
