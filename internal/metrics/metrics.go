package metrics

import (
	"sync"
	"time"
)

// MetricsCollector provides a centralized way to collect and retrieve metrics
type MetricsCollector struct {
	mutex               sync.RWMutex
	counters            map[string]int64
	gauges              map[string]float64
	requestLatencies    map[string][]time.Duration
	requestCounts       map[string]int64
	operationCounts     map[string]int64
	operationLatencies  map[string][]time.Duration
	messageBusCounts    map[string]int64
	errorCounts         map[string]int64
	startTime           time.Time
	maxHistogramSamples int
}

// Counter metrics
const (
	CounterHTTPRequests        = "http_requests_total"
	CounterHTTPRequestsSuccess = "http_requests_success_total"
	CounterHTTPRequestsError   = "http_requests_error_total"
	CounterNotesCreated        = "delivery_notes_created_total"
	CounterNotesUpdated        = "delivery_notes_updated_total"
	CounterNotesDeleted        = "delivery_notes_deleted_total"
	CounterNotesPrinted        = "delivery_notes_printed_total"
	CounterOptimisticRollbacks = "optimistic_rollbacks_total"
	CounterReconciliations     = "po_reconciliations_total"
	CounterMessagesSent        = "messages_sent_total"
	CounterErrorsTotal         = "errors_total"
)

// Gauge metrics
const (
	GaugeCachedNotes  = "cached_notes"
	GaugeSystemMemory = "system_memory_bytes"
)

// Operation types for operation metrics
const (
	OperationTypeCreate    = "create"
	OperationTypeUpdate    = "update"
	OperationTypeDelete    = "delete"
	OperationTypePrint     = "print"
	OperationTypeReconcile = "reconcile"
	OperationTypeFailed    = "failed"
)

// Message bus operations
const (
	MessageBusOperationSend = "send"
)

// Error types
const (
	ErrorTypeHTTP       = "http"
	ErrorTypeValidation = "validation"
	ErrorTypeDatabase   = "database"
	ErrorTypeMessageBus = "message_bus"
	ErrorTypeInternal   = "internal"
)

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:            make(map[string]int64),
		gauges:              make(map[string]float64),
		requestLatencies:    make(map[string][]time.Duration),
		requestCounts:       make(map[string]int64),
		operationCounts:     make(map[string]int64),
		operationLatencies:  make(map[string][]time.Duration),
		messageBusCounts:    make(map[string]int64),
		errorCounts:         make(map[string]int64),
		startTime:           time.Now(),
		maxHistogramSamples: 1000,
	}
}

var (
	collector     *MetricsCollector
	collectorOnce sync.Once
)

// GetMetricsCollector returns the shared collector instance
func GetMetricsCollector() *MetricsCollector {
	collectorOnce.Do(func() {
		collector = NewMetricsCollector()
	})
	return collector
}

// IncrementCounter increments a counter by the given value
func (m *MetricsCollector) IncrementCounter(name string, value int64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[name] += value
}

// SetGauge sets a gauge to the given value
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gauges[name] = value
}

// RecordHTTPRequest records metrics for an HTTP request
func (m *MetricsCollector) RecordHTTPRequest(path string, statusCode int, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.counters[CounterHTTPRequests]++
	m.requestCounts[path]++

	latencies, ok := m.requestLatencies[path]
	if !ok {
		latencies = make([]time.Duration, 0, m.maxHistogramSamples)
	}
	if len(latencies) >= m.maxHistogramSamples {
		latencies = latencies[1:]
	}
	latencies = append(latencies, latency)
	m.requestLatencies[path] = latencies

	if statusCode >= 200 && statusCode < 400 {
		m.counters[CounterHTTPRequestsSuccess]++
	} else {
		m.counters[CounterHTTPRequestsError]++
		m.errorCounts[ErrorTypeHTTP]++
	}
}

// RecordOperation records metrics for a delivery note or PO operation
func (m *MetricsCollector) RecordOperation(operationType string, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.operationCounts[operationType]++

	switch operationType {
	case OperationTypeCreate:
		m.counters[CounterNotesCreated]++
	case OperationTypeUpdate:
		m.counters[CounterNotesUpdated]++
	case OperationTypeDelete:
		m.counters[CounterNotesDeleted]++
	case OperationTypePrint:
		m.counters[CounterNotesPrinted]++
	case OperationTypeReconcile:
		m.counters[CounterReconciliations]++
	case OperationTypeFailed:
		m.errorCounts[ErrorTypeInternal]++
	}

	latencies, ok := m.operationLatencies[operationType]
	if !ok {
		latencies = make([]time.Duration, 0, m.maxHistogramSamples)
	}
	if len(latencies) >= m.maxHistogramSamples {
		latencies = latencies[1:]
	}
	latencies = append(latencies, latency)
	m.operationLatencies[operationType] = latencies
}

// RecordRollback records an optimistic update rollback
func (m *MetricsCollector) RecordRollback() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.counters[CounterOptimisticRollbacks]++
}

// RecordMessageBusOperation records metrics for a message bus operation
func (m *MetricsCollector) RecordMessageBusOperation(operation string, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messageBusCounts[operation]++
	if operation == MessageBusOperationSend && success {
		m.counters[CounterMessagesSent]++
	}
	if !success {
		m.errorCounts[ErrorTypeMessageBus]++
	}
}

// RecordError records an error by type
func (m *MetricsCollector) RecordError(errorType string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errorCounts[errorType]++
	m.counters[CounterErrorsTotal]++
}

func averageLatencyMs(latencies []time.Duration) float64 {
	if len(latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, l := range latencies {
		total += l
	}
	return float64(total.Milliseconds()) / float64(len(latencies))
}

// GetMetrics returns a snapshot of all collected metrics
func (m *MetricsCollector) GetMetrics() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	counters := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		counters[k] = v
	}

	gauges := make(map[string]float64, len(m.gauges))
	for k, v := range m.gauges {
		gauges[k] = v
	}

	requests := make(map[string]interface{}, len(m.requestCounts))
	for path, count := range m.requestCounts {
		requests[path] = map[string]interface{}{
			"count":           count,
			"avg_latency_ms":  averageLatencyMs(m.requestLatencies[path]),
		}
	}

	operations := make(map[string]interface{}, len(m.operationCounts))
	for op, count := range m.operationCounts {
		operations[op] = map[string]interface{}{
			"count":          count,
			"avg_latency_ms": averageLatencyMs(m.operationLatencies[op]),
		}
	}

	errors := make(map[string]int64, len(m.errorCounts))
	for k, v := range m.errorCounts {
		errors[k] = v
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(m.startTime).Seconds(),
		"counters":       counters,
		"gauges":         gauges,
		"requests":       requests,
		"operations":     operations,
		"message_bus":    m.messageBusCounts,
		"errors":         errors,
	}
}

// GetHealthStatus returns a coarse health summary derived from error rates
func (m *MetricsCollector) GetHealthStatus() map[string]interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	total := m.counters[CounterHTTPRequests]
	failed := m.counters[CounterHTTPRequestsError]

	healthy := true
	if total > 100 && failed*2 > total {
		healthy = false
	}

	return map[string]interface{}{
		"status": map[string]interface{}{
			"healthy": healthy,
		},
		"uptime_seconds": time.Since(m.startTime).Seconds(),
		"requests_total": total,
		"requests_error": failed,
	}
}
