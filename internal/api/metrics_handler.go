package api

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
)

// MetricsHandler handles requests to get metrics
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	collector.SetGauge(metrics.GaugeSystemMemory, float64(memStats.Alloc))

	metricData := collector.GetMetrics()
	metricData["runtime"] = map[string]interface{}{
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc_bytes":       memStats.Alloc,
			"total_alloc_bytes": memStats.TotalAlloc,
			"sys_bytes":         memStats.Sys,
			"heap_objects":      memStats.HeapObjects,
			"gc_cycles":         memStats.NumGC,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metricData); err != nil {
		logrus.WithError(err).Error("Failed to encode metrics response")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HealthHandler handles health check requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	collector := metrics.GetMetricsCollector()
	health := collector.GetHealthStatus()

	statusCode := http.StatusOK
	if healthStatus, ok := health["status"].(map[string]interface{}); ok {
		if healthy, ok := healthStatus["healthy"].(bool); ok && !healthy {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logrus.WithError(err).Error("Failed to encode health response")
	}
}
