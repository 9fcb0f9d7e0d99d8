package api

import (
	"net/http"
	"time"

	"github.com/AchAffand/SuratJalan-sub001/internal/metrics"
)

// MetricsMiddleware adds metrics collection to HTTP requests
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		collector := metrics.GetMetricsCollector()
		collector.RecordHTTPRequest(r.URL.Path, wrapper.statusCode, time.Since(start))
	})
}
