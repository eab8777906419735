package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// imports and bulk actions. A nil *MetricsService is a valid no-op.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	importsAnalyzed    prometheus.Counter
	importRows         *prometheus.CounterVec
	departmentsCreated prometheus.Counter
	bulkActions        *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	importsAnalyzed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "imports_analyzed_total",
		Help: "Total number of import files analyzed",
	})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Import rows processed by outcome",
	}, []string{"outcome"})

	departmentsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "import_departments_created_total",
		Help: "Departments created by imports",
	})

	bulkActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_actions_total",
		Help: "Bulk actions by type and outcome",
	}, []string{"type", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, importsAnalyzed, importRows, departmentsCreated, bulkActions, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		importsAnalyzed:    importsAnalyzed,
		importRows:         importRows,
		departmentsCreated: departmentsCreated,
		bulkActions:        bulkActions,
	}
}

// Registry exposes the underlying registry for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordImportAnalyzed counts one analyzed file.
func (m *MetricsService) RecordImportAnalyzed() {
	if m == nil {
		return
	}
	m.importsAnalyzed.Inc()
}

// RecordImportResult adds executed row outcomes.
func (m *MetricsService) RecordImportResult(result *models.ImportResult) {
	if m == nil || result == nil {
		return
	}
	m.importRows.WithLabelValues("created").Add(float64(result.SuccessCount))
	m.importRows.WithLabelValues("updated").Add(float64(result.UpdateCount))
	m.importRows.WithLabelValues("failed").Add(float64(len(result.FailedRows)))
	m.departmentsCreated.Add(float64(result.DepartmentsCreated))
}

// RecordBulkAction counts a bulk action per outcome label.
func (m *MetricsService) RecordBulkAction(actionType models.BulkActionType, outcome string) {
	if m == nil {
		return
	}
	m.bulkActions.WithLabelValues(string(actionType), outcome).Inc()
}
