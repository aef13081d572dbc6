package prometheus

import (
	"time"

	"hms-service/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthSuccessCounter  prometheus.Counter
	AuthErrorsCounter   *prometheus.CounterVec

	// Permission metrics
	PermissionDeniedCounter *prometheus.CounterVec

	// Tenant store metrics
	TenantStoresGauge         prometheus.Gauge
	TenantProvisionCounter    *prometheus.CounterVec
	TenantProvisionDuration   prometheus.Histogram
	TenantContextMissingTotal prometheus.Counter

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Domain operation metrics
	ResourceOperationsCounter *prometheus.CounterVec
)

// InitMetrics initializes Prometheus metrics with configuration
func InitMetrics(config *config.Config) {
	prefix := config.Metrics.Prefix

	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"outcome"},
	)

	AuthSuccessCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_auth_success_total",
			Help: "Total number of successful authentications",
		},
	)

	AuthErrorsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"reason"},
	)

	PermissionDeniedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_permission_denied_total",
			Help: "Total number of requests denied by permission checks",
		},
		[]string{"resource", "action"},
	)

	TenantStoresGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_tenant_stores",
			Help: "Number of tenant database stores currently registered",
		},
	)

	TenantProvisionCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_provision_total",
			Help: "Total number of tenant store provisioning attempts",
		},
		[]string{"outcome"},
	)

	TenantProvisionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    prefix + "_tenant_provision_duration_seconds",
			Help:    "Duration of tenant store provisioning in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TenantContextMissingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_context_missing_total",
			Help: "Total number of requests without tenant context",
		},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	ResourceOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_operations_total",
			Help: "Total number of resource operations",
		},
		[]string{"resource", "operation"},
	)
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		duration := time.Since(startTime).Seconds()
		DbOperationDuration.WithLabelValues(operationType).Observe(duration)
	}
}

// RecordAuthAttempt increments the authentication attempt counter
func RecordAuthAttempt(outcome string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordAuthSuccess increments the successful authentication counter
func RecordAuthSuccess() {
	if AuthSuccessCounter != nil {
		AuthSuccessCounter.Inc()
	}
}

// RecordAuthError increments the authentication error counter for a reason
func RecordAuthError(reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(reason).Inc()
	}
}

// RecordPermissionDenied increments the permission denial counter
func RecordPermissionDenied(resource, action string) {
	if PermissionDeniedCounter != nil {
		PermissionDeniedCounter.WithLabelValues(resource, action).Inc()
	}
}

// RecordTenantProvision records a tenant store provisioning attempt
func RecordTenantProvision(outcome string, duration time.Duration) {
	if TenantProvisionCounter != nil {
		TenantProvisionCounter.WithLabelValues(outcome).Inc()
	}
	if TenantProvisionDuration != nil {
		TenantProvisionDuration.Observe(duration.Seconds())
	}
}

// UpdateTenantStores updates the registered tenant store gauge
func UpdateTenantStores(count int) {
	if TenantStoresGauge != nil {
		TenantStoresGauge.Set(float64(count))
	}
}

// RecordTenantContextMissing increments the missing tenant context counter
func RecordTenantContextMissing() {
	if TenantContextMissingTotal != nil {
		TenantContextMissingTotal.Inc()
	}
}

// RecordResourceOperation increments the counter for resource operations
func RecordResourceOperation(resource, operation string) {
	if ResourceOperationsCounter != nil {
		ResourceOperationsCounter.WithLabelValues(resource, operation).Inc()
	}
}

// RecordHTTPRequest records a completed HTTP request
func RecordHTTPRequest(method, path, status string, duration float64) {
	if HttpRequestsTotal != nil {
		HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
	}
	if HttpRequestDuration != nil {
		HttpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
	}
}
