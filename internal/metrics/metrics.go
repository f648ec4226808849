// Package metrics provides Prometheus metrics for AI Forge monitoring
// Exports HTTP, AI generation, workspace, archive, WebSocket and database metrics
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once     sync.Once
	instance *Metrics
)

// Metrics holds all Prometheus metric collectors for AI Forge
type Metrics struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	HTTPResponseSize     *prometheus.HistogramVec

	// AI Metrics
	AIRequestsTotal    *prometheus.CounterVec
	AIRequestDuration  *prometheus.HistogramVec
	AITokensUsed       *prometheus.CounterVec
	AIRequestsInFlight *prometheus.GaugeVec
	AIProviderHealth   *prometheus.GaugeVec

	// Pipeline Metrics
	StageDuration  *prometheus.HistogramVec
	RunsInFlight   prometheus.Gauge
	GeneratedFiles prometheus.Histogram

	// Workspace Metrics
	WorkspaceProvisionsTotal *prometheus.CounterVec
	WorkspaceFileWritesTotal *prometheus.CounterVec
	WorkspaceWriteDuration   *prometheus.HistogramVec

	// Archive Metrics
	ArchiveExportsTotal *prometheus.CounterVec
	ArchiveSize         prometheus.Histogram

	// WebSocket Metrics
	WebSocketConnectionsGauge *prometheus.GaugeVec
	WebSocketMessagesTotal    *prometheus.CounterVec

	// Database Metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBQueryDuration     *prometheus.HistogramVec
	DBErrorsTotal       *prometheus.CounterVec

	// System Metrics
	BuildInfo    *prometheus.GaugeVec
	StartupTime  prometheus.Gauge
	GoroutineNum prometheus.Gauge
}

// Get returns the singleton Metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

// newMetrics creates and registers all Prometheus metrics
func newMetrics() *Metrics {
	m := &Metrics{}

	// HTTP Metrics
	m.HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint, method, and status code",
		},
		[]string{"endpoint", "method", "status"},
	)

	m.HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint", "method"},
	)

	m.HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	m.HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"endpoint"},
	)

	// AI Metrics
	m.AIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "Total number of structured generation requests by provider, model, schema, and status",
		},
		[]string{"provider", "model", "schema", "status"},
	)

	m.AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "ai",
			Name:      "request_duration_seconds",
			Help:      "Structured generation request duration in seconds",
			Buckets:   []float64{.5, 1, 2, 3, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"provider", "model"},
	)

	m.AITokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "ai",
			Name:      "tokens_total",
			Help:      "Total number of AI tokens used by provider and type",
		},
		[]string{"provider", "model", "token_type"},
	)

	m.AIRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "ai",
			Name:      "requests_in_flight",
			Help:      "Current number of AI requests being processed",
		},
		[]string{"provider"},
	)

	m.AIProviderHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "ai",
			Name:      "provider_health",
			Help:      "AI provider health status (1 = healthy, 0 = unhealthy)",
		},
		[]string{"provider"},
	)

	// Pipeline Metrics
	m.StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds by stage and outcome",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"stage", "outcome"},
	)

	m.RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "pipeline",
			Name:      "runs_in_flight",
			Help:      "Current number of generation runs in progress",
		},
	)

	m.GeneratedFiles = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "pipeline",
			Name:      "generated_files",
			Help:      "Number of files produced per successful run",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Workspace Metrics
	m.WorkspaceProvisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "workspace",
			Name:      "provisions_total",
			Help:      "Total workspace provisioning attempts by provider and status",
		},
		[]string{"provider", "status"},
	)

	m.WorkspaceFileWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "workspace",
			Name:      "file_writes_total",
			Help:      "Total workspace file writes by provider and status",
		},
		[]string{"provider", "status"},
	)

	m.WorkspaceWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "workspace",
			Name:      "file_write_duration_seconds",
			Help:      "Workspace file write duration in seconds",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"provider"},
	)

	// Archive Metrics
	m.ArchiveExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "archive",
			Name:      "exports_total",
			Help:      "Total archive export requests by status",
		},
		[]string{"status"},
	)

	m.ArchiveSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "archive",
			Name:      "size_bytes",
			Help:      "Exported archive size in bytes",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	// WebSocket Metrics
	m.WebSocketConnectionsGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "websocket",
			Name:      "connections",
			Help:      "Current number of WebSocket connections by type",
		},
		[]string{"type"},
	)

	m.WebSocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "websocket",
			Name:      "messages_total",
			Help:      "Total WebSocket messages by type and direction",
		},
		[]string{"type", "direction"},
	)

	// Database Metrics
	m.DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "db",
			Name:      "connections_active",
			Help:      "Number of active database connections",
		},
	)

	m.DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Subsystem: "db",
			Name:      "connections_idle",
			Help:      "Number of idle database connections",
		},
	)

	m.DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "forge",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)

	m.DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "forge",
			Subsystem: "db",
			Name:      "errors_total",
			Help:      "Total number of database errors by operation",
		},
		[]string{"operation", "error_type"},
	)

	// System Metrics
	m.BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_date"},
	)

	m.StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Name:      "startup_time_seconds",
			Help:      "Unix timestamp of service startup",
		},
	)

	m.GoroutineNum = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "forge",
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// Set startup time
	m.StartupTime.Set(float64(time.Now().Unix()))

	return m
}

// RecordHTTPRequest records an HTTP request metric
func (m *Metrics) RecordHTTPRequest(endpoint, method string, statusCode int, duration time.Duration, responseSize int) {
	status := statusCodeToLabel(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(endpoint).Observe(float64(responseSize))
}

// RecordAIRequest records a structured generation request
func (m *Metrics) RecordAIRequest(provider, model, schema, status string, duration time.Duration, inputTokens, outputTokens int) {
	m.AIRequestsTotal.WithLabelValues(provider, model, schema, status).Inc()
	m.AIRequestDuration.WithLabelValues(provider, model).Observe(duration.Seconds())
	m.AITokensUsed.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	m.AITokensUsed.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
}

// SetAIProviderHealth sets the health status of an AI provider
func (m *Metrics) SetAIProviderHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.AIProviderHealth.WithLabelValues(provider).Set(value)
}

// RecordStage records the duration of one pipeline stage
func (m *Metrics) RecordStage(stage string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.StageDuration.WithLabelValues(stage, outcome).Observe(duration.Seconds())
}

// RecordWorkspaceProvision records a workspace provisioning attempt
func (m *Metrics) RecordWorkspaceProvision(provider string, err error) {
	m.WorkspaceProvisionsTotal.WithLabelValues(provider, errorStatus(err)).Inc()
}

// RecordWorkspaceWrite records a single file write
func (m *Metrics) RecordWorkspaceWrite(provider string, duration time.Duration, err error) {
	m.WorkspaceFileWritesTotal.WithLabelValues(provider, errorStatus(err)).Inc()
	m.WorkspaceWriteDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordArchiveExport records an archive export attempt
func (m *Metrics) RecordArchiveExport(size int, err error) {
	m.ArchiveExportsTotal.WithLabelValues(errorStatus(err)).Inc()
	if err == nil {
		m.ArchiveSize.Observe(float64(size))
	}
}

// RecordWebSocketConnection records a WebSocket connection change
func (m *Metrics) RecordWebSocketConnection(connType string, delta int) {
	m.WebSocketConnectionsGauge.WithLabelValues(connType).Add(float64(delta))
}

// RecordWebSocketMessage records a WebSocket message
func (m *Metrics) RecordWebSocketMessage(msgType, direction string) {
	m.WebSocketMessagesTotal.WithLabelValues(msgType, direction).Inc()
}

// RecordDBQuery records a database query
func (m *Metrics) RecordDBQuery(operation, table string, duration time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		m.DBErrorsTotal.WithLabelValues(operation, "query_error").Inc()
	}
}

// SetBuildInfo sets build information
func (m *Metrics) SetBuildInfo(version, commit, buildDate string) {
	m.BuildInfo.WithLabelValues(version, commit, buildDate).Set(1)
}

func errorStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// statusCodeToLabel converts HTTP status code to a label
func statusCodeToLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
