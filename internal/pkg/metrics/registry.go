package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Procore API Metrics
var (
	// APICalls tracks REST and token endpoint calls, recorded by NewAPITransport
	APICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_api_calls_total",
			Help: "Total Procore API calls by method, route (normalized path), and status code",
		},
		[]string{"method", "route", "status_code"},
	)

	// APIDuration tracks Procore API latency
	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "procorepress_api_call_duration_ms",
			Help:                            "Procore API call duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "route"},
	)

	// APIErrors tracks Procore API errors by type
	APIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_api_errors_total",
			Help: "Total Procore API errors by route and error type",
		},
		[]string{"route", "error_type"},
	)
)

// Token Lifecycle Metrics
var (
	// TokenGrants tracks token endpoint grants by grant type and outcome
	TokenGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_token_grants_total",
			Help: "Total OAuth token grants by grant type and outcome",
		},
		[]string{"grant_type", "outcome"},
	)
)

// Rendering Metrics
var (
	// ShortcodeRenders tracks shortcode renders
	ShortcodeRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_shortcode_renders_total",
			Help: "Total shortcode renders by shortcode name and status",
		},
		[]string{"shortcode", "status"},
	)

	// ShortcodeDuration tracks shortcode render latency, including the remote fetch
	ShortcodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "procorepress_shortcode_render_duration_ms",
			Help:                            "Shortcode render duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"shortcode"},
	)
)

// HTTP/Web Handler Metrics
var (
	// HTTPRequests tracks HTTP requests
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_http_requests_total",
			Help: "Total HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPDuration tracks HTTP request duration
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:                            "procorepress_http_request_duration_ms",
			Help:                            "HTTP request duration in milliseconds",
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 1 * time.Hour,
		},
		[]string{"method", "path"},
	)

	// HTTPActiveRequests tracks active HTTP requests
	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "procorepress_http_active_requests",
			Help: "Number of active HTTP requests",
		},
	)
)

// Settings Store Metrics
var (
	// StoreOperations tracks settings store operations
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "procorepress_settings_store_operations_total",
			Help: "Total settings store operations by backend, operation, and status",
		},
		[]string{"backend", "operation", "status"},
	)
)
