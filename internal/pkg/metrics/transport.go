package metrics

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// apiMetricsTransport wraps an http.RoundTripper to collect metrics on Procore API calls
type apiMetricsTransport struct {
	base http.RoundTripper
}

// NewAPITransport creates a transport wrapper that records call counts, latency,
// and errors for every request it carries.
func NewAPITransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if _, ok := base.(*apiMetricsTransport); ok {
		return base
	}
	return &apiMetricsTransport{base: base}
}

// RoundTrip implements http.RoundTripper
func (t *apiMetricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start)

	route := NormalizeRoute(req.URL.Path)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}

	APICalls.WithLabelValues(req.Method, route, strconv.Itoa(statusCode)).Inc()
	APIDuration.WithLabelValues(req.Method, route).Observe(float64(duration.Milliseconds()))

	if err != nil || statusCode >= 400 {
		APIErrors.WithLabelValues(route, classifyAPIError(statusCode, err)).Inc()
	}

	return resp, err
}

var routePatterns = []struct {
	regex   *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`/projects/[^/]+`), "/projects/:id"},
	{regexp.MustCompile(`/companies/[^/]+`), "/companies/:id"},
	{regexp.MustCompile(`/users/\d+`), "/users/:id"},
	{regexp.MustCompile(`/drawing_areas/\d+`), "/drawing_areas/:id"},
	{regexp.MustCompile(`/specification_sections/\d+`), "/specification_sections/:id"},
}

// NormalizeRoute replaces IDs in API paths with placeholders to keep label cardinality low
func NormalizeRoute(path string) string {
	normalized := path
	for _, p := range routePatterns {
		normalized = p.regex.ReplaceAllString(normalized, p.replace)
	}
	return normalized
}

// classifyAPIError categorizes API errors for metrics
func classifyAPIError(statusCode int, err error) string {
	if err != nil {
		errStr := err.Error()
		switch {
		case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
			return "timeout"
		case strings.Contains(errStr, "connection"):
			return "connection"
		case strings.Contains(errStr, "tls") || strings.Contains(errStr, "TLS"):
			return "tls"
		default:
			return "network"
		}
	}

	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 500:
		return "server_error"
	case statusCode >= 400:
		return "client_error"
	default:
		return "unknown"
	}
}
