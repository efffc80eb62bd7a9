package cli

import (
	"log/slog"
	"net/http"
	"time"
)

// debugTransport logs every outbound request at debug level.
// Query strings are logged; headers are not, so bearer tokens never reach the log.
type debugTransport struct {
	base http.RoundTripper
	log  *slog.Logger
}

func newDebugTransport(base http.RoundTripper, log *slog.Logger) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if log == nil {
		log = slog.Default()
	}
	return &debugTransport{base: base, log: log}
}

// RoundTrip implements http.RoundTripper
func (t *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)

	attrs := []any{
		slog.String("method", req.Method),
		slog.String("url", redactURL(req)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	}
	if err != nil {
		t.log.Debug("http request failed", append(attrs, slog.String("error", err.Error()))...)
		return nil, err
	}
	t.log.Debug("http request", append(attrs, slog.Int("status", resp.StatusCode))...)
	return resp, nil
}

// redactURL drops userinfo from the URL
func redactURL(req *http.Request) string {
	u := *req.URL
	u.User = nil
	return u.String()
}
