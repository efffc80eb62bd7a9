package metrics

import (
	"errors"
	"strconv"
	"time"
)

// kindedError is satisfied by errors that carry a classification string.
// procore.Error exposes its kind this way without this package importing it.
type kindedError interface {
	error
	KindName() string
}

// RecordTokenGrant records a token endpoint grant.
// grantType: "client_credentials" or "refresh_token"
func RecordTokenGrant(grantType string, err error) {
	TokenGrants.WithLabelValues(grantType, outcome(err)).Inc()
}

// RecordShortcodeRender records a shortcode render.
// A render that produced an error message (rather than content) counts as "error".
func RecordShortcodeRender(shortcode string, duration time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "error"
	}
	ShortcodeRenders.WithLabelValues(shortcode, status).Inc()
	ShortcodeDuration.WithLabelValues(shortcode).Observe(float64(duration.Milliseconds()))
}

// RecordHTTPRequest records an HTTP request served by the web host
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, path).Observe(float64(duration.Milliseconds()))
}

// RecordStoreOperation records a settings store load or save
func RecordStoreOperation(backend, operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(backend, operation, status).Inc()
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	var ke kindedError
	if errors.As(err, &ke) {
		return ke.KindName()
	}
	return "error"
}
