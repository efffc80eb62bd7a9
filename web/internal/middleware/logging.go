package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/procorepress/internal/pkg/idgen"
	"github.com/devilmonastery/procorepress/internal/pkg/metrics"
)

// RequestIDHeader carries the request ID back to the caller
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDFromContext returns the request ID assigned by LogRequest
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LogRequest logs HTTP requests in structured JSON format to stdout
func LogRequest(next http.Handler) http.Handler {
	return LogRequestTo(os.Stdout)(next)
}

// LogRequestTo returns request logging middleware writing JSON lines to out.
// Every request gets a snowflake request ID and is counted in the HTTP metrics.
func LogRequestTo(out io.Writer) func(http.Handler) http.Handler {
	logger := json.NewEncoder(out)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = idgen.RequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)
			r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

			metrics.HTTPActiveRequests.Inc()
			defer metrics.HTTPActiveRequests.Dec()

			start := time.Now()

			// Wrap response writer to capture status code
			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     200, // default if WriteHeader not called
			}

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			metrics.RecordHTTPRequest(r.Method, routeTemplate(r), wrapped.statusCode, duration)

			// Skip logging health checks and metric scrapes to reduce noise
			if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
				return
			}

			// Get real IP (consider X-Forwarded-For if behind proxy)
			clientIP := r.RemoteAddr
			if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
				clientIP = forwarded
			} else if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
				clientIP = realIP
			}

			logEntry := map[string]interface{}{
				"timestamp":   start.UTC().Format(time.RFC3339Nano),
				"request_id":  requestID,
				"method":      r.Method,
				"path":        r.URL.Path,
				"query":       r.URL.RawQuery,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"bytes":       wrapped.written,
				"client_ip":   clientIP,
				"user_agent":  r.UserAgent(),
				"proto":       r.Proto,
			}

			// Add error flag for failed requests
			if wrapped.statusCode >= 400 {
				logEntry["error"] = true
			}

			logger.Encode(logEntry)
		})
	}
}

// routeTemplate returns the matched mux route template so metric labels stay bounded
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
