package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/procore"
	"github.com/devilmonastery/procorepress/internal/render"
	"github.com/devilmonastery/procorepress/web/internal/middleware"
)

// maxContentBytes caps the body accepted by POST /render
const maxContentBytes = 1 << 20

// Handler holds dependencies for all web handlers
type Handler struct {
	shortcodes *render.Registry
	tokens     procore.TokenProvider
	assetsRoot string
	log        *slog.Logger
}

// New creates a new handler with dependencies
func New(shortcodes *render.Registry, tokens procore.TokenProvider, assetsRoot string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		shortcodes: shortcodes,
		tokens:     tokens,
		assetsRoot: assetsRoot,
		log:        log.With(slog.String("component", "web_handler")),
	}
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// requestLog returns the handler logger tagged with the request's method, path and ID
func (h *Handler) requestLog(r *http.Request) *slog.Logger {
	log := logger.WithHTTPRequest(h.log, r.Method, r.URL.Path)
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		log = logger.WithRequest(log, id)
	}
	return log
}

// writeHTML writes an HTML fragment
func (h *Handler) writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(html)); err != nil {
		h.log.Debug("failed to write response", slog.String("error", err.Error()))
	}
}

// writeJSON writes v as a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}
