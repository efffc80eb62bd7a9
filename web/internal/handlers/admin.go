package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/devilmonastery/procorepress/internal/assets"
	"github.com/devilmonastery/procorepress/internal/auth"
	"github.com/devilmonastery/procorepress/internal/pkg/logger"
	"github.com/devilmonastery/procorepress/internal/procore"
)

// TestConnection forces a token check and reports the outcome as JSON.
// A failed connection is still a 200; the result carries ok=false.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	result := procore.TestConnection(r.Context(), h.tokens)

	log := logger.WithDuration(h.requestLog(r), time.Since(start))
	if admin, err := auth.AdminFromContext(r.Context()); err == nil {
		log = log.With(slog.String("admin", admin.Subject))
	}
	if !result.OK {
		log.Warn("connection test failed", slog.String("message", result.Message))
	} else {
		log.Info("connection test succeeded")
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Stylesheet serves the installed stylesheet, or the built-in default
func (h *Handler) Stylesheet(w http.ResponseWriter, r *http.Request) {
	css, err := assets.LoadStylesheet(h.assetsRoot)
	if err != nil {
		h.log.Error("failed to load stylesheet", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(css)
}
