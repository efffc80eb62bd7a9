package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/devilmonastery/procorepress/internal/render"
)

// Shortcode renders one shortcode. Query parameters become its attributes:
//
//	GET /shortcodes/procore_project?id=123&company_id=456
//
// The procore_ prefix may be omitted from the name.
func (h *Handler) Shortcode(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !strings.HasPrefix(name, "procore_") {
		name = "procore_" + name
	}

	attrs := render.Attrs{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			attrs[strings.ToLower(key)] = values[0]
		}
	}

	html, ok := h.shortcodes.Render(r.Context(), name, attrs)
	if !ok {
		h.requestLog(r).Debug("unknown shortcode", slog.String("shortcode", name))
		http.Error(w, "Unknown shortcode", http.StatusNotFound)
		return
	}
	h.writeHTML(w, http.StatusOK, html)
}

// RenderContent expands every procore_* shortcode in the request body
func (h *Handler) RenderContent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Content too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Failed to read content", http.StatusBadRequest)
		return
	}

	h.writeHTML(w, http.StatusOK, h.shortcodes.Expand(r.Context(), string(body)))
}
