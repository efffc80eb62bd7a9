package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devilmonastery/procorepress/internal/auth"
)

// AdminAuth guards admin routes with HS256 bearer tokens
type AdminAuth struct {
	jwt *auth.JWTManager
	log *slog.Logger
}

// NewAdminAuth creates the admin middleware. A nil manager disables admin routes.
func NewAdminAuth(jwt *auth.JWTManager, logger *slog.Logger) *AdminAuth {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAuth{
		jwt: jwt,
		log: logger.With(slog.String("component", "admin_auth")),
	}
}

// RequireAdmin rejects requests without a valid admin bearer token
func (m *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.jwt == nil {
			writeAuthError(w, http.StatusForbidden, "admin access is not configured")
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="procorepress"`)
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			m.log.Info("rejected admin token",
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()))
			w.Header().Set("WWW-Authenticate", `Bearer realm="procorepress", error="invalid_token"`)
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		ctx := auth.SetAdminInContext(r.Context(), &auth.Admin{
			Subject: claims.Subject,
			TokenID: claims.TokenID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
