package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
)

type CSRF struct {
	isProd bool
}

func NewCSRF(isProd bool) *CSRF {
	return &CSRF{isProd: isProd}
}

// Middleware wraps the API in nosurf. Clients fetch a token from GET
// /api/csrf and send it back in the X-CSRF-Token header on writes.
func (c *CSRF) Middleware(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		csrfHandler := nosurf.New(next)

		csrfHandler.SetBaseCookie(http.Cookie{
			HttpOnly: true,
			Path:     "/",
			Secure:   c.isProd,
			SameSite: http.SameSiteLaxMode,
		})

		csrfHandler.SetFailureHandler(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				logger.Warn("CSRF validation failed", "path", r.URL.Path, "ip", r.RemoteAddr)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{
					"error":   "InvalidCSRFToken",
					"message": "invalid CSRF token",
				})
			}))

		return csrfHandler
	}
}
