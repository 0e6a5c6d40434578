package middleware

import "net/http"

type SecurityHeaders struct {
	isProd bool
}

func NewSecurityHeaders(isProd bool) *SecurityHeaders {
	return &SecurityHeaders{isProd: isProd}
}

func (s *SecurityHeaders) Middleware() Middleware {
	// JSON API: nothing should ever render or be framed
	const csp = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Security-Policy", csp)

			// HSTS
			if s.isProd {
				w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}

			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
