package middleware

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// session key holding the authenticated user's id
const SessionKeyUserID = "userID"

type Sessions struct {
	Manager *scs.SessionManager
}

func NewSessionManager(ttl time.Duration, secure bool, db *sql.DB) *Sessions {
	sm := scs.New()

	sm.Lifetime = ttl
	sm.Store = sqlite3store.New(db) // original raw *sql.DB

	sm.Cookie.Name = "session_id"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	sm.Cookie.Persist = true

	return &Sessions{Manager: sm}
}

// UserID resolves the caller's identity from the session, 0 when anonymous.
func (s *Sessions) UserID(r *http.Request) int64 {
	return s.Manager.GetInt64(r.Context(), SessionKeyUserID)
}

func (s *Sessions) Middleware(logger *slog.Logger, tracer trace.Tracer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware.Session")
			defer span.End()

			// tag span with cookie name
			span.SetAttributes(attribute.String("session.cookie", s.Manager.Cookie.Name))

			s.Manager.LoadAndSave(next).ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
