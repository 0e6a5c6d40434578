package router

import (
	"log/slog"
	"net/http"
	"time"

	"snapfeed/internal/config"
	"snapfeed/internal/handlers"
	"snapfeed/internal/middleware"
	"snapfeed/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	API     *handlers.APIHandler
	Tracer  trace.Tracer
	Metrics *telemetry.Metrics
	Session *middleware.Sessions
	CSRF    *middleware.CSRF
	Headers *middleware.SecurityHeaders

	// PromHandler is nil when telemetry is disabled
	PromHandler http.Handler
}

func NewRouter(deps RouterDependencies) http.Handler {
	// routing
	appMux := http.NewServeMux()

	// locally stored media, only mounted for the local blob backend
	if deps.Cfg.Storage.Backend == "local" {
		fs := http.FileServer(http.Dir(deps.Cfg.Storage.LocalDir))
		appMux.Handle("GET /media/", http.StripPrefix("/media/", fs))
	}

	authDelay := 500 * time.Millisecond
	authStack := func(h http.Handler) http.Handler {
		return middleware.SecureDelay(authDelay, deps.Metrics)(h)
	}

	// identity
	appMux.Handle("POST /api/register", authStack(deps.API.HandleRegister()))
	appMux.Handle("POST /api/login", authStack(deps.API.HandleLogin()))
	appMux.Handle("POST /api/logout", authStack(deps.API.HandleLogout()))
	appMux.Handle("GET /api/csrf", deps.API.HandleCSRFToken())

	// posts + feed
	appMux.Handle("POST /api/posts", deps.API.HandleCreatePost())
	appMux.Handle("GET /api/feed", deps.API.HandleFeed())
	appMux.Handle("DELETE /api/posts/{id}", deps.API.HandleDeletePost())

	appMux.HandleFunc("/", deps.API.NotFound)

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.Headers.Middleware(),
		deps.Session.Middleware(deps.Logger, deps.Tracer),
		deps.CSRF.Middleware(deps.Logger),
		middleware.Logger(deps.Logger, deps.Cfg.Proxy.Trusted), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	rootMux.Handle("GET /stats", deps.API.HandleStats())

	if deps.PromHandler != nil {
		rootMux.Handle("GET /metrics", deps.PromHandler)
	}

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux.Handle("/", appHandler)

	return rootMux
}
