package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi/middleware"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterConfig struct {
	Feeds          *FeedHandler
	Items          *ItemHandler
	Comments       *CommentHandler
	Accounts       *AccountHandler
	Auth           domain.AuthService
	Metrics        *metrics.MetricsManager
	Logger         *logger.Logger
	AllowedOrigins []string
	Checks         map[string]HealthCheck
}

// NewRouter mounts every route and wraps the mux with CORS and tracing.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(middleware.Logger(cfg.Logger))
	mux.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		mux.Use(middleware.Metrics(cfg.Metrics))
		mux.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}
	mux.Get("/healthz", healthHandler(cfg.Checks, cfg.Logger))

	requireAuth := middleware.JWTAuth(cfg.Auth, cfg.Logger)

	mux.Route("/posts", func(r chi.Router) {
		r.Get("/search", cfg.Feeds.HandleSearch)
		r.Get("/explore", cfg.Feeds.HandleExplore)
		r.Get("/{id}", cfg.Items.HandleGet)
		r.Get("/{id}/comments", cfg.Comments.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/following", cfg.Feeds.HandleFollowing)
			r.Get("/user", cfg.Feeds.HandleOwnPosts)
			r.Post("/", cfg.Items.HandleCreate)
			r.Post("/{id}/comments", cfg.Comments.HandleCreate)
		})
	})

	mux.Route("/account", func(r chi.Router) {
		r.Post("/register", cfg.Accounts.HandleRegister)
		r.Post("/login", cfg.Accounts.HandleLogin)
		r.Get("/search", cfg.Accounts.HandleSearch)
		r.Get("/{id}", cfg.Accounts.HandleProfile)
		r.Get("/{id}/posts", cfg.Feeds.HandleAccountPosts)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/{id}/follow", cfg.Accounts.HandleFollow)
			r.Delete("/{id}/follow", cfg.Accounts.HandleUnfollow)
		})
	})

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, cfg.Logger, http.StatusNotFound, ErrorResponse{Message: "route not found"})
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return otelhttp.NewHandler(c.Handler(mux), "merchsy-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func healthHandler(checks map[string]HealthCheck, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				log.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "up"
		}
		writeJSON(w, log, status, map[string]any{"status": http.StatusText(status), "dependencies": report})
	}
}
