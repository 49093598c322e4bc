package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/stats-dashboard/internal/route"
)

// RouterConfig holds the cross-cutting settings for NewRouter.
type RouterConfig struct {
	CORSOrigins []string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

// NewRouter mounts pages, the JSON API and live sessions. live may be nil.
func NewRouter(h *Handler, live *LiveHandler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler)
	}

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if live != nil {
		r.Get("/ws", live.HandleWebSocket)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/health", h.HealthCheck)
		r.Get("/metrics", h.Metrics)
		r.Get("/charts/player", h.PlayerChart)

		// API v1
		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/options", h.GetOptions)
			r.Get("/overall", h.GetOverall)
			r.Get("/player", h.GetPlayer)
			r.Get("/route", h.ResolveRoute)
		})

		// Pages
		r.Get(route.RootPath, h.Page)
		r.Get(route.OverallPath, h.Page)
		r.Get(route.PlayerPrefix+"*", h.Page)
	})
	r.NotFound(h.Page)

	return r
}
