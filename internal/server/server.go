package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/newsroom/internal/api/v1"
	"github.com/gosuda/newsroom/internal/api/ws"
	"github.com/gosuda/newsroom/internal/config"
	"github.com/gosuda/newsroom/internal/server/middleware"
)

// Pinger reports whether a backing service is reachable.
// *postgres.Store and *redisstore.Client satisfy this interface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the HTTP layer is wired to.
type Deps struct {
	Store  v1.DataStore
	Auth   v1.AuthService
	Feed   v1.ArticleFeed
	Runs   v1.AnalysisRunner
	Share  v1.ShareService
	PubSub ws.Subscriber

	// Health maps a check name to the service /healthz pings.
	Health map[string]Pinger

	// WebAssets may be nil; when provided, the SPA is served on all
	// unmatched routes.
	WebAssets fs.FS
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the background
// cleanup of the rate limiters.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(deps.PubSub, deps.Runs)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	rps, burst := cfg.Server.RateLimitRPS, cfg.Server.RateBurst

	// Mount API routes on /api/v1 with three sub-groups:
	// 1. Public group for auth and the article feed.
	// 2. Authenticated group for everything tied to a user.
	// 3. Admin group for feed maintenance.
	router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, rps, burst))

			publicConfig := huma.DefaultConfig("Newsroom Public API", "1.0.0")
			publicConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			publicAPI := humachi.New(r, publicConfig)
			registerPublicRoutes(publicAPI, deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimit(ctx, rps, burst))

			apiConfig := huma.DefaultConfig("Newsroom API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, deps)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RequireAdmin())
			r.Use(middleware.RateLimit(ctx, rps, burst))

			// The admin operations are listed in neither OpenAPI document.
			adminConfig := huma.DefaultConfig("Newsroom Admin API", "1.0.0")
			adminConfig.OpenAPIPath = ""
			adminConfig.DocsPath = ""
			adminConfig.SchemasPath = ""
			adminAPI := humachi.New(r, adminConfig)
			registerAdminRoutes(adminAPI, deps)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		registerWSRoutes(r, hub)
	})

	// Health check (unauthenticated).
	router.Get("/healthz", healthHandler(deps.Health))

	// Serve embedded SPA on all unmatched routes.
	// This must be the last route registered so API/WS routes take priority.
	if deps.WebAssets != nil {
		router.NotFound(spaFileServer(deps.WebAssets).ServeHTTP)
		log.Info().Msg("embedded web dashboard enabled")
	}

	return s
}

// Handler returns the root router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
