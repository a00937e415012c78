package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/Slidewise/internal/api/handlers"
	middleware "github.com/markdave123-py/Slidewise/internal/api/middlewares"
	"github.com/markdave123-py/Slidewise/internal/config"
	"github.com/markdave123-py/Slidewise/internal/core"
	objectclient "github.com/markdave123-py/Slidewise/internal/core/object-client"
	"github.com/markdave123-py/Slidewise/internal/services"
)

// ServerDeps are the services the HTTP layer is built on.
type ServerDeps struct {
	Decks   *services.DeckService
	Sources *services.SourceService
	Images  core.ImageSearcher // nil without a Pixabay key
	Tokens  core.TokenVerifier // nil when auth is not configured
	Store   core.DeckStore
	Objects core.ObjectClient
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log zerolog.Logger, deps ServerDeps) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           NewRouter(cfg, log, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// NewRouter returns the chi router serving the API.
func NewRouter(cfg *config.Config, log zerolog.Logger, deps ServerDeps) http.Handler {
	generateHandler := handlers.NewGenerateHandler(deps.Decks)
	deckHandler := handlers.NewDeckHandler(deps.Decks)
	imageHandler := handlers.NewImageHandler(deps.Images)
	sourceHandler := handlers.NewSourceHandler(deps.Sources, cfg.MaxUploadBytes)
	authHandler := handlers.NewAuthHandler()
	healthHandler := handlers.NewHealthHandler(cfg.ServiceName, cfg.Version, healthChecks(deps))
	auth := middleware.NewAuth(deps.Tokens, handlers.Unauthorized)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	for _, mw := range middleware.Logging(log) {
		r.Use(mw)
	}
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Handle("/metrics", promhttp.Handler())

	if local, ok := deps.Objects.(*objectclient.LocalStorage); ok && local.Root() != "" {
		media := http.StripPrefix("/media/", http.FileServer(http.Dir(local.Root())))
		r.Handle("/media/*", media)
	}

	r.Route("/api/v1", func(api chi.Router) {
		// public endpoints
		api.Get("/health", healthHandler.Health)
		api.Get("/ready", healthHandler.Ready)
		api.Get("/pixabay/search", imageHandler.Search)
		api.Get("/robots-check", sourceHandler.RobotsCheck)

		// anonymous callers allowed; a valid token scopes decks to its user
		api.Group(func(optional chi.Router) {
			optional.Use(auth.Optional)
			optional.Post("/generate", generateHandler.Generate)
			optional.Get("/ppt/{id}", deckHandler.Get)
			optional.Delete("/ppt/{id}", deckHandler.Delete)
			optional.Patch("/ppt/{id}/slide/{index}", deckHandler.EditSlide)
			optional.Get("/download/{id}", deckHandler.Download)
			optional.Post("/replace-image", deckHandler.ReplaceImage)
			optional.Post("/upload-source", sourceHandler.Upload)
		})

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(auth.Required)
			protected.Get("/history", deckHandler.History)
			protected.Get("/user/info", authHandler.UserInfo)
		})
	})

	return r
}

func healthChecks(deps ServerDeps) map[string]handlers.HealthChecker {
	checks := map[string]handlers.HealthChecker{}
	if hc, ok := deps.Store.(handlers.HealthChecker); ok {
		checks["database"] = hc
	}
	if hc, ok := deps.Objects.(handlers.HealthChecker); ok {
		checks["storage"] = hc
	}
	return checks
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
