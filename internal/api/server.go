package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"railpulse/internal/api/handlers"
	"railpulse/internal/api/middleware"
	"railpulse/internal/config"
	"railpulse/internal/eta"
	"railpulse/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// TrainSearcher lists the trains serving a station pair on a date.
type TrainSearcher interface {
	SearchBetween(ctx context.Context, src, dst, doj string) ([]eta.TrainCandidate, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP surface is wired to.
type Deps struct {
	Search   TrainSearcher
	Ranker   *eta.Ranker
	Feed     handlers.RailFeed
	Charts   handlers.Compositions
	Nearby   handlers.StationFinder
	Stations interface {
		handlers.StationDirectory
		Pinger
	}
	Metrics *metrics.Collector
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	logger zerolog.Logger

	rail     *handlers.RailHandler
	nearby   *handlers.NearbyHandler
	stations *handlers.StationHandler

	handler http.Handler
	srv     *http.Server
}

func NewServer(cfg config.ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	logger = logger.With().Str("component", "api").Logger()

	s := &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		rail:     handlers.NewRailHandler(deps.Feed, deps.Charts, logger),
		nearby:   handlers.NewNearbyHandler(deps.Nearby, logger),
		stations: handlers.NewStationHandler(deps.Stations, logger),
	}

	r := chi.NewRouter()
	s.registerRoutes(r)
	s.handler = middleware.Logging(logger)(r)

	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler is the fully wrapped router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.srv.Addr).Msg("starting server")
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		s.logger.Info().Msg("server stopped")
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("error during server shutdown")
		return err
	}
	return nil
}

func (s *Server) registerRoutes(r chi.Router) {
	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Processing-Time"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.Security)

	r.Get("/", s.rootHandler)
	r.Get("/healthz", s.healthHandler)
	r.Handle("/metrics", s.deps.Metrics.Handler())

	r.Route("/api/trains", func(r chi.Router) {
		r.Post("/upcoming", s.upcomingHandler)
		r.Post("/next", s.nextHandler)
		r.Post("/main", s.nearby.Nearby)
		r.Get("/train-search", s.rail.TrainSearch)
		r.Get("/live-status", s.rail.LiveStatus)
		r.Post("/pnr-status", s.rail.PNRStatus)
		r.Post("/train-composition", s.rail.TrainComposition)
		r.Post("/train-composition-by-coach", s.rail.CoachComposition)
		r.Get("/schedule", s.rail.Schedule)
	})

	r.Route("/api/stations", func(r chi.Router) {
		r.Get("/lookup", s.stations.Lookup)
		r.Get("/search", s.stations.Search)
	})
}

func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Train Backend Server is running"))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Stations != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Stations.Ping(ctx); err != nil {
			s.logger.Error().Err(err).Msg("health check: database unreachable")
			handlers.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	handlers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
