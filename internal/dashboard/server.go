// Package dashboard serves the availability dashboard: facility and outlet
// selection, date-window validation, and availability tables with chart
// specifications as JSON.
package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/onepa-availability/pkg/client"
	"github.com/Sternrassler/onepa-availability/pkg/logging"
	"github.com/Sternrassler/onepa-availability/pkg/metrics"
)

// Config defines dependencies required by Server.
type Config struct {
	Client         *client.Client
	AllowedOrigins []string

	// Location is the calendar the date window is computed in
	// (default onepa.ServiceLocation).
	Location *time.Location

	// Now overrides the clock (for testing).
	Now func() time.Time
}

// Server is the dashboard HTTP handler set.
type Server struct {
	registry *Registry
	window   Window
	logger   zerolog.Logger
	handler  http.Handler
}

// New builds a Server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("client is required")
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		registry: NewRegistry(cfg.Client),
		window:   Window{Location: cfg.Location, Now: cfg.Now},
		logger:   logging.NewLogger("dashboard"),
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(s.requestContext)
	router.Use(s.accessLog)
	router.Use(middleware.Recoverer)

	router.Get("/health", s.healthHandler())
	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/facilities", s.facilitiesHandler())
		r.Get("/facilities/{facility}/outlets", s.outletsHandler())
		r.Get("/facilities/{facility}/availability", s.availabilityHandler())
		r.Get("/facilities/{facility}/outlets/{outlet}/slots", s.slotsHandler())
		r.Post("/reset", s.resetHandler())
	})

	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
	}).Handler(router)

	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Registry returns the facility registry.
func (s *Server) Registry() *Registry {
	return s.registry
}
