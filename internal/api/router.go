// Package api provides the HTTP API for the air-quality dashboard.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog"

	"github.com/aqidash/aqidash/internal/api/handler"
	"github.com/aqidash/aqidash/internal/api/middleware"
	"github.com/aqidash/aqidash/internal/api/response"
	"github.com/aqidash/aqidash/internal/provider/resilience"
)

// DefaultServiceName is used for tracing when RouterConfig.ServiceName is empty.
const DefaultServiceName = "aqidash-api"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Dashboard handler.DashboardReader
	Geocoder  handler.Geocoder

	// History serves GET /api/history. The route is not mounted when nil.
	History handler.HistoryLister

	// Registry backs GET /api/ops/status. Optional.
	Registry *resilience.Registry

	// ReadinessChecks are run by GET /api/ops/ready.
	ReadinessChecks map[string]handler.ReadinessCheck
}

// NewRouter creates the API handler with all routes configured. Responses are
// gzip-compressed when the client accepts it.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(response.MethodNotAllowed)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		Registry:  cfg.Registry,
		Checks:    cfg.ReadinessChecks,
	})
	dashboardHandler := handler.NewDashboardHandler(cfg.Dashboard, cfg.Logger)
	geocodeHandler := handler.NewGeocodeHandler(cfg.Geocoder)

	// One dashboard request fans out to three upstream calls.
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Route("/api", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		r.With(expensiveRateLimit).Get("/air-quality", dashboardHandler.GetAirQuality)

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/geocode", geocodeHandler.ReverseGeocode)
			r.Get("/cities/search", geocodeHandler.SearchCities)

			if cfg.History != nil {
				historyHandler := handler.NewHistoryHandler(cfg.History, cfg.Logger)
				r.Get("/history", historyHandler.ListHistory)
			}
		})
	})

	return gzhttp.GzipHandler(r)
}
