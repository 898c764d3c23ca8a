package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Roony-Pay/roony-mcp/app"
	"github.com/Roony-Pay/roony-mcp/middleware"
	"github.com/Roony-Pay/roony-mcp/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "https://*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.AgentHeader},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check endpoints
	r.Get("/healthz", healthCheck())
	r.Get("/readyz", readinessCheck(deps))

	// Prometheus metrics
	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// Tool protocol endpoint
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.Handler)
		r.Use(middleware.AgentIdentity)
		r.Post("/mcp", deps.Router.ServeHTTP)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		_ = utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse{
			Error:   "not_found",
			Message: "route not found",
		})
	})

	return r
}

func healthCheck() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readinessCheck verifies the database connection when one is configured.
// The in-memory store is always ready.
func readinessCheck(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if deps.DB != nil {
			if err := deps.DB.HealthCheck(req.Context()); err != nil {
				deps.Logger.Error("readiness check failed")
				_ = utils.WriteServiceUnavailable(w, "database unavailable")
				return
			}
		}
		_ = utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
