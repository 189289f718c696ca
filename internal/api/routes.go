package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router
func NewRouter(handlers *Handlers, authMiddleware *AuthMiddleware, loggingMiddleware *LoggingMiddleware) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware - ORDER MATTERS!
	r.Use(middleware.RequestID)      // Generate request ID first
	r.Use(middleware.RealIP)         // Extract real IP
	r.Use(loggingMiddleware.Handler) // Add logger to context with request ID
	r.Use(middleware.Recoverer)      // Panic recovery
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint (no auth required)
	r.Get("/health", handlers.Health)

	// API v1 routes (with authentication)
	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		// The configured build
		r.Get("/build", handlers.GetSummary)
		r.Get("/build/previous", handlers.GetPreviousBuild)
		r.Get("/build/comparison", handlers.GetComparison)

		// Any build of the configured project
		r.Get("/builds/{build_id}/timeline", handlers.GetTimeline)
		r.Get("/builds/{build_id}/failures/tasks", handlers.GetFailedTasks)
		r.Get("/builds/{build_id}/failures/tasks/logs", handlers.GetFailedTaskLogs)
		r.Get("/builds/{build_id}/failures/jobs", handlers.GetFailedJobs)
	})

	return r
}
