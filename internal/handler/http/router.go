package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toolvault/toolvault/internal/auth"
	"github.com/toolvault/toolvault/internal/service"
	"github.com/toolvault/toolvault/pkg/health"
	"github.com/toolvault/toolvault/pkg/middleware"
)

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	userService *service.UserService,
	toolService *service.ToolService,
	reviewService *service.ReviewService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	rateLimitRPS, rateLimitBurst int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RateLimit(rateLimitRPS, rateLimitBurst, logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("toolvault"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	tokenValidator := jwtManager.MiddlewareValidator()
	requireAuth := middleware.Auth(tokenValidator)
	requireAdmin := middleware.RequireRole("admin")

	// Auth endpoints (public)
	authHandler := NewAuthHandler(userService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.Me)
		})
	})

	toolHandler := NewToolHandler(toolService, reviewService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)

	// Catalog endpoints
	r.Route("/api/v1/tools", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public reads
		r.Get("/", toolHandler.ListTools)
		r.Get("/{id}", toolHandler.GetTool)
		r.Get("/{toolId}/reviews", reviewHandler.ListToolReviews)

		// Review submission (any authenticated subject)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/{toolId}/reviews", reviewHandler.CreateReview)
		})

		// Catalog administration
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)

			r.Post("/", toolHandler.CreateTool)
			r.Patch("/{id}", toolHandler.UpdateTool)
			r.Delete("/{id}", toolHandler.DeleteTool)
			r.Post("/{id}/rating/recompute", reviewHandler.RecomputeRating)
		})
	})

	// Review and moderation endpoints
	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		// Listing narrows to the caller's own reviews for non-admins.
		r.Get("/", reviewHandler.ListReviews)
		r.Get("/mine", reviewHandler.ListOwnReviews)
		r.Get("/pending", reviewHandler.ListPendingReviews)
		r.Get("/{id}", reviewHandler.GetReview)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			r.Post("/{id}/approve", reviewHandler.ApproveReview)
			r.Post("/{id}/reject", reviewHandler.RejectReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})
	})

	return r
}
