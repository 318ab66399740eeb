package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/repository"
	"github.com/toolvault/toolvault/internal/service"
	"github.com/toolvault/toolvault/pkg/httputil"
	"github.com/toolvault/toolvault/pkg/middleware"
	"github.com/toolvault/toolvault/pkg/validator"
)

// ReviewHandler handles HTTP requests for review and moderation endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{service: svc, logger: logger}
}

// --- Request DTOs ---

// CreateReviewRequest is the JSON request body for submitting a review.
type CreateReviewRequest struct {
	Rating  int    `json:"user_rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ModerationResponse is the JSON payload returned by moderation endpoints.
// It carries the review in its new state and the tool's current average so
// moderators see the effect of their decision immediately.
type ModerationResponse struct {
	Review    *domain.Review `json:"review"`
	AvgRating float64        `json:"avg_rating"`
}

// --- Handlers ---

// ListToolReviews handles GET /api/v1/tools/{toolId}/reviews
//
// Only APPROVED reviews are visible here regardless of caller identity.
func (h *ReviewHandler) ListToolReviews(w http.ResponseWriter, r *http.Request) {
	toolID := chi.URLParam(r, "toolId")
	if toolID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "tool id is required"},
		})
		return
	}

	reviews, err := h.service.ListApproved(r.Context(), toolID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// CreateReview handles POST /api/v1/tools/{toolId}/reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	toolID := chi.URLParam(r, "toolId")
	if toolID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "tool id is required"},
		})
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	review, err := h.service.Create(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
		service.CreateReviewInput{
			ToolID:  toolID,
			Rating:  req.Rating,
			Comment: req.Comment,
		},
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}

// GetReview handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	review, err := h.service.Get(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// ListOwnReviews handles GET /api/v1/reviews/mine
func (h *ReviewHandler) ListOwnReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListOwn(r.Context(), middleware.SubjectIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// ListPendingReviews handles GET /api/v1/reviews/pending
func (h *ReviewHandler) ListPendingReviews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reviews, err := h.service.ListPending(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// ListReviews handles GET /api/v1/reviews with optional status, tool_id, and
// owner_id filters.
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	filter := repository.ReviewFilter{}
	q := r.URL.Query()

	if v := q.Get("status"); v != "" {
		status, err := domain.ParseReviewStatus(v)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		filter.Status = &status
	}
	if v := q.Get("tool_id"); v != "" {
		filter.ToolID = &v
	}
	if v := q.Get("owner_id"); v != "" {
		filter.OwnerID = &v
	}

	ctx := r.Context()
	reviews, err := h.service.ListAll(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
		filter,
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reviews})
}

// ApproveReview handles POST /api/v1/reviews/{id}/approve
func (h *ReviewHandler) ApproveReview(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.StatusApproved)
}

// RejectReview handles POST /api/v1/reviews/{id}/reject
func (h *ReviewHandler) RejectReview(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, domain.StatusRejected)
}

func (h *ReviewHandler) moderate(w http.ResponseWriter, r *http.Request, target domain.ReviewStatus) {
	ctx := r.Context()
	subjectID := middleware.SubjectIDFromContext(ctx)
	role := middleware.RoleFromContext(ctx)
	reviewID := chi.URLParam(r, "id")

	var (
		result *repository.ModerationResult
		err    error
	)
	if target == domain.StatusApproved {
		result, err = h.service.Approve(ctx, subjectID, role, reviewID)
	} else {
		result, err = h.service.Reject(ctx, subjectID, role, reviewID)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: ModerationResponse{
		Review:    result.Review,
		AvgRating: result.Tool.AvgRating,
	}})
}

// DeleteReview handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.service.Delete(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RecomputeRating handles POST /api/v1/tools/{id}/rating/recompute
func (h *ReviewHandler) RecomputeRating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	avg, err := h.service.RecomputeRating(ctx,
		middleware.SubjectIDFromContext(ctx),
		middleware.RoleFromContext(ctx),
		chi.URLParam(r, "id"),
	)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]float64{"avg_rating": avg}})
}
