package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/toolvault/toolvault/internal/cache"
	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/event"
	"github.com/toolvault/toolvault/internal/repository"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

// CreateReviewInput holds the parameters for submitting a review.
type CreateReviewInput struct {
	ToolID  string
	Rating  int
	Comment string
}

// ReviewService implements the business logic for review submission,
// listing, moderation, and deletion. Every operation takes the caller's
// subject ID and role; authorization decisions all go through domain.Can.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	toolCache  *cache.ToolCache
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	toolCache *cache.ToolCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		toolCache:  toolCache,
		producer:   producer,
		logger:     logger,
	}
}

// Create submits a new review. The review always starts PENDING and never
// contributes to the tool's rating until a moderator approves it.
func (s *ReviewService) Create(ctx context.Context, subjectID, role string, input CreateReviewInput) (*domain.Review, error) {
	if !domain.Can(role, subjectID, subjectID, domain.OpCreateReview) {
		return nil, apperrors.Forbidden("not allowed to submit reviews")
	}
	if input.ToolID == "" {
		return nil, apperrors.InvalidInput("tool_id is required")
	}
	if err := domain.ValidateRating(input.Rating); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		ToolID:    input.ToolID,
		OwnerID:   subjectID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("tool_id", review.ToolID),
		slog.String("owner_id", review.OwnerID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// Get returns a single review. APPROVED reviews are visible to everyone;
// PENDING and REJECTED reviews only to their owner or an admin.
func (s *ReviewService) Get(ctx context.Context, subjectID, role, id string) (*domain.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if review.Status != domain.StatusApproved &&
		!domain.Can(role, subjectID, review.OwnerID, domain.OpViewReview) {
		return nil, apperrors.Forbidden("not allowed to view this review")
	}

	return review, nil
}

// ListApproved returns the APPROVED reviews for a tool. No authentication
// required.
func (s *ReviewService) ListApproved(ctx context.Context, toolID string) ([]domain.Review, error) {
	status := domain.StatusApproved
	filter := repository.ReviewFilter{Status: &status}
	if toolID != "" {
		filter.ToolID = &toolID
	}
	return s.reviewRepo.List(ctx, filter)
}

// ListPending returns pending reviews. Admins see the full moderation
// queue; users see their own pending reviews only.
func (s *ReviewService) ListPending(ctx context.Context, subjectID, role string) ([]domain.Review, error) {
	status := domain.StatusPending
	filter := repository.ReviewFilter{Status: &status}
	if err := s.narrowToPermitted(subjectID, role, &filter); err != nil {
		return nil, err
	}
	return s.reviewRepo.List(ctx, filter)
}

// ListOwn returns all of the caller's own reviews regardless of status.
func (s *ReviewService) ListOwn(ctx context.Context, subjectID string) ([]domain.Review, error) {
	return s.reviewRepo.List(ctx, repository.ReviewFilter{OwnerID: &subjectID})
}

// ListAll returns reviews matching the filter. Admins see every review;
// for users the filter is narrowed to their own reviews, so a
// status-filtered listing returns the caller's permitted subset rather
// than failing.
func (s *ReviewService) ListAll(ctx context.Context, subjectID, role string, filter repository.ReviewFilter) ([]domain.Review, error) {
	if err := s.narrowToPermitted(subjectID, role, &filter); err != nil {
		return nil, err
	}
	return s.reviewRepo.List(ctx, filter)
}

// narrowToPermitted scopes a review filter to what the caller may see.
// Admins pass through untouched; users have the owner filter pinned to
// themselves. Unknown roles are rejected outright.
func (s *ReviewService) narrowToPermitted(subjectID, role string, filter *repository.ReviewFilter) error {
	if domain.Can(role, subjectID, "", domain.OpModerateReview) {
		return nil
	}
	if role != domain.RoleUser || subjectID == "" {
		return apperrors.Forbidden("not allowed to list reviews")
	}
	filter.OwnerID = &subjectID
	return nil
}

// Approve transitions a review to APPROVED.
func (s *ReviewService) Approve(ctx context.Context, subjectID, role, reviewID string) (*repository.ModerationResult, error) {
	return s.moderate(ctx, subjectID, role, reviewID, domain.StatusApproved)
}

// Reject transitions a review to REJECTED.
func (s *ReviewService) Reject(ctx context.Context, subjectID, role, reviewID string) (*repository.ModerationResult, error) {
	return s.moderate(ctx, subjectID, role, reviewID, domain.StatusRejected)
}

// moderate runs a moderation decision. The status write and any rating
// recompute commit atomically in the repository; a serialization conflict
// is retried once since the recompute derives the same value either way.
func (s *ReviewService) moderate(ctx context.Context, subjectID, role, reviewID string, target domain.ReviewStatus) (*repository.ModerationResult, error) {
	if !domain.Can(role, subjectID, "", domain.OpModerateReview) {
		return nil, apperrors.Forbidden("moderation requires the admin role")
	}

	result, err := s.reviewRepo.SetStatus(ctx, reviewID, target)
	if errors.Is(err, apperrors.ErrConflict) {
		result, err = s.reviewRepo.SetStatus(ctx, reviewID, target)
	}
	if err != nil {
		return nil, err
	}

	if domain.ApprovedSetChanges(result.PreviousStatus, target) {
		s.invalidateTool(ctx, result.Review.ToolID)
	}

	if err := s.producer.PublishReviewModerated(ctx,
		reviewID, result.Review.ToolID,
		result.PreviousStatus, target, result.Tool.AvgRating,
	); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.moderated event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review moderated",
		slog.String("review_id", reviewID),
		slog.String("moderator_id", subjectID),
		slog.String("old_status", string(result.PreviousStatus)),
		slog.String("new_status", string(target)),
		slog.Float64("avg_rating", result.Tool.AvgRating),
	)

	return result, nil
}

// Delete removes a review. Admin only. Deleting an APPROVED review
// recomputes the tool's rating. The status that gates cache invalidation
// comes from the deletion transaction itself, not a prior read, so a
// review moderated concurrently cannot leave a stale cached average.
func (s *ReviewService) Delete(ctx context.Context, subjectID, role, reviewID string) error {
	if !domain.Can(role, subjectID, "", domain.OpDeleteReview) {
		return apperrors.Forbidden("not allowed to delete this review")
	}

	result, err := s.reviewRepo.Delete(ctx, reviewID)
	if err != nil {
		return err
	}
	tool := result.Tool

	if result.DeletedStatus == domain.StatusApproved {
		s.invalidateTool(ctx, tool.ID)
	}

	if err := s.producer.PublishReviewDeleted(ctx, reviewID, tool.ID, tool.AvgRating); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.deleted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("subject_id", subjectID),
		slog.String("tool_id", tool.ID),
	)

	return nil
}

// RecomputeRating re-derives a tool's average rating from its APPROVED
// reviews. Admin only; intended as a repair operation.
func (s *ReviewService) RecomputeRating(ctx context.Context, subjectID, role, toolID string) (float64, error) {
	if !domain.Can(role, subjectID, "", domain.OpModerateReview) {
		return 0, apperrors.Forbidden("rating recompute requires the admin role")
	}

	avg, err := s.reviewRepo.RecomputeRating(ctx, toolID)
	if err != nil {
		return 0, err
	}

	s.invalidateTool(ctx, toolID)

	s.logger.InfoContext(ctx, "tool rating recomputed",
		slog.String("tool_id", toolID),
		slog.Float64("avg_rating", avg),
	)

	return avg, nil
}

func (s *ReviewService) invalidateTool(ctx context.Context, toolID string) {
	if s.toolCache == nil {
		return
	}
	if err := s.toolCache.Invalidate(ctx, toolID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate tool cache",
			slog.String("tool_id", toolID),
			slog.String("error", err.Error()),
		)
	}
}
