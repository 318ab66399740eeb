package repository

import (
	"context"

	"github.com/toolvault/toolvault/internal/domain"
)

// ReviewFilter defines filter criteria for listing reviews. Nil fields are
// not applied. Services shape the filter from the authorization policy
// (admins list everything, users only their own reviews).
type ReviewFilter struct {
	ToolID  *string
	OwnerID *string
	Status  *domain.ReviewStatus
}

// ModerationResult carries everything a moderation transaction produced: the
// review with its new status, the status it held before the write, and the
// owning tool with its (possibly recomputed) average rating.
type ModerationResult struct {
	Review         *domain.Review
	PreviousStatus domain.ReviewStatus
	Tool           *domain.Tool
}

// DeleteResult carries what a review deletion produced: the status the
// review held when it was removed and the owning tool with its (possibly
// recomputed) average rating. The status is read under the row lock, so it
// reflects the value the deletion actually acted on.
type DeleteResult struct {
	DeletedStatus domain.ReviewStatus
	Tool          *domain.Tool
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// Create inserts a new review into the store.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the given filter.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, error)

	// SetStatus transitions a review to the target status and, when the
	// APPROVED set for the owning tool changed membership, recomputes the
	// tool's average rating. Status write and recompute commit or roll back
	// together.
	SetStatus(ctx context.Context, id string, target domain.ReviewStatus) (*ModerationResult, error)

	// Delete removes a review, recomputing the owning tool's average rating
	// in the same transaction if the review was APPROVED. Returns the
	// status the review held and the updated tool.
	Delete(ctx context.Context, id string) (*DeleteResult, error)

	// RecomputeRating recomputes a tool's average rating from its APPROVED
	// reviews and writes it to the tool row. Idempotent.
	RecomputeRating(ctx context.Context, toolID string) (float64, error)
}

// ToolFilter defines filter criteria for listing tools.
type ToolFilter struct {
	Category *string
	Pricing  *domain.PricingType
}

// ToolUpdate is a field mask for partial tool updates: only non-nil fields
// are applied. AvgRating is deliberately absent; it is derived state owned by
// the rating recompute.
type ToolUpdate struct {
	Name     *string
	UseCase  *string
	Category *string
	Pricing  *domain.PricingType
}

// ToolRepository defines the interface for tool persistence operations.
type ToolRepository interface {
	// Create inserts a new tool into the store.
	Create(ctx context.Context, tool *domain.Tool) error

	// GetByID retrieves a tool by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Tool, error)

	// List returns tools matching the given filter.
	List(ctx context.Context, filter ToolFilter) ([]domain.Tool, error)

	// Update applies the field mask to an existing tool.
	Update(ctx context.Context, id string, update ToolUpdate) (*domain.Tool, error)

	// Delete removes a tool and cascades to its reviews in one transaction.
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves a user by their username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
}
