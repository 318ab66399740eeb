package domain

import (
	"fmt"
	"time"

	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusApproved ReviewStatus = "APPROVED"
	StatusRejected ReviewStatus = "REJECTED"
)

// ParseReviewStatus validates and normalizes a review status string.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	switch ReviewStatus(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return ReviewStatus(s), nil
	default:
		return "", fmt.Errorf("unknown review status %q", s)
	}
}

// IsValid reports whether the status is a member of the enum.
func (s ReviewStatus) IsValid() bool {
	_, err := ParseReviewStatus(string(s))
	return err == nil
}

// ValidateTransition checks that moving from the current status to target is
// a legal moderation transition. PENDING is the only initial state and never
// a transition target; APPROVED and REJECTED can be re-entered from each
// other (re-moderation), and self-transitions are permitted no-ops.
func (s ReviewStatus) ValidateTransition(target ReviewStatus) error {
	if !target.IsValid() {
		return apperrors.InvalidState(fmt.Sprintf("unknown target status %q", string(target)))
	}
	if target == StatusPending && s != StatusPending {
		return apperrors.InvalidState("a moderated review cannot return to PENDING")
	}
	return nil
}

// ApprovedSetChanges reports whether a transition from prev to next changes
// the review's membership in the APPROVED set. This is computed from the
// previously stored status, never inferred from the operation name.
func ApprovedSetChanges(prev, next ReviewStatus) bool {
	return (prev == StatusApproved) != (next == StatusApproved)
}

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 5
)

// ValidateRating checks that a rating value is within [1,5].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", MinRating, MaxRating))
	}
	return nil
}

// Review represents a rating and comment submitted against a tool.
// OwnerID is immutable after creation; status transitions happen only through
// moderation operations.
type Review struct {
	ID        string       `json:"id"`
	ToolID    string       `json:"tool_id"`
	OwnerID   string       `json:"owner_id"`
	Rating    int          `json:"user_rating"`
	Comment   string       `json:"comment,omitempty"`
	Status    ReviewStatus `json:"approval_status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
