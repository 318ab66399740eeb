package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

func TestParseReviewStatus(t *testing.T) {
	for _, s := range []string{"PENDING", "APPROVED", "REJECTED"} {
		got, err := ParseReviewStatus(s)
		require.NoError(t, err)
		assert.Equal(t, ReviewStatus(s), got)
	}

	_, err := ParseReviewStatus("approved")
	assert.Error(t, err)
	_, err = ParseReviewStatus("DELETED")
	assert.Error(t, err)
}

func TestValidateTransition_Legal(t *testing.T) {
	legal := []struct{ from, to ReviewStatus }{
		{StatusPending, StatusApproved},
		{StatusPending, StatusRejected},
		{StatusApproved, StatusRejected},
		{StatusRejected, StatusApproved},
		// Self-transitions are permitted no-ops.
		{StatusApproved, StatusApproved},
		{StatusRejected, StatusRejected},
		{StatusPending, StatusPending},
	}

	for _, tt := range legal {
		assert.NoError(t, tt.from.ValidateTransition(tt.to),
			"%s -> %s should be legal", tt.from, tt.to)
	}
}

func TestValidateTransition_BackToPending(t *testing.T) {
	for _, from := range []ReviewStatus{StatusApproved, StatusRejected} {
		err := from.ValidateTransition(StatusPending)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
	}
}

func TestValidateTransition_UnknownTarget(t *testing.T) {
	err := StatusPending.ValidateTransition(ReviewStatus("ARCHIVED"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidState))
}

func TestApprovedSetChanges(t *testing.T) {
	tests := []struct {
		prev, next ReviewStatus
		want       bool
	}{
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, false},
		{StatusApproved, StatusRejected, true},
		{StatusRejected, StatusApproved, true},
		{StatusApproved, StatusApproved, false},
		{StatusRejected, StatusRejected, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ApprovedSetChanges(tt.prev, tt.next),
			"%s -> %s", tt.prev, tt.next)
	}
}

func TestValidateRating(t *testing.T) {
	for r := MinRating; r <= MaxRating; r++ {
		assert.NoError(t, ValidateRating(r))
	}

	for _, r := range []int{0, 6, -1, 100} {
		err := ValidateRating(r)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	}
}

func TestParsePricingType(t *testing.T) {
	for _, s := range []string{"FREE", "PAID", "SUBSCRIPTION"} {
		got, err := ParsePricingType(s)
		require.NoError(t, err)
		assert.Equal(t, PricingType(s), got)
	}

	_, err := ParsePricingType("FREEMIUM")
	assert.Error(t, err)
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole(RoleUser))
	assert.True(t, IsValidRole(RoleAdmin))
	assert.False(t, IsValidRole("superuser"))
	assert.False(t, IsValidRole(""))
}
