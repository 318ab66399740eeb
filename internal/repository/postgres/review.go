package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/repository"
	"github.com/toolvault/toolvault/pkg/database"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

const reviewColumns = `id, tool_id, owner_id, user_rating, comment, approval_status, created_at, updated_at`

func scanReview(row pgx.Row) (*domain.Review, error) {
	var rv domain.Review
	err := row.Scan(
		&rv.ID,
		&rv.ToolID,
		&rv.OwnerID,
		&rv.Rating,
		&rv.Comment,
		&rv.Status,
		&rv.CreatedAt,
		&rv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Create inserts a new review. A review referencing a missing tool surfaces
// as NotFound; a second review by the same owner for the same tool surfaces
// as AlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, tool_id, owner_id, user_rating, comment, approval_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.ToolID,
		review.OwnerID,
		review.Rating,
		review.Comment,
		review.Status,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return apperrors.NotFound("tool", review.ToolID)
		case isUniqueViolation(err):
			return apperrors.AlreadyExists("review", "owner and tool", review.OwnerID+"/"+review.ToolID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("get review: %w", err)
	}

	return rv, nil
}

// List returns reviews matching the given filter, newest first.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE 1=1`
	var args []any

	if filter.ToolID != nil {
		args = append(args, *filter.ToolID)
		query += fmt.Sprintf(" AND tool_id = $%d", len(args))
	}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		query += fmt.Sprintf(" AND owner_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND approval_status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, *rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, nil
}

// SetStatus transitions a review to the target status. The review row is
// locked, the previous status read, the new status written, and, when the
// APPROVED set for the owning tool changed membership, the tool's average
// rating is recomputed, all in one transaction. The tool row is locked
// before the recompute so concurrent moderations of the same tool serialize
// instead of committing a stale mean.
func (r *ReviewRepository) SetStatus(ctx context.Context, id string, target domain.ReviewStatus) (*repository.ModerationResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rv, err := scanReview(tx.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		if isLockConflict(err) {
			return nil, apperrors.Conflict("review is being moderated concurrently")
		}
		return nil, fmt.Errorf("lock review: %w", err)
	}

	prev := rv.Status
	if err := prev.ValidateTransition(target); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(ctx,
		`UPDATE reviews SET approval_status = $2, updated_at = $3 WHERE id = $1`,
		id, target, now,
	); err != nil {
		return nil, fmt.Errorf("update review status: %w", err)
	}
	rv.Status = target
	rv.UpdatedAt = now

	tool, err := lockTool(ctx, tx, rv.ToolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Orphaned review: the status write is rolled back with the rest
			// of the transaction and the integrity problem surfaced to the
			// caller rather than swallowed.
			return nil, apperrors.NotFound("tool referenced by review "+id, rv.ToolID)
		}
		if isLockConflict(err) {
			return nil, apperrors.Conflict("tool rating is being recomputed concurrently")
		}
		return nil, fmt.Errorf("lock tool: %w", err)
	}

	if domain.ApprovedSetChanges(prev, target) {
		avg, err := recomputeRating(ctx, tx, rv.ToolID, now)
		if err != nil {
			return nil, err
		}
		tool.AvgRating = avg
		tool.UpdatedAt = now
	}

	if err := tx.Commit(ctx); err != nil {
		if isLockConflict(err) {
			return nil, apperrors.Conflict("concurrent moderation detected")
		}
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &repository.ModerationResult{
		Review:         rv,
		PreviousStatus: prev,
		Tool:           tool,
	}, nil
}

// Delete removes a review. If the review was APPROVED, the owning tool's
// average rating is recomputed in the same transaction.
func (r *ReviewRepository) Delete(ctx context.Context, id string) (*repository.DeleteResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rv, err := scanReview(tx.QueryRow(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("lock review: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}

	tool, err := lockTool(ctx, tx, rv.ToolID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tool referenced by review "+id, rv.ToolID)
		}
		return nil, fmt.Errorf("lock tool: %w", err)
	}

	if rv.Status == domain.StatusApproved {
		now := time.Now().UTC()
		avg, err := recomputeRating(ctx, tx, rv.ToolID, now)
		if err != nil {
			return nil, err
		}
		tool.AvgRating = avg
		tool.UpdatedAt = now
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return &repository.DeleteResult{DeletedStatus: rv.Status, Tool: tool}, nil
}

// RecomputeRating recomputes a tool's average rating from its APPROVED
// reviews and writes it to the tool row. Safe to call redundantly.
func (r *ReviewRepository) RecomputeRating(ctx context.Context, toolID string) (float64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := lockTool(ctx, tx, toolID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.NotFound("tool", toolID)
		}
		return 0, fmt.Errorf("lock tool: %w", err)
	}

	avg, err := recomputeRating(ctx, tx, toolID, time.Now().UTC())
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return avg, nil
}

// lockTool reads a tool row under FOR UPDATE within the given transaction.
func lockTool(ctx context.Context, tx pgx.Tx, toolID string) (*domain.Tool, error) {
	return scanTool(tx.QueryRow(ctx,
		`SELECT `+toolColumns+` FROM tools WHERE id = $1 FOR UPDATE`, toolID))
}

// recomputeRating derives the mean rating over the APPROVED set and writes it
// to the tool row. The empty set yields exactly 0.0.
func recomputeRating(ctx context.Context, tx pgx.Tx, toolID string, now time.Time) (float64, error) {
	var avg float64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(AVG(user_rating)::float8, 0)
		FROM reviews
		WHERE tool_id = $1 AND approval_status = $2`,
		toolID, domain.StatusApproved,
	).Scan(&avg); err != nil {
		return 0, fmt.Errorf("compute average rating: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE tools SET avg_rating = $2, updated_at = $3 WHERE id = $1`,
		toolID, avg, now,
	); err != nil {
		return 0, fmt.Errorf("write average rating: %w", err)
	}

	return avg, nil
}
