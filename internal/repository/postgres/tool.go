package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/internal/repository"
	"github.com/toolvault/toolvault/pkg/database"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

// ToolRepository implements repository.ToolRepository using PostgreSQL.
type ToolRepository struct {
	pool database.DBTX
}

// NewToolRepository creates a new PostgreSQL-backed tool repository.
func NewToolRepository(pool database.DBTX) *ToolRepository {
	return &ToolRepository{pool: pool}
}

const toolColumns = `id, name, use_case, category, pricing, avg_rating, created_at, updated_at`

func scanTool(row pgx.Row) (*domain.Tool, error) {
	var t domain.Tool
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.UseCase,
		&t.Category,
		&t.Pricing,
		&t.AvgRating,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserts a new tool.
func (r *ToolRepository) Create(ctx context.Context, tool *domain.Tool) error {
	query := `
		INSERT INTO tools (id, name, use_case, category, pricing, avg_rating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		tool.ID,
		tool.Name,
		tool.UseCase,
		tool.Category,
		tool.Pricing,
		tool.AvgRating,
		tool.CreatedAt,
		tool.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("tool", "name", tool.Name)
		}
		return fmt.Errorf("insert tool: %w", err)
	}

	return nil
}

// GetByID retrieves a tool by its ID.
func (r *ToolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE id = $1`

	t, err := scanTool(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tool", id)
		}
		return nil, fmt.Errorf("get tool: %w", err)
	}

	return t, nil
}

// List returns tools matching the given filter, newest first.
func (r *ToolRepository) List(ctx context.Context, filter repository.ToolFilter) ([]domain.Tool, error) {
	query := `SELECT ` + toolColumns + ` FROM tools WHERE 1=1`
	var args []any

	if filter.Category != nil {
		args = append(args, *filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.Pricing != nil {
		args = append(args, *filter.Pricing)
		query += fmt.Sprintf(" AND pricing = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	defer rows.Close()

	tools := []domain.Tool{}
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tool row: %w", err)
		}
		tools = append(tools, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tool rows: %w", err)
	}

	return tools, nil
}

// Update applies the non-nil fields of upd to the tool and returns the
// updated row. The average rating is never written here: it is derived
// state owned by the review repository.
func (r *ToolRepository) Update(ctx context.Context, id string, upd repository.ToolUpdate) (*domain.Tool, error) {
	sets := []string{"updated_at = $1"}
	args := []any{time.Now().UTC()}

	if upd.Name != nil {
		args = append(args, *upd.Name)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if upd.UseCase != nil {
		args = append(args, *upd.UseCase)
		sets = append(sets, fmt.Sprintf("use_case = $%d", len(args)))
	}
	if upd.Category != nil {
		args = append(args, *upd.Category)
		sets = append(sets, fmt.Sprintf("category = $%d", len(args)))
	}
	if upd.Pricing != nil {
		args = append(args, *upd.Pricing)
		sets = append(sets, fmt.Sprintf("pricing = $%d", len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE tools SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), toolColumns,
	)

	t, err := scanTool(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("tool", id)
		}
		if isUniqueViolation(err) {
			name := id
			if upd.Name != nil {
				name = *upd.Name
			}
			return nil, apperrors.AlreadyExists("tool", "name", name)
		}
		return nil, fmt.Errorf("update tool: %w", err)
	}

	return t, nil
}

// Delete removes a tool and all of its reviews in one transaction.
func (r *ToolRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE tool_id = $1`, id); err != nil {
		return fmt.Errorf("delete tool reviews: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM tools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("tool", id)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
