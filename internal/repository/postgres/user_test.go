package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolvault/toolvault/internal/domain"
	"github.com/toolvault/toolvault/pkg/database"
	apperrors "github.com/toolvault/toolvault/pkg/errors"
)

func newTestUserRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func sampleUser() *domain.User {
	return &domain.User{
		ID:           "user-001",
		Email:        "jane@example.com",
		Username:     "jane",
		FirstName:    "Jane",
		LastName:     "Doe",
		PasswordHash: "$2a$12$abcdefghijklmnopqrstuv",
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func userRows(u *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "username", "first_name", "last_name",
		"password_hash", "role", "created_at",
	}).AddRow(
		u.ID, u.Email, u.Username, u.FirstName, u.LastName,
		u.PasswordHash, u.Role, u.CreatedAt,
	)
}

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.Username, u.FirstName, u.LastName,
			u.PasswordHash, u.Role, u.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	u := sampleUser()

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, u.Email, u.Username, u.FirstName, u.LastName,
			u.PasswordHash, u.Role, u.CreatedAt,
		).
		WillReturnError(&pgconn.PgError{Code: codeUniqueViolation})

	err := repo.Create(context.Background(), u)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUsername_Success(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	u := sampleUser()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(u.Username).
		WillReturnRows(userRows(u))

	got, err := repo.GetByUsername(context.Background(), u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleUser, got.Role)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
