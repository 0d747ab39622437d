package auth

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByNickname(ctx context.Context, nickname string) (*User, error)
	BumpTokenVersion(ctx context.Context, userID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByNickname fetches a user by nickname for credential checks.
func (r *PGRepository) FindByNickname(ctx context.Context, nickname string) (*User, error) {
	const query = `
		SELECT id, nickname, password_hash, first_name, last_name, role, is_active, token_version, created_at, updated_at
		FROM users
		WHERE nickname = $1`
	var user User
	err := r.pool.QueryRow(ctx, query, nickname).Scan(
		&user.ID, &user.Nickname, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.IsActive, &user.TokenVersion, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// BumpTokenVersion increments the user's token version, revoking every
// previously issued token.
func (r *PGRepository) BumpTokenVersion(ctx context.Context, userID int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET token_version = token_version + 1, updated_at = NOW() WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
