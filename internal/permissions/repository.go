package permissions

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
)

// ErrNoRecord indicates no permission row exists for a (user, module) pair.
var ErrNoRecord = errors.New("permissions: no record")

// Repository defines persistence operations for permission records.
type Repository interface {
	Get(ctx context.Context, userID int64, module string) (*Record, error)
	List(ctx context.Context, userID int64) ([]Record, error)
	Replace(ctx context.Context, userID int64, records []Record) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get fetches the permission record for one (user, module) pair.
func (r *PGRepository) Get(ctx context.Context, userID int64, module string) (*Record, error) {
	const query = `
		SELECT user_id, module, can_access_module, can_read, can_write, can_delete
		FROM permissions
		WHERE user_id = $1 AND module = $2`
	var rec Record
	err := r.pool.QueryRow(ctx, query, userID, module).Scan(
		&rec.UserID, &rec.Module, &rec.CanAccessModule, &rec.CanRead, &rec.CanWrite, &rec.CanDelete,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNoRecord
		}
		return nil, err
	}
	return &rec, nil
}

// List returns all permission records for a user ordered by module name.
func (r *PGRepository) List(ctx context.Context, userID int64) ([]Record, error) {
	const query = `
		SELECT user_id, module, can_access_module, can_read, can_write, can_delete
		FROM permissions
		WHERE user_id = $1
		ORDER BY module`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.UserID, &rec.Module, &rec.CanAccessModule, &rec.CanRead, &rec.CanWrite, &rec.CanDelete); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Replace overwrites the user's entire permission set: delete then reinsert
// inside one transaction so concurrent checks never observe a half-empty
// matrix.
func (r *PGRepository) Replace(ctx context.Context, userID int64, records []Record) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissions WHERE user_id = $1`, userID); err != nil {
			return err
		}
		for _, rec := range records {
			_, err := tx.Exec(ctx, `
				INSERT INTO permissions (user_id, module, can_access_module, can_read, can_write, can_delete)
				VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, rec.Module, rec.CanAccessModule, rec.CanRead, rec.CanWrite, rec.CanDelete,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

var _ Repository = (*PGRepository)(nil)
