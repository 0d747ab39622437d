package worktimes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Repository defines persistence operations for work-time entries.
type Repository interface {
	Get(ctx context.Context, id int64) (*Entry, error)
	List(ctx context.Context, req ListEntriesRequest) ([]EntryWithUser, int, error)
	Create(ctx context.Context, e Entry) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const entryColumns = `id, work_order_id, user_id, started_at, ended_at, minutes, note, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.WorkOrderID, &e.UserID, &e.StartedAt, &e.EndedAt, &e.Minutes, &e.Note, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get fetches an entry by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Entry, error) {
	e, err := scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM work_times WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// List returns entries with technician names, most recent start first.
func (r *PGRepository) List(ctx context.Context, req ListEntriesRequest) ([]EntryWithUser, int, error) {
	where := "WHERE 1=1"
	var args []any
	if req.WorkOrderID > 0 {
		args = append(args, req.WorkOrderID)
		where += fmt.Sprintf(" AND wt.work_order_id = $%d", len(args))
	}
	if req.UserID > 0 {
		args = append(args, req.UserID)
		where += fmt.Sprintf(" AND wt.user_id = $%d", len(args))
	}
	if !req.From.IsZero() {
		args = append(args, req.From)
		where += fmt.Sprintf(" AND wt.started_at >= $%d", len(args))
	}
	if !req.To.IsZero() {
		args = append(args, req.To)
		where += fmt.Sprintf(" AND wt.started_at < $%d", len(args))
	}

	base := `FROM work_times wt JOIN users u ON u.id = wt.user_id ` + where

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT wt.id, wt.work_order_id, wt.user_id, wt.started_at, wt.ended_at,
			wt.minutes, wt.note, wt.created_at, wt.updated_at,
			TRIM(u.first_name || ' ' || u.last_name)
		%s ORDER BY wt.started_at DESC LIMIT $%d OFFSET $%d`, base, len(args)+1, len(args)+2)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []EntryWithUser
	for rows.Next() {
		var e EntryWithUser
		err := rows.Scan(&e.ID, &e.WorkOrderID, &e.UserID, &e.StartedAt, &e.EndedAt,
			&e.Minutes, &e.Note, &e.CreatedAt, &e.UpdatedAt, &e.UserName)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Create inserts a new entry.
func (r *PGRepository) Create(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO work_times (work_order_id, user_id, started_at, ended_at, minutes, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id`,
		e.WorkOrderID, e.UserID, e.StartedAt, e.EndedAt, e.Minutes, e.Note,
	).Scan(&id)
	return id, err
}

// Update applies a partial column update.
func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE work_times SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"started_at", "ended_at", "minutes", "note"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM work_times WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
