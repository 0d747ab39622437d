package vehicles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Repository defines persistence operations for the vehicles module.
type Repository interface {
	Get(ctx context.Context, id int64) (*Vehicle, error)
	List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error)
	Create(ctx context.Context, v Vehicle) (int64, error)
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

const vehicleColumns = `id, client_id, plate, vin, make, model, year, mileage, notes, created_at, updated_at`

func scanVehicle(row interface{ Scan(dest ...any) error }) (*Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.ClientID, &v.Plate, &v.VIN, &v.Make, &v.Model, &v.Year, &v.Mileage, &v.Notes, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Vehicle, error) {
	v, err := scanVehicle(r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *PGRepository) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error) {
	where := "WHERE 1=1"
	var args []any
	if req.ClientID > 0 {
		args = append(args, req.ClientID)
		where += fmt.Sprintf(" AND client_id = $%d", len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where += fmt.Sprintf(" AND (plate ILIKE $%d OR vin ILIKE $%d OR make ILIKE $%d OR model ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM vehicles `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM vehicles %s ORDER BY plate LIMIT $%d OFFSET $%d`,
		vehicleColumns, where, len(args)+1, len(args)+2)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, v Vehicle) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO vehicles (client_id, plate, vin, make, model, year, mileage, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		v.ClientID, v.Plate, v.VIN, v.Make, v.Model, v.Year, v.Mileage, v.Notes,
	).Scan(&id)
	if err != nil && db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: plate already registered", httpx.ErrDuplicate)
	}
	return id, err
}

func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE vehicles SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"plate", "vin", "make", "model", "year", "mileage", "notes"} {
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

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
