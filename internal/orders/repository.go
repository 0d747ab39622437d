package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Repository defines persistence operations for work orders.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*WorkOrder, error)
	List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrderWithDetails, int, error)
	Create(ctx context.Context, o WorkOrder) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	UpdateStatus(ctx context.Context, id int64, status WorkOrderStatus) error
	InsertLine(ctx context.Context, line WorkOrderLine) (int64, error)
	DeleteLines(ctx context.Context, orderID int64) error
	NextProtocolNumber(ctx context.Context, date time.Time) (string, error)
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn against a transaction-bound copy of the repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, protocol, client_id, vehicle_id, status, description, mileage, total, created_by, closed_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*WorkOrder, error) {
	var o WorkOrder
	err := row.Scan(&o.ID, &o.Protocol, &o.ClientID, &o.VehicleID, &o.Status, &o.Description, &o.Mileage, &o.Total, &o.CreatedBy, &o.ClosedAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Get fetches a work order with its lines.
func (r *PGRepository) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM work_orders WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, work_order_id, description, quantity, unit_price, line_total, line_order
		FROM work_order_lines WHERE work_order_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l WorkOrderLine
		if err := rows.Scan(&l.ID, &l.WorkOrderID, &l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.LineOrder); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

// List returns work orders with client and vehicle details, newest first.
func (r *PGRepository) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrderWithDetails, int, error) {
	where := "WHERE 1=1"
	var args []any
	if req.ClientID > 0 {
		args = append(args, req.ClientID)
		where += fmt.Sprintf(" AND wo.client_id = $%d", len(args))
	}
	if req.VehicleID > 0 {
		args = append(args, req.VehicleID)
		where += fmt.Sprintf(" AND wo.vehicle_id = $%d", len(args))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		where += fmt.Sprintf(" AND wo.status = $%d", len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where += fmt.Sprintf(" AND (wo.protocol ILIKE $%d OR c.name ILIKE $%d OR v.plate ILIKE $%d)", len(args), len(args), len(args))
	}

	base := `FROM work_orders wo
		JOIN clients c ON c.id = wo.client_id
		JOIN vehicles v ON v.id = wo.vehicle_id ` + where

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT wo.id, wo.protocol, wo.client_id, wo.vehicle_id, wo.status,
			wo.description, wo.mileage, wo.total, wo.created_by, wo.closed_at, wo.created_at, wo.updated_at,
			c.name, v.plate
		%s ORDER BY wo.created_at DESC LIMIT $%d OFFSET $%d`, base, len(args)+1, len(args)+2)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []WorkOrderWithDetails
	for rows.Next() {
		var d WorkOrderWithDetails
		err := rows.Scan(&d.ID, &d.Protocol, &d.ClientID, &d.VehicleID, &d.Status,
			&d.Description, &d.Mileage, &d.Total, &d.CreatedBy, &d.ClosedAt, &d.CreatedAt, &d.UpdatedAt,
			&d.ClientName, &d.VehiclePlate)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// Create inserts a new work order header.
func (r *PGRepository) Create(ctx context.Context, o WorkOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO work_orders (protocol, client_id, vehicle_id, status, description, mileage, total, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id`,
		o.Protocol, o.ClientID, o.VehicleID, o.Status, o.Description, o.Mileage, o.Total, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: protocol number already taken", httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// Update applies a partial column update.
func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := "UPDATE work_orders SET updated_at = NOW()"
	var args []any
	argPos := 1
	for _, col := range []string{"description", "mileage", "total"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// UpdateStatus moves a work order to a new status, stamping closed_at on final states.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status WorkOrderStatus) error {
	closed := status.final() || status == WorkOrderStatusCompleted
	tag, err := r.db.Exec(ctx, `
		UPDATE work_orders
		SET status = $1, closed_at = CASE WHEN $2 THEN NOW() ELSE NULL END, updated_at = NOW()
		WHERE id = $3`,
		status, closed, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// InsertLine appends a line to a work order.
func (r *PGRepository) InsertLine(ctx context.Context, line WorkOrderLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO work_order_lines (work_order_id, description, quantity, unit_price, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		line.WorkOrderID, line.Description, line.Quantity, line.UnitPrice, line.LineTotal, line.LineOrder,
	).Scan(&id)
	return id, err
}

// DeleteLines removes all lines of a work order.
func (r *PGRepository) DeleteLines(ctx context.Context, orderID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM work_order_lines WHERE work_order_id = $1`, orderID)
	return err
}

// NextProtocolNumber reserves the next per-year sequence and formats it.
// Must be called inside WithTx so the reservation commits with the order.
func (r *PGRepository) NextProtocolNumber(ctx context.Context, date time.Time) (string, error) {
	year := date.Year()
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_counters (doc_type, year, last_value)
		VALUES ('work_order', $1, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("WO-%d-%04d", year, seq), nil
}

var _ Repository = (*PGRepository)(nil)
