package invoices

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

// Repository defines persistence operations for invoices.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Invoice, error)
	Details(ctx context.Context, id int64) (*BillingDetails, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	InsertLine(ctx context.Context, line InvoiceLine) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error
	MarkEmailed(ctx context.Context, id int64) error
	NextInvoiceNumber(ctx context.Context, date time.Time) (string, error)
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

const invoiceColumns = `id, number, work_order_id, client_id, status, issued_at, due_at, subtotal, vat_rate, vat_amount, total, notes, emailed_at, paid_at, created_by, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.WorkOrderID, &inv.ClientID, &inv.Status,
		&inv.IssuedAt, &inv.DueAt, &inv.Subtotal, &inv.VATRate, &inv.VATAmount, &inv.Total,
		&inv.Notes, &inv.EmailedAt, &inv.PaidAt, &inv.CreatedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) loadLines(ctx context.Context, inv *Invoice) error {
	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, line_total, line_order
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_order`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.InvoiceID, &l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.LineOrder); err != nil {
			return err
		}
		inv.Lines = append(inv.Lines, l)
	}
	return rows.Err()
}

// Get fetches an invoice with its lines.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Details fetches the invoice together with the joined billing fields.
func (r *PGRepository) Details(ctx context.Context, id int64) (*BillingDetails, error) {
	var d BillingDetails
	err := r.db.QueryRow(ctx, `
		SELECT i.id, i.number, i.work_order_id, i.client_id, i.status, i.issued_at, i.due_at,
			i.subtotal, i.vat_rate, i.vat_amount, i.total, i.notes, i.emailed_at, i.paid_at,
			i.created_by, i.created_at, i.updated_at,
			wo.protocol,
			c.name, COALESCE(c.address, ''), COALESCE(c.city, ''), COALESCE(c.tax_id, ''), COALESCE(c.email, ''),
			v.plate, v.make, v.model
		FROM invoices i
		JOIN work_orders wo ON wo.id = i.work_order_id
		JOIN clients c ON c.id = i.client_id
		JOIN vehicles v ON v.id = wo.vehicle_id
		WHERE i.id = $1`, id).
		Scan(&d.Invoice.ID, &d.Invoice.Number, &d.Invoice.WorkOrderID, &d.Invoice.ClientID, &d.Invoice.Status,
			&d.Invoice.IssuedAt, &d.Invoice.DueAt, &d.Invoice.Subtotal, &d.Invoice.VATRate, &d.Invoice.VATAmount,
			&d.Invoice.Total, &d.Invoice.Notes, &d.Invoice.EmailedAt, &d.Invoice.PaidAt,
			&d.Invoice.CreatedBy, &d.Invoice.CreatedAt, &d.Invoice.UpdatedAt,
			&d.OrderProtocol,
			&d.ClientName, &d.ClientAddress, &d.ClientCity, &d.ClientTaxID, &d.ClientEmail,
			&d.VehiclePlate, &d.VehicleMake, &d.VehicleModel)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadLines(ctx, &d.Invoice); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns invoices with client and order details, newest first.
func (r *PGRepository) List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithDetails, int, error) {
	where := "WHERE 1=1"
	var args []any
	if req.ClientID > 0 {
		args = append(args, req.ClientID)
		where += fmt.Sprintf(" AND i.client_id = $%d", len(args))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		where += fmt.Sprintf(" AND i.status = $%d", len(args))
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where += fmt.Sprintf(" AND (i.number ILIKE $%d OR c.name ILIKE $%d OR wo.protocol ILIKE $%d)", len(args), len(args), len(args))
	}

	base := `FROM invoices i
		JOIN work_orders wo ON wo.id = i.work_order_id
		JOIN clients c ON c.id = i.client_id ` + where

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) `+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT i.id, i.number, i.work_order_id, i.client_id, i.status, i.issued_at, i.due_at,
			i.subtotal, i.vat_rate, i.vat_amount, i.total, i.notes, i.emailed_at, i.paid_at,
			i.created_by, i.created_at, i.updated_at,
			c.name, wo.protocol
		%s ORDER BY i.issued_at DESC, i.id DESC LIMIT $%d OFFSET $%d`, base, len(args)+1, len(args)+2)
	args = append(args, req.PerPage, (req.Page-1)*req.PerPage)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []InvoiceWithDetails
	for rows.Next() {
		var d InvoiceWithDetails
		err := rows.Scan(&d.ID, &d.Number, &d.WorkOrderID, &d.ClientID, &d.Status, &d.IssuedAt, &d.DueAt,
			&d.Subtotal, &d.VATRate, &d.VATAmount, &d.Total, &d.Notes, &d.EmailedAt, &d.PaidAt,
			&d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
			&d.ClientName, &d.OrderProtocol)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// Create inserts a new invoice header.
func (r *PGRepository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (number, work_order_id, client_id, status, issued_at, due_at, subtotal, vat_rate, vat_amount, total, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id`,
		inv.Number, inv.WorkOrderID, inv.ClientID, inv.Status, inv.IssuedAt, inv.DueAt,
		inv.Subtotal, inv.VATRate, inv.VATAmount, inv.Total, inv.Notes, inv.CreatedBy,
	).Scan(&id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, fmt.Errorf("%w: invoice number already taken", httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// InsertLine appends a line to an invoice.
func (r *PGRepository) InsertLine(ctx context.Context, line InvoiceLine) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, line_total, line_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		line.InvoiceID, line.Description, line.Quantity, line.UnitPrice, line.LineTotal, line.LineOrder,
	).Scan(&id)
	return id, err
}

// UpdateStatus moves an invoice to a new status, stamping paid_at on payment.
func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET status = $1, paid_at = CASE WHEN $1 = 'PAID' THEN NOW() ELSE paid_at END, updated_at = NOW()
		WHERE id = $2`,
		status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// MarkEmailed stamps the delivery time.
func (r *PGRepository) MarkEmailed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET emailed_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

// NextInvoiceNumber reserves the next per-year sequence and formats it.
// Must be called inside WithTx so the reservation commits with the invoice.
func (r *PGRepository) NextInvoiceNumber(ctx context.Context, date time.Time) (string, error) {
	year := date.Year()
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_counters (doc_type, year, last_value)
		VALUES ('invoice', $1, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_value = document_counters.last_value + 1
		RETURNING last_value`, year).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%04d", year, seq), nil
}

var _ Repository = (*PGRepository)(nil)
