package settings

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/torque-erp/torque-erp/internal/platform/db"
)

// Company holds the single-row business profile printed on invoices.
type Company struct {
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	PostalCode  string    `json:"postal_code"`
	TaxID       string    `json:"tax_id"`
	BankAccount string    `json:"bank_account"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	VATRate     float64   `json:"vat_rate"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Address     string  `json:"address" validate:"max=200"`
	City        string  `json:"city" validate:"max=100"`
	PostalCode  string  `json:"postal_code" validate:"max=20"`
	TaxID       string  `json:"tax_id" validate:"max=50"`
	BankAccount string  `json:"bank_account" validate:"max=50"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Phone       string  `json:"phone" validate:"max=50"`
	VATRate     float64 `json:"vat_rate" validate:"gte=0,lte=100"`
}

// Repository defines persistence for the company profile.
type Repository interface {
	Get(ctx context.Context) (*Company, error)
	Save(ctx context.Context, c Company) error
}

// PGRepository implements Repository using PostgreSQL. The table holds a
// single row keyed id = 1.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get returns the stored profile, or an empty one when never saved.
func (r *PGRepository) Get(ctx context.Context) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT name, address, city, postal_code, tax_id, bank_account, email, phone, vat_rate, updated_at
		FROM company_settings WHERE id = 1`).
		Scan(&c.Name, &c.Address, &c.City, &c.PostalCode, &c.TaxID, &c.BankAccount, &c.Email, &c.Phone, &c.VATRate, &c.UpdatedAt)
	if err != nil {
		if db.IsNoRows(err) {
			return &Company{}, nil
		}
		return nil, err
	}
	return &c, nil
}

// Save upserts the profile row.
func (r *PGRepository) Save(ctx context.Context, c Company) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_settings (id, name, address, city, postal_code, tax_id, bank_account, email, phone, vat_rate, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, city = EXCLUDED.city,
			postal_code = EXCLUDED.postal_code, tax_id = EXCLUDED.tax_id,
			bank_account = EXCLUDED.bank_account, email = EXCLUDED.email,
			phone = EXCLUDED.phone, vat_rate = EXCLUDED.vat_rate, updated_at = NOW()`,
		c.Name, c.Address, c.City, c.PostalCode, c.TaxID, c.BankAccount, c.Email, c.Phone, c.VATRate)
	return err
}

var _ Repository = (*PGRepository)(nil)

// Service wraps the company profile.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context) (*Company, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, req UpdateRequest) (*Company, error) {
	err := s.repo.Save(ctx, Company{
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		PostalCode:  req.PostalCode,
		TaxID:       req.TaxID,
		BankAccount: req.BankAccount,
		Email:       req.Email,
		Phone:       req.Phone,
		VATRate:     req.VATRate,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx)
}
