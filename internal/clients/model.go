package clients

import "time"

// Client is a customer of the workshop.
type Client struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      *string   `json:"email,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Address    *string   `json:"address,omitempty"`
	City       *string   `json:"city,omitempty"`
	PostalCode *string   `json:"postal_code,omitempty"`
	TaxID      *string   `json:"tax_id,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateClientRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	TaxID      *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Notes      *string `json:"notes,omitempty"`
}

type UpdateClientRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone      *string `json:"phone,omitempty" validate:"omitempty,max=50"`
	Address    *string `json:"address,omitempty" validate:"omitempty,max=200"`
	City       *string `json:"city,omitempty" validate:"omitempty,max=100"`
	PostalCode *string `json:"postal_code,omitempty" validate:"omitempty,max=20"`
	TaxID      *string `json:"tax_id,omitempty" validate:"omitempty,max=50"`
	Notes      *string `json:"notes,omitempty"`
}

type ListClientsRequest struct {
	Search  string
	Page    int
	PerPage int
}
