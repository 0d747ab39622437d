package vehicles

import "time"

// Vehicle belongs to a client and is the subject of work orders.
type Vehicle struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"client_id"`
	Plate     string    `json:"plate"`
	VIN       *string   `json:"vin,omitempty"`
	Make      string    `json:"make"`
	Model     string    `json:"model"`
	Year      *int      `json:"year,omitempty"`
	Mileage   *int      `json:"mileage,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateVehicleRequest struct {
	ClientID int64   `json:"client_id" validate:"required,gt=0"`
	Plate    string  `json:"plate" validate:"required,max=20"`
	VIN      *string `json:"vin,omitempty" validate:"omitempty,max=17"`
	Make     string  `json:"make" validate:"required,max=100"`
	Model    string  `json:"model" validate:"required,max=100"`
	Year     *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Mileage  *int    `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Notes    *string `json:"notes,omitempty"`
}

type UpdateVehicleRequest struct {
	Plate   *string `json:"plate,omitempty" validate:"omitempty,max=20"`
	VIN     *string `json:"vin,omitempty" validate:"omitempty,max=17"`
	Make    *string `json:"make,omitempty" validate:"omitempty,max=100"`
	Model   *string `json:"model,omitempty" validate:"omitempty,max=100"`
	Year    *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Mileage *int    `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Notes   *string `json:"notes,omitempty"`
}

type ListVehiclesRequest struct {
	ClientID int64
	Search   string
	Page     int
	PerPage  int
}
