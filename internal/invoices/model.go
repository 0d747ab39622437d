package invoices

import "time"

type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

type Invoice struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	WorkOrderID int64         `json:"work_order_id"`
	ClientID    int64         `json:"client_id"`
	Status      InvoiceStatus `json:"status"`
	IssuedAt    time.Time     `json:"issued_at"`
	DueAt       time.Time     `json:"due_at"`
	Subtotal    float64       `json:"subtotal"`
	VATRate     float64       `json:"vat_rate"`
	VATAmount   float64       `json:"vat_amount"`
	Total       float64       `json:"total"`
	Notes       *string       `json:"notes,omitempty"`
	EmailedAt   *time.Time    `json:"emailed_at,omitempty"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CreatedBy   int64         `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Lines       []InvoiceLine `json:"lines,omitempty"`
}

// InvoiceLine is a snapshot of a work-order line at issue time.
type InvoiceLine struct {
	ID          int64   `json:"id"`
	InvoiceID   int64   `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	LineOrder   int     `json:"line_order"`
}

// InvoiceWithDetails joins in listing columns.
type InvoiceWithDetails struct {
	Invoice
	ClientName    string `json:"client_name"`
	OrderProtocol string `json:"order_protocol"`
}

// BillingDetails carries the joined fields the PDF layout needs.
type BillingDetails struct {
	Invoice       Invoice
	OrderProtocol string
	ClientName    string
	ClientAddress string
	ClientCity    string
	ClientTaxID   string
	ClientEmail   string
	VehiclePlate  string
	VehicleMake   string
	VehicleModel  string
}

type CreateInvoiceRequest struct {
	WorkOrderID int64   `json:"work_order_id" validate:"required,gt=0"`
	DueDays     int     `json:"due_days" validate:"omitempty,gte=0,lte=365"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status InvoiceStatus `json:"status" validate:"required,oneof=PAID CANCELLED"`
}

type ListInvoicesRequest struct {
	ClientID int64
	Status   InvoiceStatus
	Search   string
	Page     int
	PerPage  int
}
