package orders

import "time"

type WorkOrderStatus string

const (
	WorkOrderStatusOpen       WorkOrderStatus = "OPEN"
	WorkOrderStatusInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderStatusCompleted  WorkOrderStatus = "COMPLETED"
	WorkOrderStatusInvoiced   WorkOrderStatus = "INVOICED"
	WorkOrderStatusCancelled  WorkOrderStatus = "CANCELLED"
)

// final reports whether the order can no longer change.
func (s WorkOrderStatus) final() bool {
	return s == WorkOrderStatusInvoiced || s == WorkOrderStatusCancelled
}

type WorkOrder struct {
	ID          int64           `json:"id"`
	Protocol    string          `json:"protocol"`
	ClientID    int64           `json:"client_id"`
	VehicleID   int64           `json:"vehicle_id"`
	Status      WorkOrderStatus `json:"status"`
	Description *string         `json:"description,omitempty"`
	Mileage     *int            `json:"mileage,omitempty"`
	Total       float64         `json:"total"`
	CreatedBy   int64           `json:"created_by"`
	ClosedAt    *time.Time      `json:"closed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []WorkOrderLine `json:"lines,omitempty"`
}

type WorkOrderLine struct {
	ID          int64   `json:"id"`
	WorkOrderID int64   `json:"work_order_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
	LineOrder   int     `json:"line_order"`
}

// WorkOrderWithDetails joins in the names shown on listings.
type WorkOrderWithDetails struct {
	WorkOrder
	ClientName   string `json:"client_name"`
	VehiclePlate string `json:"vehicle_plate"`
}

type CreateWorkOrderRequest struct {
	ClientID    int64                  `json:"client_id" validate:"required,gt=0"`
	VehicleID   int64                  `json:"vehicle_id" validate:"required,gt=0"`
	Description *string                `json:"description,omitempty"`
	Mileage     *int                   `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Lines       []WorkOrderLineRequest `json:"lines" validate:"dive"`
}

type WorkOrderLineRequest struct {
	Description string  `json:"description" validate:"required,max=500"`
	Quantity    float64 `json:"quantity" validate:"required,gt=0"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
}

type UpdateWorkOrderRequest struct {
	Description *string                `json:"description,omitempty"`
	Mileage     *int                   `json:"mileage,omitempty" validate:"omitempty,gte=0"`
	Lines       []WorkOrderLineRequest `json:"lines,omitempty" validate:"omitempty,dive"`
}

type UpdateStatusRequest struct {
	Status WorkOrderStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS COMPLETED CANCELLED"`
}

type ListWorkOrdersRequest struct {
	ClientID  int64
	VehicleID int64
	Status    WorkOrderStatus
	Search    string
	Page      int
	PerPage   int
}
