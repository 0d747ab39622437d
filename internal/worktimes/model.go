package worktimes

import "time"

// Entry is one block of time booked against a work order.
type Entry struct {
	ID          int64      `json:"id"`
	WorkOrderID int64      `json:"work_order_id"`
	UserID      int64      `json:"user_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Minutes     int        `json:"minutes"`
	Note        *string    `json:"note,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EntryWithUser joins in the technician's name for listings.
type EntryWithUser struct {
	Entry
	UserName string `json:"user_name"`
}

type CreateEntryRequest struct {
	WorkOrderID int64      `json:"work_order_id" validate:"required,gt=0"`
	StartedAt   time.Time  `json:"started_at" validate:"required"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Note        *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

type UpdateEntryRequest struct {
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Note      *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

type ListEntriesRequest struct {
	WorkOrderID int64
	UserID      int64
	From        time.Time
	To          time.Time
	Page        int
	PerPage     int
}
