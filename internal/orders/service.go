package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

var (
	// ErrClientMissing rejects orders pointed at a nonexistent client.
	ErrClientMissing = fmt.Errorf("%w: client does not exist", httpx.ErrValidation)
	// ErrVehicleMismatch rejects orders whose vehicle belongs to another client.
	ErrVehicleMismatch = fmt.Errorf("%w: vehicle does not belong to client", httpx.ErrValidation)
	// ErrInvalidStatus rejects disallowed status transitions.
	ErrInvalidStatus = errors.New("orders: invalid status transition")
)

// ClientChecker verifies that the client exists.
type ClientChecker interface {
	Exists(ctx context.Context, clientID int64) (bool, error)
}

// VehicleOwnership resolves which client a vehicle belongs to.
type VehicleOwnership interface {
	OwnerOf(ctx context.Context, vehicleID int64) (int64, error)
}

// Service wraps work-order business rules.
type Service struct {
	repo     Repository
	clients  ClientChecker
	vehicles VehicleOwnership
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, clients ClientChecker, vehicles VehicleOwnership) *Service {
	return &Service{repo: repo, clients: clients, vehicles: vehicles, now: time.Now}
}

func (s *Service) Get(ctx context.Context, id int64) (*WorkOrder, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListWorkOrdersRequest) ([]WorkOrderWithDetails, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}

// Create reserves a protocol number and inserts the order with its lines in
// one transaction.
func (s *Service) Create(ctx context.Context, req CreateWorkOrderRequest, createdBy int64) (*WorkOrder, error) {
	if err := s.checkOwnership(ctx, req.ClientID, req.VehicleID); err != nil {
		return nil, err
	}

	order := WorkOrder{
		ClientID:    req.ClientID,
		VehicleID:   req.VehicleID,
		Status:      WorkOrderStatusOpen,
		Description: req.Description,
		Mileage:     req.Mileage,
		Total:       linesTotal(req.Lines),
		CreatedBy:   createdBy,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		protocol, err := repo.NextProtocolNumber(ctx, s.now())
		if err != nil {
			return fmt.Errorf("reserve protocol number: %w", err)
		}
		order.Protocol = protocol

		orderID, err = repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return insertLines(ctx, repo, orderID, req.Lines)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, orderID)
}

// Update edits an open order. When lines are given the whole set is replaced.
func (s *Service) Update(ctx context.Context, id int64, req UpdateWorkOrderRequest) (*WorkOrder, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != WorkOrderStatusOpen && current.Status != WorkOrderStatusInProgress {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidStatus, current.Protocol, current.Status)
	}

	updates := make(map[string]any)
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Mileage != nil {
		updates["mileage"] = *req.Mileage
	}
	if req.Lines != nil {
		updates["total"] = linesTotal(req.Lines)
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if len(updates) > 0 {
			if err := repo.Update(ctx, id, updates); err != nil {
				return err
			}
		}
		if req.Lines == nil {
			return nil
		}
		if err := repo.DeleteLines(ctx, id); err != nil {
			return err
		}
		return insertLines(ctx, repo, id, req.Lines)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves an order along the workshop flow. Final orders stay final;
// the invoiced state is only reachable through MarkInvoiced.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status WorkOrderStatus) (*WorkOrder, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.final() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrInvalidStatus, current.Protocol, current.Status)
	}
	if status == WorkOrderStatusInvoiced {
		return nil, fmt.Errorf("%w: invoiced is set by invoicing", ErrInvalidStatus)
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

// MarkInvoiced flags a completed order as invoiced. Called by the invoicing
// flow inside its own transaction boundary.
func (s *Service) MarkInvoiced(ctx context.Context, id int64) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.Status != WorkOrderStatusCompleted {
		return fmt.Errorf("%w: only completed orders can be invoiced", ErrInvalidStatus)
	}
	return s.repo.UpdateStatus(ctx, id, WorkOrderStatusInvoiced)
}

// EnsureEditable verifies the order exists and still accepts bookings.
func (s *Service) EnsureEditable(ctx context.Context, id int64) error {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status.final() {
		return fmt.Errorf("%w: order %s is %s", ErrInvalidStatus, o.Protocol, o.Status)
	}
	return nil
}

func (s *Service) checkOwnership(ctx context.Context, clientID, vehicleID int64) error {
	ok, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrClientMissing
	}
	owner, err := s.vehicles.OwnerOf(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: vehicle does not exist", httpx.ErrValidation)
		}
		return err
	}
	if owner != clientID {
		return ErrVehicleMismatch
	}
	return nil
}

func insertLines(ctx context.Context, repo Repository, orderID int64, lines []WorkOrderLineRequest) error {
	for i, lr := range lines {
		line := WorkOrderLine{
			WorkOrderID: orderID,
			Description: lr.Description,
			Quantity:    lr.Quantity,
			UnitPrice:   lr.UnitPrice,
			LineTotal:   lr.Quantity * lr.UnitPrice,
			LineOrder:   i + 1,
		}
		if _, err := repo.InsertLine(ctx, line); err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}
	return nil
}

func linesTotal(lines []WorkOrderLineRequest) float64 {
	var total float64
	for _, lr := range lines {
		total += lr.Quantity * lr.UnitPrice
	}
	return total
}
