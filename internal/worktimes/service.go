package worktimes

import (
	"context"
	"fmt"
	"time"

	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// ErrEndBeforeStart rejects entries that end before they begin.
var ErrEndBeforeStart = fmt.Errorf("%w: ended_at is before started_at", httpx.ErrValidation)

// OrderGuard verifies that the target order still accepts bookings.
type OrderGuard interface {
	EnsureEditable(ctx context.Context, orderID int64) error
}

// Service wraps work-time business rules.
type Service struct {
	repo   Repository
	orders OrderGuard
}

// NewService constructs a Service.
func NewService(repo Repository, orders OrderGuard) *Service {
	return &Service{repo: repo, orders: orders}
}

func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListEntriesRequest) ([]EntryWithUser, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}

// Create books time against an order for the acting user.
func (s *Service) Create(ctx context.Context, req CreateEntryRequest, userID int64) (*Entry, error) {
	if err := s.orders.EnsureEditable(ctx, req.WorkOrderID); err != nil {
		return nil, err
	}
	minutes, err := spanMinutes(req.StartedAt, req.EndedAt)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Entry{
		WorkOrderID: req.WorkOrderID,
		UserID:      userID,
		StartedAt:   req.StartedAt,
		EndedAt:     req.EndedAt,
		Minutes:     minutes,
		Note:        req.Note,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateEntryRequest) (*Entry, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	started := current.StartedAt
	ended := current.EndedAt
	updates := make(map[string]any)
	if req.StartedAt != nil {
		started = *req.StartedAt
		updates["started_at"] = started
	}
	if req.EndedAt != nil {
		ended = req.EndedAt
		updates["ended_at"] = *req.EndedAt
	}
	if req.Note != nil {
		updates["note"] = *req.Note
	}
	if req.StartedAt != nil || req.EndedAt != nil {
		minutes, err := spanMinutes(started, ended)
		if err != nil {
			return nil, err
		}
		updates["minutes"] = minutes
	}

	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// spanMinutes computes the booked duration. Open entries book zero until
// they are closed.
func spanMinutes(started time.Time, ended *time.Time) (int, error) {
	if ended == nil {
		return 0, nil
	}
	if ended.Before(started) {
		return 0, ErrEndBeforeStart
	}
	return int(ended.Sub(started) / time.Minute), nil
}
