package vehicles

import (
	"context"
	"fmt"

	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// ErrClientMissing rejects vehicles pointed at a nonexistent client.
var ErrClientMissing = fmt.Errorf("%w: client does not exist", httpx.ErrValidation)

// ClientChecker verifies that the owning client exists before a vehicle is
// attached to it.
type ClientChecker interface {
	Exists(ctx context.Context, clientID int64) (bool, error)
}

// Service wraps vehicle business rules.
type Service struct {
	repo    Repository
	clients ClientChecker
}

// NewService constructs a Service.
func NewService(repo Repository, clients ClientChecker) *Service {
	return &Service{repo: repo, clients: clients}
}

func (s *Service) Get(ctx context.Context, id int64) (*Vehicle, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, req ListVehiclesRequest) ([]Vehicle, int, error) {
	if req.PerPage <= 0 {
		req.PerPage = 20
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	return s.repo.List(ctx, req)
}

func (s *Service) Create(ctx context.Context, req CreateVehicleRequest) (*Vehicle, error) {
	if s.clients != nil {
		ok, err := s.clients.Exists(ctx, req.ClientID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrClientMissing
		}
	}
	id, err := s.repo.Create(ctx, Vehicle{
		ClientID: req.ClientID,
		Plate:    req.Plate,
		VIN:      req.VIN,
		Make:     req.Make,
		Model:    req.Model,
		Year:     req.Year,
		Mileage:  req.Mileage,
		Notes:    req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateVehicleRequest) (*Vehicle, error) {
	updates := make(map[string]any)
	if req.Plate != nil {
		updates["plate"] = *req.Plate
	}
	if req.VIN != nil {
		updates["vin"] = *req.VIN
	}
	if req.Make != nil {
		updates["make"] = *req.Make
	}
	if req.Model != nil {
		updates["model"] = *req.Model
	}
	if req.Year != nil {
		updates["year"] = *req.Year
	}
	if req.Mileage != nil {
		updates["mileage"] = *req.Mileage
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
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

// OwnerOf returns the client a vehicle belongs to.
func (s *Service) OwnerOf(ctx context.Context, id int64) (int64, error) {
	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return v.ClientID, nil
}
