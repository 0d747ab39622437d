package permissions

import (
	"context"
	"errors"
	"fmt"

	"github.com/torque-erp/torque-erp/internal/auth"
)

// Service resolves permission decisions and lists permission sets.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Check decides whether the identity may perform action on module.
//
// Admins are allowed unconditionally and never touch storage. For everyone
// else the stored record decides; the row's flags are independent of each
// other. The error return is for storage failures only, never for a deny.
func (s *Service) Check(ctx context.Context, identity *auth.Identity, module string, action Action) (Decision, error) {
	if identity.IsAdmin() {
		return Allow, nil
	}
	rec, err := s.repo.Get(ctx, identity.ID, module)
	if err != nil {
		if errors.Is(err, ErrNoRecord) {
			return Deny(DenyNoPermissionRow), nil
		}
		return Decision{}, fmt.Errorf("permissions: get %s/%d: %w", module, identity.ID, err)
	}
	if !rec.CanAccessModule {
		return Deny(DenyModuleDisabled), nil
	}
	allowed := false
	switch action {
	case ActionRead:
		allowed = rec.CanRead
	case ActionWrite:
		allowed = rec.CanWrite
	case ActionDelete:
		allowed = rec.CanDelete
	}
	if !allowed {
		return Deny(DenyActionDenied), nil
	}
	return Allow, nil
}

// List returns the stored permission records for a user ordered by module.
// Pure read; admin synthesis is the caller's concern (see ListFor).
func (s *Service) List(ctx context.Context, userID int64) ([]Record, error) {
	return s.repo.List(ctx, userID)
}

// ListFor returns the effective permission set for an identity. Admins get
// a synthesized full-access matrix since they have no stored rows.
func (s *Service) ListFor(ctx context.Context, identity *auth.Identity) ([]Record, error) {
	if identity.IsAdmin() {
		return FullAccessRecords(identity.ID), nil
	}
	return s.repo.List(ctx, identity.ID)
}

// Provision inserts the default permission rows for a newly created user.
func (s *Service) Provision(ctx context.Context, userID int64) error {
	return s.repo.Replace(ctx, userID, DefaultRecords(userID))
}

// Overwrite replaces a user's permission matrix wholesale.
func (s *Service) Overwrite(ctx context.Context, userID int64, records []Record) error {
	for i := range records {
		records[i].UserID = userID
	}
	return s.repo.Replace(ctx, userID, records)
}
