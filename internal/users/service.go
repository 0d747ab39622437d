package users

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/shared"
)

// Service wraps user administration rules. Every mutation is recorded in
// the audit log with the acting administrator.
type Service struct {
	repo  Repository
	perms *permissions.Service
	audit *shared.AuditLogger
}

// NewService constructs a Service.
func NewService(repo Repository, perms *permissions.Service, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, perms: perms, audit: audit}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Get fetches one user.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new account and provisions its default permission
// rows. Admin accounts get no rows; their access is implied by role.
func (s *Service) Create(ctx context.Context, req CreateUserRequest, actor *auth.Identity) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.repo.Create(ctx, req.Nickname, string(hash), req.FirstName, req.LastName, req.Role)
	if err != nil {
		return nil, err
	}
	if req.Role != auth.RoleAdmin {
		if err := s.perms.Provision(ctx, id); err != nil {
			return nil, fmt.Errorf("provision permissions: %w", err)
		}
	}
	s.recordAudit(ctx, actor, "user.create", id, map[string]any{"nickname": req.Nickname, "role": req.Role})
	return s.repo.Get(ctx, id)
}

// Update applies a partial update. A role or active change takes effect on
// the user's next request since both are read from the store during
// authentication.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest, actor *auth.Identity) (*User, error) {
	updates := make(map[string]any)
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Role != nil {
		updates["role"] = *req.Role
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		meta := map[string]any{}
		for col := range updates {
			if col == "password_hash" {
				meta["password"] = "changed"
				continue
			}
			meta[col] = updates[col]
		}
		s.recordAudit(ctx, actor, "user.update", id, meta)
	}
	return s.repo.Get(ctx, id)
}

// ForceLogout bumps the user's token version, revoking every token issued
// before the bump.
func (s *Service) ForceLogout(ctx context.Context, id int64, actor *auth.Identity) error {
	if err := s.repo.BumpTokenVersion(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user.force_logout", id, nil)
	return nil
}

// ListPermissions returns the directory of permission records for a user.
// Admin targets get the synthesized full-access matrix.
func (s *Service) ListPermissions(ctx context.Context, id int64) ([]permissions.Record, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == auth.RoleAdmin {
		return permissions.FullAccessRecords(id), nil
	}
	return s.perms.List(ctx, id)
}

// OverwritePermissions replaces the user's permission matrix wholesale.
func (s *Service) OverwritePermissions(ctx context.Context, id int64, req UpdatePermissionsRequest, actor *auth.Identity) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	records := make([]permissions.Record, 0, len(req.Permissions))
	for _, entry := range req.Permissions {
		records = append(records, entry.record(id))
	}
	if err := s.perms.Overwrite(ctx, id, records); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "user.permissions_overwrite", id, map[string]any{"modules": len(records)})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.Identity, action string, userID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	// Audit failures never fail the administrative action itself.
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "user",
		EntityID: strconv.FormatInt(userID, 10),
		Meta:     meta,
	})
}
