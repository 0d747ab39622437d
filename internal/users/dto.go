package users

import "github.com/torque-erp/torque-erp/internal/permissions"

type CreateUserRequest struct {
	Nickname  string `json:"nickname" validate:"required,min=3,max=100"`
	Password  string `json:"password" validate:"required,min=8,max=200"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role" validate:"required,oneof=user admin"`
}

type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
	IsActive  *bool   `json:"is_active,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8,max=200"`
}

type UpdatePermissionsRequest struct {
	Permissions []PermissionEntry `json:"permissions" validate:"required,dive"`
}

type PermissionEntry struct {
	Module          string `json:"module" validate:"required"`
	CanAccessModule bool   `json:"can_access_module"`
	CanRead         bool   `json:"can_read"`
	CanWrite        bool   `json:"can_write"`
	CanDelete       bool   `json:"can_delete"`
}

func (e PermissionEntry) record(userID int64) permissions.Record {
	return permissions.Record{
		UserID:          userID,
		Module:          e.Module,
		CanAccessModule: e.CanAccessModule,
		CanRead:         e.CanRead,
		CanWrite:        e.CanWrite,
		CanDelete:       e.CanDelete,
	}
}
