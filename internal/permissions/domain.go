// Package permissions implements the per-user, per-module permission
// matrix gating every business route.
package permissions

// Action is a permission-checked operation kind.
type Action string

// Actions checked against a permission record.
const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// Module names used as the unit of permission granularity. Routes are wired
// against these at startup; they are never user input.
const (
	ModuleClients   = "clients"
	ModuleVehicles  = "vehicles"
	ModuleOrders    = "orders"
	ModuleWorktimes = "worktimes"
	ModuleInvoices  = "invoices"
	ModuleSettings  = "settings"
	ModuleUsers     = "users"
)

// Modules lists every known module in directory order.
func Modules() []string {
	return []string{
		ModuleClients,
		ModuleVehicles,
		ModuleOrders,
		ModuleWorktimes,
		ModuleInvoices,
		ModuleSettings,
		ModuleUsers,
	}
}

// Record is the stored allow/deny matrix for one (user, module) pair.
// The flags are independent: module access does not imply read, delete
// does not imply write.
type Record struct {
	UserID          int64  `json:"user_id"`
	Module          string `json:"module"`
	CanAccessModule bool   `json:"can_access_module"`
	CanRead         bool   `json:"can_read"`
	CanWrite        bool   `json:"can_write"`
	CanDelete       bool   `json:"can_delete"`
}

// DenyReason explains a negative permission decision.
type DenyReason string

// Deny reasons surfaced in decisions.
const (
	DenyNoPermissionRow DenyReason = "no_permission_row"
	DenyModuleDisabled  DenyReason = "module_disabled"
	DenyActionDenied    DenyReason = "action_denied"
)

// Decision is the outcome of a permission check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

// Allow is the positive decision.
var Allow = Decision{Allowed: true}

// Deny builds a negative decision.
func Deny(reason DenyReason) Decision {
	return Decision{Reason: reason}
}

// DefaultRecords returns the permission rows provisioned for a new user:
// every module visible and readable, nothing writable.
func DefaultRecords(userID int64) []Record {
	modules := Modules()
	records := make([]Record, 0, len(modules))
	for _, m := range modules {
		records = append(records, Record{
			UserID:          userID,
			Module:          m,
			CanAccessModule: true,
			CanRead:         true,
		})
	}
	return records
}

// FullAccessRecords synthesizes an all-true matrix; used for admin
// identities, which have no stored rows.
func FullAccessRecords(userID int64) []Record {
	modules := Modules()
	records := make([]Record, 0, len(modules))
	for _, m := range modules {
		records = append(records, Record{
			UserID:          userID,
			Module:          m,
			CanAccessModule: true,
			CanRead:         true,
			CanWrite:        true,
			CanDelete:       true,
		})
	}
	return records
}
