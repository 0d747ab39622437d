package users

import "time"

// User is a managed account as seen by administrators. The password hash
// never leaves the repository layer.
type User struct {
	ID           int64     `json:"id"`
	Nickname     string    `json:"nickname"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	TokenVersion int64     `json:"token_version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
