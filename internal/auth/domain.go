package auth

import (
	"errors"
	"time"
)

// Roles stored on user records.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Authentication failure kinds. The HTTP layer maps each to a distinct
// client-facing message; they are never collapsed into a single 401.
var (
	ErrNoToken      = errors.New("auth: missing token")
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrUserNotFound = errors.New("auth: user not found")
	ErrUserInactive = errors.New("auth: account inactive")
	ErrTokenRevoked = errors.New("auth: session expired")
)

// Identity is the verified actor attached to a request. Role comes from the
// store, which is authoritative; display fields come from the token claims.
type Identity struct {
	ID           int64  `json:"id"`
	Nickname     string `json:"nickname"`
	Role         string `json:"role"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	FullName     string `json:"full_name"`
	TokenVersion int64  `json:"-"`
}

// IsAdmin reports whether the identity bypasses permission checks.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// User represents a user account as read for login.
type User struct {
	ID           int64
	Nickname     string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         string
	IsActive     bool
	TokenVersion int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins the display name fields.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
