// Package session reads the minimal per-user state needed to validate an
// authenticated request.
package session

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/torque-erp/torque-erp/internal/platform/db"
)

// ErrNotFound indicates the user row does not exist.
var ErrNotFound = errors.New("session: user not found")

// State is the stored user state consulted on every request.
type State struct {
	Role         string
	Active       bool
	TokenVersion int64
}

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store fetches session state from the users table.
type Store struct {
	db Querier
}

// NewStore constructs a Store.
func NewStore(q Querier) *Store {
	return &Store{db: q}
}

// Query shapes tried in order. Each step drops the newest column so the
// lookup keeps working against a database that has not finished migrating.
// Columns missing from the schema keep the State zero-value defaults set in
// Fetch (active=true, token_version=0), which never widens access: the
// token side of the version comparison defaults to 0 as well.
var lookups = []struct {
	query string
	scan  func(row pgx.Row, st *State) error
}{
	{
		query: `SELECT role, is_active, token_version FROM users WHERE id = $1`,
		scan: func(row pgx.Row, st *State) error {
			return row.Scan(&st.Role, &st.Active, &st.TokenVersion)
		},
	},
	{
		query: `SELECT role, is_active FROM users WHERE id = $1`,
		scan: func(row pgx.Row, st *State) error {
			return row.Scan(&st.Role, &st.Active)
		},
	},
	{
		query: `SELECT role FROM users WHERE id = $1`,
		scan: func(row pgx.Row, st *State) error {
			return row.Scan(&st.Role)
		},
	},
}

// Fetch returns the stored session state for a user. A missing row maps to
// ErrNotFound. Only an "undefined column" storage error selects the next
// reduced query shape; every other storage error propagates unchanged.
func (s *Store) Fetch(ctx context.Context, userID int64) (State, error) {
	var lastErr error
	for _, l := range lookups {
		st := State{Active: true}
		err := l.scan(s.db.QueryRow(ctx, l.query, userID), &st)
		switch {
		case err == nil:
			return st, nil
		case db.IsNoRows(err):
			return State{}, ErrNotFound
		case db.IsUndefinedColumn(err):
			lastErr = err
		default:
			return State{}, err
		}
	}
	return State{}, lastErr
}
