package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/torque-erp/torque-erp/internal/session"
	"github.com/torque-erp/torque-erp/internal/token"
)

// TokenCodec issues and verifies access tokens.
type TokenCodec interface {
	Issue(claims token.Claims) (string, error)
	Verify(raw string) (*token.Claims, error)
}

// SessionReader fetches stored per-user session state.
type SessionReader interface {
	Fetch(ctx context.Context, userID int64) (session.State, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	tokens   TokenCodec
	sessions SessionReader
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens TokenCodec, sessions SessionReader) *Service {
	return &Service{repo: repo, tokens: tokens, sessions: sessions}
}

// ErrInvalidCredentials indicates a failed login. Unknown nickname, wrong
// password and inactive account all map here so login responses leak
// nothing about which part failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Login validates nickname/password credentials and issues an access token
// pinned to the user's current token version.
func (s *Service) Login(ctx context.Context, nickname, password string) (string, *Identity, error) {
	user, err := s.repo.FindByNickname(ctx, nickname)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	identity := &Identity{
		ID:           user.ID,
		Nickname:     user.Nickname,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName(),
		TokenVersion: user.TokenVersion,
	}
	raw, err := s.tokens.Issue(token.Claims{
		UserID:       user.ID,
		Nickname:     user.Nickname,
		Role:         user.Role,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		FullName:     user.FullName(),
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return raw, identity, nil
}

// Authenticate turns a bearer token string into a verified Identity.
//
// The checks are ordered: decode, user lookup, active flag, then the
// version comparison. The stored state is authoritative for role and
// active; display fields are trusted from the claims since they only ever
// feed presentation.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrNoToken
	}
	claims, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	state, err := s.sessions.Fetch(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !state.Active {
		return nil, ErrUserInactive
	}
	if claims.TokenVersion != state.TokenVersion {
		return nil, ErrTokenRevoked
	}
	return &Identity{
		ID:           claims.UserID,
		Nickname:     claims.Nickname,
		Role:         state.Role,
		FirstName:    claims.FirstName,
		LastName:     claims.LastName,
		FullName:     claims.FullName,
		TokenVersion: claims.TokenVersion,
	}, nil
}

// Logout invalidates every token issued to the user by bumping the stored
// token version.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.BumpTokenVersion(ctx, userID)
}
