package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/session"
	"github.com/torque-erp/torque-erp/internal/token"
)

type stubRepo struct {
	user    *auth.User
	bumped  int64
	bumpErr error
}

func (s *stubRepo) FindByNickname(ctx context.Context, nickname string) (*auth.User, error) {
	if s.user == nil || s.user.Nickname != nickname {
		return nil, errors.New("not found")
	}
	return s.user, nil
}

func (s *stubRepo) BumpTokenVersion(ctx context.Context, userID int64) error {
	if s.bumpErr != nil {
		return s.bumpErr
	}
	s.bumped = userID
	if s.user != nil {
		s.user.TokenVersion++
	}
	return nil
}

// stubSessions serves session state from memory and mirrors stubRepo's user.
type stubSessions struct {
	states map[int64]session.State
	err    error
}

func (s *stubSessions) Fetch(ctx context.Context, userID int64) (session.State, error) {
	if s.err != nil {
		return session.State{}, s.err
	}
	st, ok := s.states[userID]
	if !ok {
		return session.State{}, session.ErrNotFound
	}
	return st, nil
}

func newCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec("0123456789abcdef0123456789abcdef", "torque-test")
	require.NoError(t, err)
	return codec
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	codec := newCodec(t)
	repo := &stubRepo{user: &auth.User{
		ID: 1, Nickname: "jdoe", PasswordHash: hash(t, "secret"),
		FirstName: "Jane", LastName: "Doe", Role: auth.RoleUser, IsActive: true,
	}}
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 0},
	}}
	svc := auth.NewService(repo, codec, sessions)

	raw, identity, err := svc.Login(context.Background(), "jdoe", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", identity.FullName)

	got, err := svc.Authenticate(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, auth.RoleUser, got.Role)
}

func TestLoginFailures(t *testing.T) {
	codec := newCodec(t)
	repo := &stubRepo{user: &auth.User{
		ID: 1, Nickname: "jdoe", PasswordHash: hash(t, "secret"), Role: auth.RoleUser, IsActive: true,
	}}
	svc := auth.NewService(repo, codec, &stubSessions{})

	cases := []struct {
		name, nickname, password string
	}{
		{"unknown user", "ghost", "secret"},
		{"wrong password", "jdoe", "wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.nickname, tc.password)
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}

	repo.user.IsActive = false
	_, _, err := svc.Login(context.Background(), "jdoe", "secret")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials, "inactive account must look like bad credentials")
}

func TestAuthenticateFailureKinds(t *testing.T) {
	codec := newCodec(t)
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 0},
	}}
	svc := auth.NewService(&stubRepo{}, codec, sessions)

	valid, err := codec.Issue(token.Claims{UserID: 1, Nickname: "jdoe", Role: auth.RoleUser})
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "")
		assert.ErrorIs(t, err, auth.ErrNoToken)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("user not found", func(t *testing.T) {
		orphan, err := codec.Issue(token.Claims{UserID: 42, Role: auth.RoleUser})
		require.NoError(t, err)
		_, err = svc.Authenticate(context.Background(), orphan)
		assert.ErrorIs(t, err, auth.ErrUserNotFound)
	})

	t.Run("inactive user", func(t *testing.T) {
		sessions.states[1] = session.State{Role: auth.RoleUser, Active: false, TokenVersion: 0}
		_, err := svc.Authenticate(context.Background(), valid)
		assert.ErrorIs(t, err, auth.ErrUserInactive)
		sessions.states[1] = session.State{Role: auth.RoleUser, Active: true, TokenVersion: 0}
	})

	t.Run("revoked token", func(t *testing.T) {
		sessions.states[1] = session.State{Role: auth.RoleUser, Active: true, TokenVersion: 1}
		_, err := svc.Authenticate(context.Background(), valid)
		assert.ErrorIs(t, err, auth.ErrTokenRevoked)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		boom := errors.New("connection refused")
		broken := auth.NewService(&stubRepo{}, codec, &stubSessions{err: boom})
		_, err := broken.Authenticate(context.Background(), valid)
		assert.ErrorIs(t, err, boom)
	})
}

func TestAuthenticateRoleComesFromStore(t *testing.T) {
	codec := newCodec(t)
	// Claim says admin, store says user. The store wins.
	forged, err := codec.Issue(token.Claims{UserID: 1, Nickname: "jdoe", Role: auth.RoleAdmin})
	require.NoError(t, err)
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 0},
	}}
	svc := auth.NewService(&stubRepo{}, codec, sessions)

	identity, err := svc.Authenticate(context.Background(), forged)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, identity.Role)
	assert.False(t, identity.IsAdmin())
}

func TestLogoutRevokesOutstandingTokens(t *testing.T) {
	codec := newCodec(t)
	repo := &stubRepo{user: &auth.User{
		ID: 1, Nickname: "jdoe", PasswordHash: hash(t, "secret"), Role: auth.RoleUser, IsActive: true,
	}}
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 0},
	}}
	svc := auth.NewService(repo, codec, sessions)

	raw, _, err := svc.Login(context.Background(), "jdoe", "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), 1))
	assert.Equal(t, int64(1), repo.bumped)

	// Mirror the bump into the session store, as the database would.
	sessions.states[1] = session.State{Role: auth.RoleUser, Active: true, TokenVersion: 1}
	_, err = svc.Authenticate(context.Background(), raw)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}
