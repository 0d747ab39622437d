package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/session"
	"github.com/torque-erp/torque-erp/internal/token"
)

func newMiddleware(t *testing.T, sessions auth.SessionReader) (auth.Middleware, *token.Codec) {
	t.Helper()
	codec := newCodec(t)
	svc := auth.NewService(&stubRepo{}, codec, sessions)
	return auth.Middleware{Service: svc}, codec
}

func protected(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := auth.IdentityFromContext(r.Context())
		require.NotNil(t, identity, "handler must only run with an identity in context")
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePassesValidToken(t *testing.T) {
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 2},
	}}
	mw, codec := newMiddleware(t, sessions)
	raw, err := codec.Issue(token.Claims{UserID: 1, Nickname: "jdoe", Role: auth.RoleUser, TokenVersion: 2})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res := httptest.NewRecorder()
	mw.Require(protected(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireFailureMapping(t *testing.T) {
	sessions := &stubSessions{states: map[int64]session.State{
		1: {Role: auth.RoleUser, Active: true, TokenVersion: 1},
		2: {Role: auth.RoleUser, Active: false, TokenVersion: 0},
	}}
	mw, codec := newMiddleware(t, sessions)

	revoked, err := codec.Issue(token.Claims{UserID: 1, Role: auth.RoleUser, TokenVersion: 0})
	require.NoError(t, err)
	inactive, err := codec.Issue(token.Claims{UserID: 2, Role: auth.RoleUser})
	require.NoError(t, err)
	orphan, err := codec.Issue(token.Claims{UserID: 9, Role: auth.RoleUser})
	require.NoError(t, err)

	cases := []struct {
		name       string
		authHeader string
		wantStatus int
		wantDetail string
	}{
		{"missing header", "", http.StatusUnauthorized, "Authentication required"},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "Authentication required"},
		{"malformed token", "Bearer garbage", http.StatusUnauthorized, "Invalid token"},
		{"unknown user", "Bearer " + orphan, http.StatusUnauthorized, "Authentication required"},
		{"revoked", "Bearer " + revoked, http.StatusUnauthorized, "Session expired"},
		{"inactive", "Bearer " + inactive, http.StatusForbidden, "Account inactive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/clients", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			res := httptest.NewRecorder()
			mw.Require(protected(t)).ServeHTTP(res, req)

			assert.Equal(t, tc.wantStatus, res.Code)
			assert.Contains(t, res.Body.String(), tc.wantDetail)
		})
	}
}

func TestRequireStorageErrorIsOpaque(t *testing.T) {
	mw, codec := newMiddleware(t, &stubSessions{err: context.DeadlineExceeded})
	raw, err := codec.Issue(token.Claims{UserID: 1, Role: auth.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/clients", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	res := httptest.NewRecorder()
	mw.Require(protected(t)).ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotContains(t, res.Body.String(), "deadline", "storage error text must not leak")
}
