package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/clients"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
	"github.com/torque-erp/torque-erp/internal/session"
	"github.com/torque-erp/torque-erp/internal/token"
)

type fakeAccounts struct {
	users map[string]*auth.User
}

func (f *fakeAccounts) FindByNickname(_ context.Context, nickname string) (*auth.User, error) {
	u, ok := f.users[nickname]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeAccounts) BumpTokenVersion(_ context.Context, userID int64) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.TokenVersion++
			return nil
		}
	}
	return httpx.ErrNotFound
}

type fakeSessions struct {
	accounts *fakeAccounts
}

func (f *fakeSessions) Fetch(_ context.Context, userID int64) (session.State, error) {
	for _, u := range f.accounts.users {
		if u.ID == userID {
			return session.State{Role: u.Role, Active: u.IsActive, TokenVersion: u.TokenVersion}, nil
		}
	}
	return session.State{}, session.ErrNotFound
}

type fakePermissions struct {
	records map[string]*permissions.Record
}

func permKey(userID int64, module string) string {
	return fmt.Sprintf("%d/%s", userID, module)
}

func (f *fakePermissions) Get(_ context.Context, userID int64, module string) (*permissions.Record, error) {
	rec, ok := f.records[permKey(userID, module)]
	if !ok {
		return nil, permissions.ErrNoRecord
	}
	cp := *rec
	return &cp, nil
}

func (f *fakePermissions) List(_ context.Context, userID int64) ([]permissions.Record, error) {
	var out []permissions.Record
	for _, m := range permissions.Modules() {
		if rec, ok := f.records[permKey(userID, m)]; ok {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (f *fakePermissions) Replace(_ context.Context, userID int64, records []permissions.Record) error {
	for _, m := range permissions.Modules() {
		delete(f.records, permKey(userID, m))
	}
	for _, rec := range records {
		cp := rec
		f.records[permKey(userID, rec.Module)] = &cp
	}
	return nil
}

type fakeClients struct{}

func (fakeClients) Get(_ context.Context, id int64) (*clients.Client, error) {
	return &clients.Client{ID: id, Name: "Jane's Couriers"}, nil
}
func (fakeClients) Exists(_ context.Context, _ int64) (bool, error) { return true, nil }
func (fakeClients) List(_ context.Context, _ clients.ListClientsRequest) ([]clients.Client, int, error) {
	return []clients.Client{{ID: 1, Name: "Jane's Couriers"}}, 1, nil
}
func (fakeClients) Create(_ context.Context, c clients.Client) (int64, error) { return 1, nil }
func (fakeClients) Update(_ context.Context, _ int64, _ map[string]any) error { return nil }
func (fakeClients) Delete(_ context.Context, _ int64) error                   { return nil }

func newTestRouter(t *testing.T) (http.Handler, *fakeAccounts) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("workshop-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	accounts := &fakeAccounts{users: map[string]*auth.User{
		"mechanic": {
			ID:           1,
			Nickname:     "mechanic",
			PasswordHash: string(hash),
			FirstName:    "Sam",
			LastName:     "Reyes",
			Role:         auth.RoleUser,
			IsActive:     true,
		},
	}}

	perms := &fakePermissions{records: map[string]*permissions.Record{
		permKey(1, permissions.ModuleClients): {
			UserID:          1,
			Module:          permissions.ModuleClients,
			CanAccessModule: true,
			CanRead:         true,
		},
	}}

	codec, err := token.NewCodec("0123456789abcdef0123456789abcdef", "torque-test")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))

	authService := auth.NewService(accounts, codec, &fakeSessions{accounts: accounts})
	permService := permissions.NewService(perms)

	router := NewRouter(RouterParams{
		Logger:             logger,
		Config:             &Config{},
		AuthMiddleware:     auth.Middleware{Service: authService, Logger: logger},
		Gate:               permissions.Middleware{Service: permService, Logger: logger},
		AuthHandler:        auth.NewHandler(logger, authService, nil),
		PermissionsHandler: permissions.NewHandler(logger, permService),
		ClientsHandler:     clients.NewHandler(logger, clients.NewService(fakeClients{})),
	})
	return router, accounts
}

func login(t *testing.T, router http.Handler) string {
	t.Helper()
	body := bytes.NewBufferString(`{"nickname":"mechanic","password":"workshop-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func do(router http.Handler, method, path, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouterUnauthenticatedIsRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := do(router, http.MethodGet, "/clients", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Authentication required")
}

func TestRouterReadGrantedWriteDenied(t *testing.T) {
	router, _ := newTestRouter(t)
	tok := login(t, router)

	rr := do(router, http.MethodGet, "/clients", tok)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Jane")

	rr = do(router, http.MethodPost, "/clients", tok)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Body.String(), "No write permission for module clients")
}

func TestRouterForcedLogoutInvalidatesToken(t *testing.T) {
	router, accounts := newTestRouter(t)
	tok := login(t, router)

	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/clients", tok).Code)

	require.NoError(t, accounts.BumpTokenVersion(context.Background(), 1))

	rr := do(router, http.MethodGet, "/clients", tok)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "Session expired")

	// a fresh login works again
	fresh := login(t, router)
	require.Equal(t, http.StatusOK, do(router, http.MethodGet, "/clients", fresh).Code)
}

func TestRouterPermissionsDirectory(t *testing.T) {
	router, _ := newTestRouter(t)
	tok := login(t, router)

	rr := do(router, http.MethodGet, "/permissions", tok)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"module":"clients"`)
}

func TestRouterHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := do(router, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
}
