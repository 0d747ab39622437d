package users_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
	"github.com/torque-erp/torque-erp/internal/users"
)

type mockRepo struct {
	users  map[int64]*users.User
	hashes map[int64]string
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: make(map[int64]*users.User), hashes: make(map[int64]string), nextID: 1}
}

func (m *mockRepo) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nickname < out[j].Nickname })
	return out, nil
}

func (m *mockRepo) Get(ctx context.Context, id int64) (*users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockRepo) Create(ctx context.Context, nickname, passwordHash, firstName, lastName, role string) (int64, error) {
	id := m.nextID
	m.nextID++
	m.users[id] = &users.User{
		ID: id, Nickname: nickname, FirstName: firstName, LastName: lastName,
		Role: role, IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	m.hashes[id] = passwordHash
	return id, nil
}

func (m *mockRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	u, ok := m.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if v, ok := updates["role"]; ok {
		u.Role = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		u.IsActive = v.(bool)
	}
	if v, ok := updates["first_name"]; ok {
		u.FirstName = v.(string)
	}
	if v, ok := updates["password_hash"]; ok {
		m.hashes[id] = v.(string)
	}
	return nil
}

func (m *mockRepo) BumpTokenVersion(ctx context.Context, id int64) error {
	u, ok := m.users[id]
	if !ok {
		return httpx.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

type mockPermRepo struct {
	records map[int64][]permissions.Record
}

func (m *mockPermRepo) Get(ctx context.Context, userID int64, module string) (*permissions.Record, error) {
	for _, rec := range m.records[userID] {
		if rec.Module == module {
			return &rec, nil
		}
	}
	return nil, permissions.ErrNoRecord
}

func (m *mockPermRepo) List(ctx context.Context, userID int64) ([]permissions.Record, error) {
	return m.records[userID], nil
}

func (m *mockPermRepo) Replace(ctx context.Context, userID int64, records []permissions.Record) error {
	m.records[userID] = records
	return nil
}

var actor = &auth.Identity{ID: 100, Role: auth.RoleAdmin}

func newService() (*users.Service, *mockRepo, *mockPermRepo) {
	repo := newMockRepo()
	permRepo := &mockPermRepo{records: make(map[int64][]permissions.Record)}
	svc := users.NewService(repo, permissions.NewService(permRepo), nil)
	return svc, repo, permRepo
}

func TestCreateProvisionsDefaultPermissions(t *testing.T) {
	svc, repo, permRepo := newService()

	user, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "jdoe", Password: "changeme1", FirstName: "Jane", LastName: "Doe", Role: auth.RoleUser,
	}, actor)
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Zero(t, user.TokenVersion)

	require.Len(t, permRepo.records[user.ID], len(permissions.Modules()))
	for _, rec := range permRepo.records[user.ID] {
		assert.True(t, rec.CanAccessModule)
		assert.True(t, rec.CanRead)
		assert.False(t, rec.CanWrite, "defaults are read-only")
		assert.False(t, rec.CanDelete)
	}

	hash := repo.hashes[user.ID]
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("changeme1")))
}

func TestCreateAdminSkipsPermissionRows(t *testing.T) {
	svc, _, permRepo := newService()

	user, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "root", Password: "changeme1", Role: auth.RoleAdmin,
	}, actor)
	require.NoError(t, err)
	assert.Empty(t, permRepo.records[user.ID])
}

func TestForceLogoutBumpsVersion(t *testing.T) {
	svc, repo, _ := newService()
	user, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "jdoe", Password: "changeme1", Role: auth.RoleUser,
	}, actor)
	require.NoError(t, err)

	require.NoError(t, svc.ForceLogout(context.Background(), user.ID, actor))
	require.NoError(t, svc.ForceLogout(context.Background(), user.ID, actor))
	assert.Equal(t, int64(2), repo.users[user.ID].TokenVersion)

	assert.ErrorIs(t, svc.ForceLogout(context.Background(), 999, actor), httpx.ErrNotFound)
}

func TestListPermissionsSynthesizesForAdminTarget(t *testing.T) {
	svc, _, _ := newService()
	admin, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "root", Password: "changeme1", Role: auth.RoleAdmin,
	}, actor)
	require.NoError(t, err)

	records, err := svc.ListPermissions(context.Background(), admin.ID)
	require.NoError(t, err)
	require.Len(t, records, len(permissions.Modules()))
	for _, rec := range records {
		assert.True(t, rec.CanRead && rec.CanWrite && rec.CanDelete)
	}
}

func TestOverwritePermissions(t *testing.T) {
	svc, _, permRepo := newService()
	user, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "jdoe", Password: "changeme1", Role: auth.RoleUser,
	}, actor)
	require.NoError(t, err)

	err = svc.OverwritePermissions(context.Background(), user.ID, users.UpdatePermissionsRequest{
		Permissions: []users.PermissionEntry{
			{Module: permissions.ModuleOrders, CanAccessModule: true, CanRead: true, CanWrite: true},
		},
	}, actor)
	require.NoError(t, err)

	require.Len(t, permRepo.records[user.ID], 1)
	assert.Equal(t, permissions.ModuleOrders, permRepo.records[user.ID][0].Module)

	err = svc.OverwritePermissions(context.Background(), 999, users.UpdatePermissionsRequest{}, actor)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdateRoleAndActive(t *testing.T) {
	svc, repo, _ := newService()
	user, err := svc.Create(context.Background(), users.CreateUserRequest{
		Nickname: "jdoe", Password: "changeme1", Role: auth.RoleUser,
	}, actor)
	require.NoError(t, err)

	role := auth.RoleAdmin
	inactive := false
	_, err = svc.Update(context.Background(), user.ID, users.UpdateUserRequest{Role: &role, IsActive: &inactive}, actor)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, repo.users[user.ID].Role)
	assert.False(t, repo.users[user.ID].IsActive)
}
