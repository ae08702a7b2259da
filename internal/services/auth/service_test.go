package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/interfaces"
	"github.com/ternarybob/refero/internal/models"
)

// memoryUsers is an in-memory UserStorage for tests
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := *user
	m.users[user.Username] = &u
	return nil
}

func (m *memoryUsers) GetUser(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[username]
	if !ok {
		return nil, interfaces.ErrUserNotFound
	}
	u := *user
	return &u, nil
}

func (m *memoryUsers) UpdateUser(ctx context.Context, user *models.User) error {
	return m.CreateUser(ctx, user)
}

func (m *memoryUsers) ListUsers(ctx context.Context) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

func TestEnsureDefaultUsers(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	admin, err := store.GetUser(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
	assert.NotEqual(t, "Admin_123", admin.PasswordHash)

	// Second call is a no-op when accounts exist
	require.NoError(t, svc.EnsureDefaultUsers(ctx))
	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestLoginAndValidate(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	session, err := svc.Login(ctx, "analyst", "Analyst_123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "analyst", session.Username)
	assert.Equal(t, models.RoleAnalyst, session.Role)

	resolved, ok := svc.Validate(session.Token)
	require.True(t, ok)
	assert.Equal(t, "analyst", resolved.Username)

	// Login records the time
	user, err := store.GetUser(ctx, "analyst")
	require.NoError(t, err)
	assert.NotNil(t, user.LastLogin)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	_, err := svc.Login(ctx, "analyst", "wrong-password")
	assert.ErrorIs(t, err, interfaces.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "whatever")
	assert.ErrorIs(t, err, interfaces.ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	viewer, err := store.GetUser(ctx, "viewer")
	require.NoError(t, err)
	viewer.IsActive = false
	require.NoError(t, store.UpdateUser(ctx, viewer))

	_, err = svc.Login(ctx, "viewer", "Viewer_123")
	assert.ErrorIs(t, err, interfaces.ErrInvalidCredentials)
}

func TestValidateExpiry(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, 10*time.Millisecond, arbor.NewLogger())
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	session, err := svc.Login(ctx, "admin", "Admin_123")
	require.NoError(t, err)

	_, ok := svc.Validate(session.Token)
	assert.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = svc.Validate(session.Token)
	assert.False(t, ok, "expired sessions are rejected and evicted")

	_, ok = svc.Validate("")
	assert.False(t, ok)
}

func TestLogout(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()
	require.NoError(t, svc.EnsureDefaultUsers(ctx))

	session, err := svc.Login(ctx, "admin", "Admin_123")
	require.NoError(t, err)

	svc.Logout(session.Token)
	_, ok := svc.Validate(session.Token)
	assert.False(t, ok)
}

func TestCreateUser(t *testing.T) {
	store := newMemoryUsers()
	svc := NewService(store, time.Hour, arbor.NewLogger())
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, "ops", "Operations_99", "ops@refero.local", models.RoleAnalyst)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAnalyst, user.Role)
	assert.True(t, user.IsActive)

	session, err := svc.Login(ctx, "ops", "Operations_99")
	require.NoError(t, err)
	assert.True(t, session.Role.CanSubmit())
	assert.False(t, session.Role.CanAdminister())
}
