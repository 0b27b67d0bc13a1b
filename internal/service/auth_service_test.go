package service

import (
	"context"
	"sync"
	"testing"

	"clubvid/internal/api/dto"
	"clubvid/internal/config"
	"clubvid/internal/model"
	"clubvid/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memUsers struct {
	mu    sync.Mutex
	users []model.User
}

func (m *memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.UserName == username {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUsers) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = int64(len(m.users) + 1)
	m.users = append(m.users, *user)
	return nil
}

func (m *memUsers) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func setTestConfig() {
	config.Set(&config.Config{
		App: config.AppConfig{Name: "clubvid-test"},
		JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 2},
	})
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	setTestConfig()
	svc := NewAuthService(&memUsers{})
	ctx := context.Background()

	info, err := svc.Register(ctx, &dto.RegisterRequest{Username: "coach", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, info.UserRole)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "coach", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	token, err := svc.Login(ctx, &dto.LoginRequest{Username: "coach", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, 7200, token.ExpiresIn)

	claims, err := utils.ParseToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.Equal(t, model.RoleMember, claims.Role)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "coach", Password: "wrong-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredential)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	setTestConfig()
	users := &memUsers{}
	svc := NewAuthService(users)
	ctx := context.Background()

	info, err := svc.Register(ctx, &dto.RegisterRequest{Username: "admin", Password: "secret1", UserRole: model.RoleAdmin})
	require.NoError(t, err)

	me, err := svc.GetCurrentUser(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, me.UserRole)

	_, err = svc.GetCurrentUser(ctx, 404)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
