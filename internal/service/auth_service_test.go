package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"hotel-pms/internal/demo"
	"hotel-pms/internal/model"
	"hotel-pms/internal/persist"
	"hotel-pms/internal/store"
	"hotel-pms/pkg/apierror"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()

	st := store.New(UsersStoreKey, persist.NewMemory(), DefaultUsersState())
	svc := NewAuthService(st, nil, "test-secret", 15*time.Minute, time.Hour, bcrypt.MinCost)
	svc.SetClock(func() time.Time { return fixedNow })

	_, err := svc.Seed(context.Background(), demo.NewEmbedded())
	require.NoError(t, err)
	return svc
}

func TestAuthLoginAndRefresh(t *testing.T) {
	svc := newAuth(t)

	_, err := svc.Login("admin", "wrong")
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.HTTPStatus)

	pair, err := svc.Login("ADMIN", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, model.RoleAdmin, pair.User.Role)

	claims, err := svc.ValidateToken(pair.AccessToken, "access")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)

	_, err = svc.ValidateToken(pair.AccessToken, "refresh")
	assert.Error(t, err)

	refreshed, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, refreshed.RefreshToken)

	_, err = svc.Refresh(pair.RefreshToken)
	assert.Error(t, err, "refresh tokens are single use")

	svc.Logout(refreshed.RefreshToken)
	_, err = svc.Refresh(refreshed.RefreshToken)
	assert.Error(t, err)
}

func TestAuthTokenExpiry(t *testing.T) {
	svc := newAuth(t)

	pair, err := svc.Login("maria.lopez", "frontdesk123")
	require.NoError(t, err)

	svc.SetClock(func() time.Time { return fixedNow.Add(16 * time.Minute) })
	_, err = svc.ValidateToken(pair.AccessToken, "access")
	assert.Error(t, err)
}

func TestAuthUserAdministration(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	users, meta := svc.ListUsers(model.ListQuery{})
	require.Equal(t, 3, meta.Total)
	assert.Equal(t, "admin", users[0].Username)

	_, err := svc.CreateUser(ctx, admin, model.CreateUserRequest{Username: "admin", Password: "x"})
	assert.ErrorIs(t, err, model.ErrUserAlreadyExists)

	_, err = svc.CreateUser(ctx, admin, model.CreateUserRequest{Username: "kim", Password: "pw", Role: "owner"})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	created, err := svc.CreateUser(ctx, admin, model.CreateUserRequest{Username: "kim", Password: "night123", FullName: "Kim Night"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, created.Role)
	assert.True(t, created.Active)

	pair, err := svc.Login("kim", "night123")
	require.NoError(t, err)

	role := model.RoleManager
	updated, err := svc.UpdateUser(ctx, admin, created.ID, model.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, model.RoleManager, updated.Role)

	inactive := false
	_, err = svc.UpdateUser(ctx, admin, created.ID, model.UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)

	_, err = svc.Login("kim", "night123")
	assert.Error(t, err)
	_, err = svc.Refresh(pair.RefreshToken)
	assert.Error(t, err)

	self := model.Actor{UserID: created.ID, Username: "kim"}
	assert.ErrorIs(t, svc.DeleteUser(ctx, self, created.ID), model.ErrCannotDeleteSelf)

	require.NoError(t, svc.DeleteUser(ctx, admin, created.ID))
	_, err = svc.GetUser(created.ID)
	assert.ErrorIs(t, err, model.ErrUserNotFound)

	activity := svc.Activity(0)
	require.Len(t, activity, 4)
	assert.Equal(t, "deleted", activity[0].Action)
}

func TestAuthSeedHashesPasswords(t *testing.T) {
	svc := newAuth(t)

	users := svc.ExportUsers(model.ListQuery{Search: "maria"})
	require.Len(t, users, 1)
	assert.NotEqual(t, "frontdesk123", users[0].PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].PasswordHash), []byte("frontdesk123")))

	staff, _ := svc.ListUsers(model.ListQuery{Type: model.RoleStaff})
	require.Len(t, staff, 1)
	assert.Equal(t, "ravi.patel", staff[0].Username)
}
