package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sonhodourado/secretaria/core"
	"github.com/sonhodourado/secretaria/core/user"
	inmemdb "github.com/sonhodourado/secretaria/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := user.NewService(inmemdb.NewUserRepository())

	joana, err := svc.Create(ctx, user.NewUser{Username: "joana", Sector: user.SectorFinance, Password: "S3nh@-Forte"})
	require.NoError(t, err)
	assert.True(t, joana.IsActive)
	assert.NoError(t, joana.CheckPassword("S3nh@-Forte"))

	_, err = svc.Create(ctx, user.NewUser{Username: "bruno", Sector: user.SectorTeacher, Password: "S3nh@-Forte"})
	require.NoError(t, err)

	err = svc.CheckUniqueness("joana")
	if verr, ok := err.(*core.ValidationError); assert.True(t, ok, "%v", err) {
		assert.Equal(t, user.ErrUsernameExists, verr.Err)
	}
	assert.NoError(t, svc.CheckUniqueness("carla"))

	t.Run("query ordering", func(t *testing.T) {
		users, err := svc.Query(ctx, nil)
		require.NoError(t, err)
		if assert.Len(t, users, 2) {
			assert.Equal(t, "bruno", users[0].Username)
		}
		users, err = svc.Query(ctx, []core.DBOrdering{{Field: "username"}})
		require.NoError(t, err)
		if assert.Len(t, users, 2) {
			assert.Equal(t, "joana", users[0].Username)
		}
	})

	t.Run("authenticate", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, "nobody", "S3nh@-Forte")
		assert.Equal(t, user.ErrInvalidCredentials, err)
		_, err = svc.Authenticate(ctx, "joana", "wrong")
		assert.Equal(t, user.ErrInvalidCredentials, err)

		usr, err := svc.Authenticate(ctx, " JOANA ", "S3nh@-Forte")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})

	t.Run("set password", func(t *testing.T) {
		_, err := svc.SetPassword(ctx, "nobody", "0utr@-Senha")
		assert.Equal(t, user.ErrNotFound, err)

		_, err = svc.SetPassword(ctx, "joana", "0utr@-Senha")
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, "joana", "S3nh@-Forte")
		assert.Equal(t, user.ErrInvalidCredentials, err)
		_, err = svc.Authenticate(ctx, "joana", "0utr@-Senha")
		assert.NoError(t, err)
	})

	t.Run("deactivated", func(t *testing.T) {
		repo := inmemdb.NewUserRepository()
		svc := user.NewService(repo)
		usr, err := svc.Create(ctx, user.NewUser{Username: "carla", Sector: user.SectorSecretary, Password: "S3nh@-Forte"})
		require.NoError(t, err)
		usr.IsActive = false
		_, err = repo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		_, err = svc.Authenticate(ctx, "carla", "S3nh@-Forte")
		assert.Equal(t, user.ErrAccountDeactivated, err)
	})

	got, err := svc.GetByID(ctx, joana.ID)
	require.NoError(t, err)
	assert.Equal(t, user.SectorFinance, got.Sector)
	assert.ElementsMatch(t, []string{user.PermDashboard, user.PermBilling, user.PermNotices}, got.Permissions())
}
