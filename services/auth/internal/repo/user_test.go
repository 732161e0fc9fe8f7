package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/restaurant/pkg/db"
	pkg_hash "github.com/Skotchmaster/restaurant/pkg/hash"
	"github.com/Skotchmaster/restaurant/services/auth/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	gdb, err := db.OpenMemory(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	r := &GormRepo{DB: gdb}
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func TestCreateUserIfNotExists(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	hash, err := pkg_hash.HashPassword("secret-pw")
	require.NoError(t, err)

	u := &models.User{Username: "ann", PasswordHash: hash, Role: "customer"}
	require.NoError(t, r.CreateUserIfNotExists(ctx, u))
	assert.Len(t, u.ID, 36)

	dup := &models.User{Username: "ann", PasswordHash: hash, Role: "admin"}
	assert.ErrorIs(t, r.CreateUserIfNotExists(ctx, dup), ErrUserAlreadyExist)

	got, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "customer", got.Role)

	_, err = r.GetUserByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserExist(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	hash, err := pkg_hash.HashPassword("secret-pw")
	require.NoError(t, err)
	require.NoError(t, r.CreateUserIfNotExists(ctx, &models.User{Username: "ann", PasswordHash: hash, Role: "customer"}))

	u, err := r.UserExist(ctx, "ann", "secret-pw")
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)

	_, err = r.UserExist(ctx, "ann", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = r.UserExist(ctx, "bob", "secret-pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetCredentials(t *testing.T) {
	t.Parallel()
	r := newRepo(t)
	ctx := context.Background()

	assert.ErrorIs(t, r.SetCredentials(ctx, "ghost", "h", "admin"), ErrUserNotFound)

	require.NoError(t, r.CreateUserIfNotExists(ctx, &models.User{Username: "ann", PasswordHash: "old", Role: "customer"}))
	hash, err := pkg_hash.HashPassword("new-pw")
	require.NoError(t, err)
	require.NoError(t, r.SetCredentials(ctx, "ann", hash, "admin"))

	u, err := r.UserExist(ctx, "ann", "new-pw")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)
}
