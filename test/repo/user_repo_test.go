package repo_test

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mont-sinai/chorale/internal/model"
	appErr "github.com/mont-sinai/chorale/internal/pkg/errors"
	"github.com/mont-sinai/chorale/internal/pkg/timeutil"
	"github.com/mont-sinai/chorale/internal/repo"
	"github.com/mont-sinai/chorale/test/testutil"
)

func newTestID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func seedUser(t *testing.T, users *repo.UserRepo, status string, ctime int64) *model.User {
	t.Helper()
	user := &model.User{
		ID:           newTestID(),
		Email:        newTestID() + "@example.com",
		PasswordHash: "hash",
		FullName:     "Choriste Test",
		Role:         model.RoleChoriste,
		Status:       status,
		Ctime:        ctime,
		Mtime:        ctime,
	}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestUserRepoCRUD(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()
	user := seedUser(t, users, model.StatusActive, timeutil.NowUnix())

	fetched, err := users.GetByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.Equal(t, user.ID, fetched.ID)

	_, err = users.GetByEmail(ctx, newTestID()+"@example.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// duplicate email conflicts
	dup := *user
	dup.ID = newTestID()
	require.ErrorIs(t, users.Create(ctx, &dup), appErr.ErrConflict)

	require.NoError(t, users.UpdateStatus(ctx, user.ID, model.StatusPendingMCApproval, timeutil.NowUnix()))
	fetched, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusPendingMCApproval, fetched.Status)

	require.NoError(t, users.UpdateRefreshTokenHash(ctx, user.ID, "deadbeef", timeutil.NowUnix()))
	fetched, err = users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", fetched.RefreshTokenHash)

	require.NoError(t, users.Delete(ctx, user.ID))
	require.ErrorIs(t, users.Delete(ctx, user.ID), appErr.ErrNotFound)
}

func TestUserRepoSearch(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()
	marker := newTestID()
	user := &model.User{
		ID:           newTestID(),
		Email:        marker + "@example.com",
		PasswordHash: "hash",
		FullName:     "Marie " + marker,
		Role:         model.RoleChoriste,
		Status:       model.StatusActive,
		Ctime:        timeutil.NowUnix(),
		Mtime:        timeutil.NowUnix(),
	}
	require.NoError(t, users.Create(ctx, user))

	// case-insensitive match on the name
	found, err := users.List(ctx, "marie "+marker, 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, user.ID, found[0].ID)

	total, err := users.Count(ctx, marker)
	require.NoError(t, err)
	require.Equal(t, 1, total)
}

func TestUserRepoListTeam(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()
	marker := newTestID()
	choriste := &model.User{
		ID:           newTestID(),
		Email:        marker + "@example.com",
		PasswordHash: "hash",
		FullName:     "Anne " + marker,
		Role:         model.RoleChoriste,
		Status:       model.StatusActive,
		Ctime:        timeutil.NowUnix(),
		Mtime:        timeutil.NowUnix(),
	}
	require.NoError(t, users.Create(ctx, choriste))
	admin := &model.User{
		ID:           newTestID(),
		Email:        marker + "-admin@example.com",
		PasswordHash: "hash",
		FullName:     "Boris " + marker,
		Role:         model.RoleAdmin,
		Status:       model.StatusActive,
		Ctime:        timeutil.NowUnix(),
		Mtime:        timeutil.NowUnix(),
	}
	require.NoError(t, users.Create(ctx, admin))

	found, err := users.ListTeam(ctx, marker)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, choriste.ID, found[0].ID)
}

func TestUserRepoDeleteUnverifiedBefore(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()

	users := repo.NewUserRepo(db)
	ctx := context.Background()
	old := time.Now().Add(-40 * 24 * time.Hour).Unix()
	stale := seedUser(t, users, model.StatusPendingEmailVerification, old)
	fresh := seedUser(t, users, model.StatusPendingEmailVerification, timeutil.NowUnix())
	verified := seedUser(t, users, model.StatusActive, old)

	cutoff := time.Now().Add(-30 * 24 * time.Hour).Unix()
	deleted, err := users.DeleteUnverifiedBefore(ctx, cutoff)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, int64(1))

	_, err = users.GetByID(ctx, stale.ID)
	require.ErrorIs(t, err, appErr.ErrNotFound)
	_, err = users.GetByID(ctx, fresh.ID)
	require.NoError(t, err)
	_, err = users.GetByID(ctx, verified.ID)
	require.NoError(t, err)
}
