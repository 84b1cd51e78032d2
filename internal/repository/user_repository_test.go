package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"wakeup-bot/internal/repository"
)

func newTestRepo(t *testing.T) *repository.UserRepository {
	t.Helper()

	db, err := repository.NewDB(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return repository.NewUserRepository(db)
}

func localDay(day int, hour, minute int) time.Time {
	return time.Date(2024, time.August, day, hour, minute, 0, 0, time.UTC)
}

func TestCreateAndFind(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, 42, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, created.Points)
	assert.Nil(t, created.LastWakeDate)

	found, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "alice", found.Username)
}

func TestFindMissingUser(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.FindByTelegramID(context.Background(), 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRefreshUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.Create(ctx, 42, "alice")
	require.NoError(t, err)

	require.NoError(t, repo.RefreshUsername(ctx, user, "alice_new"))

	found, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", found.Username)
	assert.Equal(t, 0, found.Points)
}

func TestAward_OncePerDay(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, 42, "alice")
	require.NoError(t, err)

	user, changed, err := repo.Award(ctx, 42, "alice", localDay(1, 6, 15))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, user.Points)
	require.NotNil(t, user.LastWakeDate)

	// Second attempt the same day, later in the window: no-op.
	user, changed, err = repo.Award(ctx, 42, "alice", localDay(1, 6, 29))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, user.Points)

	// Next calendar day qualifies again.
	user, changed, err = repo.Award(ctx, 42, "alice", localDay(2, 6, 5))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, user.Points)
}

func TestAward_RefreshesUsername(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, 42, "alice")
	require.NoError(t, err)

	user, changed, err := repo.Award(ctx, 42, "alice_renamed", localDay(1, 6, 15))
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "alice_renamed", user.Username)
}

func TestListAll_RegistrationOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i, name := range []string{"alice", "bob", "carol"} {
		_, err := repo.Create(ctx, int64(i+1), name)
		require.NoError(t, err)
	}

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}

func TestAward_AccumulatesAcrossDays(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = repo.Create(ctx, 2, "bob")
	require.NoError(t, err)

	for day := 1; day <= 3; day++ {
		_, _, err := repo.Award(ctx, 2, "bob", localDay(day, 6, 10))
		require.NoError(t, err)
	}
	_, _, err = repo.Award(ctx, 1, "alice", localDay(1, 6, 10))
	require.NoError(t, err)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, 1, users[0].Points)
	assert.Equal(t, 3, users[1].Points)
}

func TestPing(t *testing.T) {
	repo := newTestRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))
}
