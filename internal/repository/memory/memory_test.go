package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/homestock-server/internal/model"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	alice := model.User{ID: uuid.New(), Username: "alice", PasswordHash: "h1"}
	_, err := repo.Create(ctx, alice)
	require.NoError(t, err)
	_, err = repo.Create(ctx, model.User{ID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, repo.UpdatePasswordHash(ctx, alice.ID, "h2"))
	got, _ = repo.GetByUsername(ctx, "alice")
	assert.Equal(t, "h2", got.PasswordHash)
	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, uuid.New(), "x"), model.ErrNotFound)

	bob, err := repo.Create(ctx, model.User{ID: uuid.New(), Username: "bob"})
	require.NoError(t, err)
	_, err = repo.UpdateUsername(ctx, alice.ID, "alice", "bob")
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	_, err = repo.UpdateUsername(ctx, bob.ID, "alice", "alicia")
	assert.ErrorIs(t, err, model.ErrNotFound, "old name must belong to the addressed id")

	renamed, err := repo.UpdateUsername(ctx, alice.ID, "alice", "alicia")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, renamed.ID)
	_, err = repo.GetByUsername(ctx, "alice")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = repo.UpdateUsername(ctx, alice.ID, "alice", "al")
	assert.ErrorIs(t, err, model.ErrNotFound, "stale old name")

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestUserRepository_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Create(ctx, model.User{ID: uuid.New(), Username: "same"}); err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestRevocationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewRevocationRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: "a", Subject: "alice", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: "a", Subject: "other", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: "b", Subject: "bob", ExpiresAt: now}))
	require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: "c", Subject: "bob", ExpiresAt: now.Add(-time.Hour)}))

	ok, err := repo.Contains(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = repo.Contains(ctx, "z")
	assert.False(t, ok)

	stats, err := repo.Counts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, model.RevocationStats{Total: 3, Active: 1, Expired: 2}, stats)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// First add wins.
	removed, err = repo.DeleteExpired(ctx, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestRevocationRepository_Concurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewRevocationRepository()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = repo.Add(ctx, model.RevocationEntry{TokenID: fmt.Sprint(i), ExpiresAt: now.Add(time.Duration(i%2) * time.Hour)})
		}(i)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.Contains(ctx, fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	stats, err := repo.Counts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stats.Total)
	assert.Equal(t, int64(50), stats.Active)
}

func TestRevocationRepository_DeleteExpiredInBatches(t *testing.T) {
	ctx := context.Background()
	repo := NewRevocationRepository()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	expired := 2*deleteBatch + 17
	for i := 0; i < expired; i++ {
		require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: fmt.Sprintf("old-%d", i), ExpiresAt: now.Add(-time.Duration(i) * time.Second)}))
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, repo.Add(ctx, model.RevocationEntry{TokenID: fmt.Sprintf("live-%d", i), ExpiresAt: now.Add(time.Duration(i+1) * time.Minute)}))
	}

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(expired), removed)

	stats, err := repo.Counts(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, model.RevocationStats{Total: 10, Active: 10}, stats)
	ok, _ := repo.Contains(ctx, "live-0")
	assert.True(t, ok)
}

func TestRevocationRepository_DeleteExpiredStopsOnCancel(t *testing.T) {
	repo := NewRevocationRepository()
	now := time.Now()
	for i := 0; i < deleteBatch+1; i++ {
		require.NoError(t, repo.Add(context.Background(), model.RevocationEntry{TokenID: fmt.Sprint(i), ExpiresAt: now.Add(-time.Minute)}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	removed, err := repo.DeleteExpired(ctx, now)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(deleteBatch), removed)

	removed, err = repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
