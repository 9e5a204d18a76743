package repository

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() engine.Snapshot {
	return engine.Snapshot{
		Mode:        engine.ModeComputer,
		CurrentMove: 1,
		History: []game.Board{
			{},
			{game.PlayerX},
			{game.PlayerX, game.PlayerO},
		},
	}
}

func TestMemorySessionRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour)

	// Given: a saved session
	snap := sampleSnapshot()
	require.NoError(t, repo.Save(ctx, "s1", snap))

	// When: the caller mutates its own copy
	snap.History[1] = game.Board{}

	// Then: the stored snapshot is unaffected
	got, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestMemorySessionRepository_NotFound(t *testing.T) {
	repo := NewMemorySessionRepository(time.Hour)

	_, err := repo.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_Expires(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, "s1", sampleSnapshot()))

	now = now.Add(30 * time.Second)
	_, err := repo.FindByID(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = repo.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(0)

	require.NoError(t, repo.Save(ctx, "s1", sampleSnapshot()))
	require.NoError(t, repo.Delete(ctx, "s1"))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err := repo.FindByID(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemorySessionRepository_PurgesExpiredOnSave(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	// Given: many sessions that are never read again
	for i := 0; i < 1000; i++ {
		require.NoError(t, repo.Save(ctx, fmt.Sprintf("s%d", i), sampleSnapshot()))
	}
	require.Len(t, repo.sessions, 1000)

	// When: one more session is saved long after they expired
	now = now.Add(time.Hour)
	require.NoError(t, repo.Save(ctx, "fresh", sampleSnapshot()))

	// Then: only the live session is kept
	assert.Len(t, repo.sessions, 1)
	_, err := repo.FindByID(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemorySessionRepository_KeepsLiveEntriesOnPurge(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Minute).(*memorySessionRepository)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Save(ctx, "old", sampleSnapshot()))
	now = now.Add(50 * time.Second)
	require.NoError(t, repo.Save(ctx, "recent", sampleSnapshot()))

	now = now.Add(20 * time.Second)
	require.NoError(t, repo.Save(ctx, "new", sampleSnapshot()))

	assert.Len(t, repo.sessions, 2)
	_, err := repo.FindByID(ctx, "recent")
	assert.NoError(t, err)
}
