package engine

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestore_RoundTrip(t *testing.T) {
	e := newEngine(t, ModeComputer)
	require.NoError(t, e.Play(4))
	require.NoError(t, e.ApplyOpponentMove(e.Token(), 0))
	require.NoError(t, e.Play(8))
	require.NoError(t, e.JumpTo(1))

	data, err := json.Marshal(e.Snapshot())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	restored, err := Restore(snap)
	require.NoError(t, err)
	assert.Equal(t, e.History(), restored.History())
	assert.Equal(t, e.Token(), restored.Token())
}

func TestRestore_Rejects(t *testing.T) {
	const (
		X = game.PlayerX
		O = game.PlayerO
	)

	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "unknown mode",
			snap: Snapshot{Mode: "online", History: []game.Board{{}}},
		},
		{
			name: "empty history",
			snap: Snapshot{Mode: ModeFriend},
		},
		{
			name: "non-empty first board",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{{X}}},
		},
		{
			name: "O moves first",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{{}, {O}}},
		},
		{
			name: "two marks in one step",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{{}, {X, O}}},
		},
		{
			name: "unchanged step",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{{}, {}}},
		},
		{
			name: "overwritten cell",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{{}, {X}, {O}}},
		},
		{
			name: "move after a win",
			snap: Snapshot{Mode: ModeFriend, History: []game.Board{
				{},
				{X},
				{X, "", "", O},
				{X, X, "", O},
				{X, X, "", O, O},
				{X, X, X, O, O},
				{X, X, X, O, O, O},
			}},
		},
		{
			name: "current move out of range",
			snap: Snapshot{Mode: ModeFriend, CurrentMove: 2, History: []game.Board{{}, {X}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Restore(tt.snap)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}
