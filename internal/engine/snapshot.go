package engine

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"fmt"
	"slices"
)

// Snapshot is the storable form of an engine.
type Snapshot struct {
	Mode        Mode         `json:"mode"`
	CurrentMove int          `json:"current_move"`
	History     []game.Board `json:"history"`
}

// Snapshot exports the engine state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Mode:        e.mode,
		CurrentMove: e.currentMove,
		History:     e.History(),
	}
}

// Restore rebuilds an engine from s. Every step of the history must add
// exactly one mark of the right parity to a board that was still in play.
func Restore(s Snapshot) (*Engine, error) {
	if !s.Mode.Valid() {
		return nil, fmt.Errorf("%w: mode %q", ErrCorruptSnapshot, s.Mode)
	}
	if len(s.History) == 0 {
		return nil, fmt.Errorf("%w: empty history", ErrCorruptSnapshot)
	}
	if s.History[0] != (game.Board{}) {
		return nil, fmt.Errorf("%w: history does not start on an empty board", ErrCorruptSnapshot)
	}
	for i := 1; i < len(s.History); i++ {
		if err := checkStep(s.History[i-1], s.History[i], game.TurnFor(i-1)); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrCorruptSnapshot, i, err)
		}
	}
	if s.CurrentMove < 0 || s.CurrentMove >= len(s.History) {
		return nil, fmt.Errorf("%w: current move %d", ErrCorruptSnapshot, s.CurrentMove)
	}

	return &Engine{
		history:     slices.Clone(s.History),
		currentMove: s.CurrentMove,
		mode:        s.Mode,
	}, nil
}

func checkStep(prev, next game.Board, mark game.PlayerMark) error {
	changed := -1
	for i := range prev {
		if prev[i] == next[i] {
			continue
		}
		if changed != -1 {
			return fmt.Errorf("more than one cell changed")
		}
		changed = i
	}
	if changed == -1 {
		return fmt.Errorf("no cell changed")
	}

	want, err := game.ApplyMove(prev, changed, mark)
	if err != nil {
		return err
	}
	if want != next {
		return fmt.Errorf("cell %d holds %q, want %q", changed, next[changed], mark)
	}
	return nil
}
