// Package engine holds the authoritative state of one tic-tac-toe game:
// the history of board snapshots, the position being viewed and the mode.
//
// Whose turn it is and whether the game is over are always derived from
// the current snapshot; nothing else is stored. An Engine is not safe for
// concurrent use.
package engine

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"errors"
	"fmt"
	"slices"
)

// Mode selects who controls the O seat.
type Mode string

const (
	ModeFriend   Mode = "friend"   // both seats human
	ModeComputer Mode = "computer" // X human, O automated
)

var (
	ErrInvalidMode     = errors.New("invalid mode")
	ErrMoveOutOfRange  = errors.New("history index out of range")
	ErrNotYourTurn     = errors.New("it is the computer's turn")
	ErrOpponentNotDue  = errors.New("no computer move is due")
	ErrStaleToken      = errors.New("state changed since the move was computed")
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeFriend || m == ModeComputer
}

// Token identifies one engine state. Two tokens are equal only if mode,
// position and displayed board all match.
type Token struct {
	Mode  Mode
	Move  int
	Board game.Board
}

// Engine is the game-state machine.
type Engine struct {
	history     []game.Board
	currentMove int
	mode        Mode
}

// New creates an engine on the empty board.
func New(mode Mode) (*Engine, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	e := &Engine{mode: mode}
	e.reset()
	return e, nil
}

func (e *Engine) reset() {
	e.history = []game.Board{{}}
	e.currentMove = 0
}

// Board returns the snapshot at the current position.
func (e *Engine) Board() game.Board {
	return e.history[e.currentMove]
}

// Turn returns the mark to move at the current position.
func (e *Engine) Turn() game.PlayerMark {
	return game.TurnFor(e.currentMove)
}

// Outcome evaluates the current board.
func (e *Engine) Outcome() game.Outcome {
	return game.Evaluate(e.Board())
}

// History returns a copy of every snapshot, starting with the empty board.
func (e *Engine) History() []game.Board {
	return slices.Clone(e.history)
}

func (e *Engine) CurrentMove() int { return e.currentMove }

func (e *Engine) Mode() Mode { return e.mode }

// LegalMoves returns the empty cells of the current board.
func (e *Engine) LegalMoves() []int {
	return game.LegalMoves(e.Board())
}

// Token returns the identity of the current state.
func (e *Engine) Token() Token {
	return Token{Mode: e.mode, Move: e.currentMove, Board: e.Board()}
}

// Play places the current player's mark at index. In computer mode the
// O seat is not available to the caller. A rejected move leaves the
// engine untouched.
func (e *Engine) Play(index int) error {
	if e.mode == ModeComputer && e.Turn() == game.PlayerO {
		return ErrNotYourTurn
	}
	return e.place(index)
}

// JumpTo moves the current position within the history without changing it.
// The future is only discarded once a move is played from the new position.
func (e *Engine) JumpTo(move int) error {
	if move < 0 || move >= len(e.history) {
		return fmt.Errorf("%w: %d", ErrMoveOutOfRange, move)
	}
	e.currentMove = move
	return nil
}

// SetMode switches mode and always starts a new game.
func (e *Engine) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	e.mode = mode
	e.reset()
	return nil
}

// Restart starts a new game in the same mode.
func (e *Engine) Restart() {
	e.reset()
}

// OpponentDue reports whether the automated opponent should move now.
func (e *Engine) OpponentDue() bool {
	return e.mode == ModeComputer && e.Turn() == game.PlayerO && !e.Outcome().IsTerminal()
}

// ChooseOpponentMove asks chooser for a move among the current legal moves.
func (e *Engine) ChooseOpponentMove(chooser bot.MoveChooser) (int, error) {
	if !e.OpponentDue() {
		return -1, ErrOpponentNotDue
	}
	return chooser.ChooseMove(e.LegalMoves())
}

// ApplyOpponentMove plays the opponent's move, provided the engine is still
// in the state identified by tok.
func (e *Engine) ApplyOpponentMove(tok Token, index int) error {
	if tok != e.Token() {
		return ErrStaleToken
	}
	if !e.OpponentDue() {
		return ErrOpponentNotDue
	}
	return e.place(index)
}

// place truncates the future beyond the current position and appends the
// next snapshot.
func (e *Engine) place(index int) error {
	next, err := game.ApplyMove(e.Board(), index, e.Turn())
	if err != nil {
		return err
	}
	e.history = append(e.history[:e.currentMove+1], next)
	e.currentMove = len(e.history) - 1
	return nil
}
