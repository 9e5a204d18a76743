package proto

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"fmt"
)

// Message types sent over the websocket.
const (
	TypeState = "state"
	TypeError = "error"
)

// HistoryEntry is one snapshot in the move list.
type HistoryEntry struct {
	Move        int      `json:"move"`
	Description string   `json:"description"`
	Board       []string `json:"board"`
}

// GameState is everything a client needs to render a session.
type GameState struct {
	Board       []string        `json:"board"`
	Next        game.PlayerMark `json:"next"`
	Status      game.Status     `json:"status"`
	StatusText  string          `json:"status_text"`
	Winner      game.PlayerMark `json:"winner,omitempty"`
	WinningLine []int           `json:"winning_line,omitempty"`
	CurrentMove int             `json:"current_move"`
	Mode        engine.Mode     `json:"mode"`
	ShowRestart bool            `json:"show_restart"`
	History     []HistoryEntry  `json:"history"`
	LegalMoves  []int           `json:"legal_moves"`
}

// ServerToClientMessage represents a message from the server to the client.
type ServerToClientMessage struct {
	Type   string     `json:"type" validate:"required"`
	Reason string     `json:"reason,omitempty"`
	State  *GameState `json:"state,omitempty"`
}

// ClientToServerMessage represents a message from the client to the server.
// The websocket is read for control purposes only; moves go through HTTP.
type ClientToServerMessage struct {
	Type string `json:"type" validate:"required,oneof=ping refresh"`
}

// Describe returns the move-list label for a history index.
func Describe(move int) string {
	if move == 0 {
		return "Go to game start"
	}
	return fmt.Sprintf("Go to move #%d", move)
}

// StatusText returns the status line shown above the board.
func StatusText(out game.Outcome, next game.PlayerMark) string {
	switch out.Status {
	case game.StatusWon:
		return "Winner: " + string(out.Winner)
	case game.StatusDraw:
		return "It's a tie!"
	default:
		return "Next player: " + string(next)
	}
}

// NewGameState builds the client view of an engine.
func NewGameState(e *engine.Engine) *GameState {
	out := e.Outcome()
	history := e.History()

	entries := make([]HistoryEntry, len(history))
	for i, b := range history {
		entries[i] = HistoryEntry{
			Move:        i,
			Description: Describe(i),
			Board:       game.BoardToStrings(b),
		}
	}

	state := &GameState{
		Board:       game.BoardToStrings(e.Board()),
		Next:        e.Turn(),
		Status:      out.Status,
		StatusText:  StatusText(out, e.Turn()),
		CurrentMove: e.CurrentMove(),
		Mode:        e.Mode(),
		ShowRestart: out.IsTerminal(),
		History:     entries,
		LegalMoves:  e.LegalMoves(),
	}
	if out.Status == game.StatusWon {
		state.Winner = out.Winner
		state.WinningLine = out.Line[:]
		state.LegalMoves = []int{}
	}
	return state
}
