package models

import (
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/pkg/proto"
)

// CreateSessionRequest defines the structure for starting a session.
type CreateSessionRequest struct {
	Mode engine.Mode `json:"mode" binding:"required,game_mode"`
}

// PlayRequest places the current player's mark on a cell.
// Range is checked by the game itself so that a bad cell is a rejected move,
// not a malformed request.
type PlayRequest struct {
	Index *int `json:"index" binding:"required"`
}

// JumpRequest moves to a position in the history.
type JumpRequest struct {
	Move *int `json:"move" binding:"required"`
}

// ModeRequest switches mode.
type ModeRequest struct {
	Mode engine.Mode `json:"mode" binding:"required,game_mode"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	Token     string           `json:"token"`
	State     *proto.GameState `json:"state"`
}

// StateResponse carries the state after an operation. Reason is set when the
// operation was rejected and the state left unchanged.
type StateResponse struct {
	State  *proto.GameState `json:"state"`
	Reason string           `json:"reason,omitempty"`
}
