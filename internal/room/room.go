package room

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/player"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/repository"
	"ctchen222/TimeTravel-Tic-Tac-Toe/pkg/proto"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultOpponentDelay = 50 * time.Millisecond
	saveTimeout          = 2 * time.Second
)

var tracer = otel.Tracer("room")

// Options tunes a room.
type Options struct {
	// OpponentDelay is how long the computer waits before replying.
	OpponentDelay time.Duration
}

// pendingMove is a scheduled computer reply for the state identified by token.
type pendingMove struct {
	token engine.Token
	timer *time.Timer
}

// Room is one live game session. It is the only writer of its engine: every
// access goes through mu.
type Room struct {
	ID string

	mu            sync.Mutex
	engine        *engine.Engine
	chooser       bot.MoveChooser
	repo          repository.SessionRepository
	opponentDelay time.Duration
	pending       *pendingMove
	subscribers   map[string]*player.Subscriber
	lastActive    time.Time
	closed        bool
}

// NewRoom wraps an engine. If the engine is already waiting on the computer
// (e.g. restored from storage), the reply is scheduled right away.
func NewRoom(id string, e *engine.Engine, chooser bot.MoveChooser, repo repository.SessionRepository, opts Options) *Room {
	delay := opts.OpponentDelay
	if delay <= 0 {
		delay = DefaultOpponentDelay
	}

	r := &Room{
		ID:            id,
		engine:        e,
		chooser:       chooser,
		repo:          repo,
		opponentDelay: delay,
		subscribers:   make(map[string]*player.Subscriber),
		lastActive:    time.Now(),
	}

	r.mu.Lock()
	r.scheduleOpponentLocked(context.Background())
	r.mu.Unlock()

	return r
}

// State returns the current client view.
func (r *Room) State(ctx context.Context) *proto.GameState {
	_, span := tracer.Start(ctx, "room.State", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	return proto.NewGameState(r.engine)
}

// Play applies a human move. A rejected move returns the unchanged state
// together with the reason.
func (r *Room) Play(ctx context.Context, index int) (*proto.GameState, error) {
	ctx, span := tracer.Start(ctx, "room.Play", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("move.index", index),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return proto.NewGameState(r.engine), ErrRoomClosed
	}
	if err := r.engine.Play(index); err != nil {
		slog.WarnContext(ctx, "move rejected", "room.id", r.ID, "move.index", index, "error", err)
		span.SetAttributes(attribute.Bool("move.valid", false))
		return proto.NewGameState(r.engine), err
	}
	span.SetAttributes(attribute.Bool("move.valid", true))

	recordMove(ctx, moverHuman, r.engine.Outcome())
	r.afterChangeLocked(ctx)
	return proto.NewGameState(r.engine), nil
}

// JumpTo moves the viewed position within the history.
func (r *Room) JumpTo(ctx context.Context, move int) (*proto.GameState, error) {
	ctx, span := tracer.Start(ctx, "room.JumpTo", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("history.move", move),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return proto.NewGameState(r.engine), ErrRoomClosed
	}
	if err := r.engine.JumpTo(move); err != nil {
		slog.WarnContext(ctx, "jump rejected", "room.id", r.ID, "history.move", move, "error", err)
		return proto.NewGameState(r.engine), err
	}

	r.afterChangeLocked(ctx)
	return proto.NewGameState(r.engine), nil
}

// SetMode switches mode, which always starts a new game.
func (r *Room) SetMode(ctx context.Context, mode engine.Mode) (*proto.GameState, error) {
	ctx, span := tracer.Start(ctx, "room.SetMode", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("game.mode", string(mode)),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return proto.NewGameState(r.engine), ErrRoomClosed
	}
	if err := r.engine.SetMode(mode); err != nil {
		slog.WarnContext(ctx, "mode change rejected", "room.id", r.ID, "game.mode", mode, "error", err)
		return proto.NewGameState(r.engine), err
	}

	slog.InfoContext(ctx, "mode changed, game restarted", "room.id", r.ID, "game.mode", mode)
	r.afterChangeLocked(ctx)
	return proto.NewGameState(r.engine), nil
}

// Restart starts a new game in the same mode.
func (r *Room) Restart(ctx context.Context) (*proto.GameState, error) {
	ctx, span := tracer.Start(ctx, "room.Restart", trace.WithAttributes(
		attribute.String("room.id", r.ID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return proto.NewGameState(r.engine), ErrRoomClosed
	}
	r.engine.Restart()
	slog.InfoContext(ctx, "game restarted", "room.id", r.ID)
	r.afterChangeLocked(ctx)
	return proto.NewGameState(r.engine), nil
}

// LastActive returns the time of the last state change or subscription.
func (r *Room) LastActive() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActive
}

// Close cancels any scheduled computer move and disconnects subscribers.
// Later operations are rejected with ErrRoomClosed.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.cancelPendingLocked()
	for id, sub := range r.subscribers {
		_ = sub.Close()
		delete(r.subscribers, id)
	}
}

// afterChangeLocked runs after every accepted state change.
func (r *Room) afterChangeLocked(ctx context.Context) {
	r.lastActive = time.Now()
	r.scheduleOpponentLocked(ctx)
	r.persistLocked(ctx)
	r.broadcastLocked(ctx, &proto.ServerToClientMessage{
		Type:  proto.TypeState,
		State: proto.NewGameState(r.engine),
	})
}

// persistLocked saves the snapshot. A failed save is logged and the live
// state is kept.
func (r *Room) persistLocked(ctx context.Context) {
	if r.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	if err := r.repo.Save(ctx, r.ID, r.engine.Snapshot()); err != nil {
		slog.ErrorContext(ctx, "failed to save session", "room.id", r.ID, "error", err)
		trace.SpanFromContext(ctx).RecordError(err)
		trace.SpanFromContext(ctx).SetStatus(codes.Error, "Failed to save session")
	}
}
