package room

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// scheduleOpponentLocked re-evaluates whether the computer has to move and
// keeps at most one reply scheduled, for the current state only.
func (r *Room) scheduleOpponentLocked(ctx context.Context) {
	if r.closed || !r.engine.OpponentDue() {
		r.cancelPendingLocked()
		return
	}

	tok := r.engine.Token()
	if r.pending != nil {
		if r.pending.token == tok {
			return
		}
		r.cancelPendingLocked()
	}

	p := &pendingMove{token: tok}
	p.timer = time.AfterFunc(r.opponentDelay, func() { r.runOpponent(p) })
	r.pending = p
	slog.DebugContext(ctx, "computer move scheduled", "room.id", r.ID, "history.move", tok.Move, "delay", r.opponentDelay)
}

func (r *Room) cancelPendingLocked() {
	if r.pending == nil {
		return
	}
	r.pending.timer.Stop()
	r.pending = nil
}

// runOpponent fires on the timer goroutine. The move is only applied if the
// room is still in the exact state the move was scheduled for.
func (r *Room) runOpponent(p *pendingMove) {
	ctx, span := tracer.Start(context.Background(), "room.runOpponent", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.Int("history.move", p.token.Move),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Superseded: a Stop raced with the timer firing.
	if r.pending != p {
		recordStale(ctx)
		span.SetAttributes(attribute.Bool("move.stale", true))
		return
	}
	r.pending = nil

	if r.closed || p.token != r.engine.Token() {
		recordStale(ctx)
		span.SetAttributes(attribute.Bool("move.stale", true))
		slog.InfoContext(ctx, "discarding stale computer move", "room.id", r.ID)
		return
	}

	index, err := r.engine.ChooseOpponentMove(r.chooser)
	if err != nil {
		slog.ErrorContext(ctx, "computer could not choose a move", "room.id", r.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to choose computer move")
		return
	}
	span.SetAttributes(attribute.Int("move.index", index))

	if err := r.engine.ApplyOpponentMove(p.token, index); err != nil {
		slog.ErrorContext(ctx, "computer move rejected", "room.id", r.ID, "move.index", index, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Computer move rejected")
		return
	}

	slog.InfoContext(ctx, "computer moved", "room.id", r.ID, "move.index", index)
	recordMove(ctx, moverComputer, r.engine.Outcome())
	r.afterChangeLocked(ctx)
}
