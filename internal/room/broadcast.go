package room

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/player"
	"ctchen222/TimeTravel-Tic-Tac-Toe/pkg/proto"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var ErrRoomClosed = errors.New("room closed")

// Subscribe registers a subscriber and sends it the current state.
func (r *Room) Subscribe(ctx context.Context, sub *player.Subscriber) error {
	ctx, span := tracer.Start(ctx, "room.Subscribe", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("subscriber.id", sub.ID),
	))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomClosed
	}
	r.subscribers[sub.ID] = sub
	r.lastActive = time.Now()

	data, err := json.Marshal(&proto.ServerToClientMessage{
		Type:  proto.TypeState,
		State: proto.NewGameState(r.engine),
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := sub.Send(data); err != nil {
		delete(r.subscribers, sub.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send initial state")
		return err
	}

	slog.InfoContext(ctx, "subscriber joined", "room.id", r.ID, "subscriber.id", sub.ID)
	return nil
}

// Unsubscribe removes a subscriber. Its connection is left to the caller.
func (r *Room) Unsubscribe(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subscribers, id)
}

// Subscribers returns the number of connected subscribers.
func (r *Room) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// Heartbeat pings every subscriber and drops those that fail.
func (r *Room) Heartbeat(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, sub := range r.subscribers {
		if err := sub.Ping(); err != nil {
			slog.WarnContext(ctx, "failed to ping subscriber, assuming disconnect", "room.id", r.ID, "subscriber.id", id, "error", err)
			r.dropLocked(id, sub)
		}
	}
}

// broadcastLocked sends a message to every subscriber.
func (r *Room) broadcastLocked(ctx context.Context, message *proto.ServerToClientMessage) {
	ctx, span := tracer.Start(ctx, "room.Broadcast", trace.WithAttributes(
		attribute.String("room.id", r.ID),
		attribute.String("message.type", message.Type),
	))
	defer span.End()

	if len(r.subscribers) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling message", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Error marshalling message")
		return
	}

	for id, sub := range r.subscribers {
		if err := sub.Send(data); err != nil {
			slog.ErrorContext(ctx, "error writing message to subscriber", "subscriber.id", id, "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Error writing message to subscriber")
			r.dropLocked(id, sub)
		}
	}
}

func (r *Room) dropLocked(id string, sub *player.Subscriber) {
	delete(r.subscribers, id)
	_ = sub.Close()
}
