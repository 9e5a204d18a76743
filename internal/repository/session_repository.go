package repository

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/game"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("repository.session")

var ErrSessionNotFound = errors.New("session not found")

// Hash fields of a stored session.
const (
	FieldMode        = "mode"
	FieldCurrentMove = "current_move"
	FieldHistory     = "history"
)

// SessionRepository stores the live state of game sessions. Stored sessions
// expire once they have not been saved for the configured TTL.
type SessionRepository interface {
	Save(ctx context.Context, id string, snap engine.Snapshot) error
	FindByID(ctx context.Context, id string) (engine.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type redisSessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewSessionRepository creates a new Redis-based SessionRepository.
func NewSessionRepository(rdb *redis.Client, ttl time.Duration) SessionRepository {
	return &redisSessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(id string) string {
	return fmt.Sprintf("session:%s", id)
}

// Save writes the snapshot and refreshes the session's expiry.
func (r *redisSessionRepository) Save(ctx context.Context, id string, snap engine.Snapshot) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Save", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.Int("session.history_len", len(snap.History)),
	))
	defer span.End()

	historyJSON, err := json.Marshal(snap.History)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal history")
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	key := sessionKey(id)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		FieldMode, string(snap.Mode),
		FieldCurrentMove, snap.CurrentMove,
		FieldHistory, historyJSON,
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save session")
		return fmt.Errorf("failed to save session in redis: %w", err)
	}
	return nil
}

// FindByID loads a stored session.
func (r *redisSessionRepository) FindByID(ctx context.Context, id string) (engine.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SessionRepository.FindByID", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	data, err := r.rdb.HGetAll(ctx, sessionKey(id)).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read session")
		return engine.Snapshot{}, fmt.Errorf("failed to get session from redis: %w", err)
	}
	if len(data) == 0 {
		return engine.Snapshot{}, ErrSessionNotFound
	}

	currentMove, err := strconv.Atoi(data[FieldCurrentMove])
	if err != nil {
		span.RecordError(err)
		return engine.Snapshot{}, fmt.Errorf("failed to parse current move: %w", err)
	}

	var history []game.Board
	if err := json.Unmarshal([]byte(data[FieldHistory]), &history); err != nil {
		span.RecordError(err)
		return engine.Snapshot{}, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return engine.Snapshot{
		Mode:        engine.Mode(data[FieldMode]),
		CurrentMove: currentMove,
		History:     history,
	}, nil
}

// Delete removes a stored session. Deleting a missing session is not an error.
func (r *redisSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "SessionRepository.Delete", trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	return r.rdb.Del(ctx, sessionKey(id)).Err()
}
