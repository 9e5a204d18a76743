package hub

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/bot"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/repository"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/room"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	heartbeatInterval = 10 * time.Second
	sweepInterval     = time.Minute
)

var tracer = otel.Tracer("hub")

// Options configures a hub.
type Options struct {
	// SessionTTL is how long a room may stay idle, with nobody watching,
	// before it is closed.
	SessionTTL time.Duration
	Room       room.Options
}

// Hub manages all the live rooms of this process.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]*room.Room
	repo    repository.SessionRepository
	chooser bot.MoveChooser
	opts    Options
}

// NewHub creates a new hub.
func NewHub(repo repository.SessionRepository, chooser bot.MoveChooser, opts Options) *Hub {
	return &Hub{
		rooms:   make(map[string]*room.Room),
		repo:    repo,
		chooser: chooser,
		opts:    opts,
	}
}

// Create starts a new session in the given mode.
func (h *Hub) Create(ctx context.Context, mode engine.Mode) (*room.Room, error) {
	ctx, span := tracer.Start(ctx, "hub.Create", trace.WithAttributes(
		attribute.String("game.mode", string(mode)),
	))
	defer span.End()

	e, err := engine.New(mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid mode")
		return nil, err
	}

	id := uuid.New().String()
	r := room.NewRoom(id, e, h.chooser, h.repo, h.opts.Room)
	if err := h.repo.Save(ctx, id, e.Snapshot()); err != nil {
		r.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save new session")
		return nil, fmt.Errorf("failed to save new session: %w", err)
	}

	h.mu.Lock()
	h.rooms[id] = r
	h.mu.Unlock()

	span.SetAttributes(attribute.String("room.id", id))
	slog.InfoContext(ctx, "session created", "room.id", id, "game.mode", mode)
	return r, nil
}

// Get returns the live room for id, reloading it from the repository when
// this process does not hold it. The repository is read without holding the
// hub lock.
func (h *Hub) Get(ctx context.Context, id string) (*room.Room, error) {
	ctx, span := tracer.Start(ctx, "hub.Get", trace.WithAttributes(
		attribute.String("room.id", id),
	))
	defer span.End()

	if r, ok := h.lookup(id); ok {
		return r, nil
	}

	snap, err := h.repo.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to load session")
		}
		return nil, err
	}

	e, err := engine.Restore(snap)
	if err != nil {
		slog.ErrorContext(ctx, "stored session is corrupt, dropping it", "room.id", id, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Corrupt session")
		if delErr := h.repo.Delete(ctx, id); delErr != nil {
			slog.ErrorContext(ctx, "failed to delete corrupt session", "room.id", id, "error", delErr)
		}
		return nil, repository.ErrSessionNotFound
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// Another request may have reloaded it meanwhile.
	if r, ok := h.rooms[id]; ok {
		return r, nil
	}
	r := room.NewRoom(id, e, h.chooser, h.repo, h.opts.Room)
	h.rooms[id] = r
	slog.InfoContext(ctx, "session reloaded from repository", "room.id", id)
	return r, nil
}

func (h *Hub) lookup(id string) (*room.Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[id]
	return r, ok
}

// Remove closes a room and deletes its stored state.
func (h *Hub) Remove(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "hub.Remove", trace.WithAttributes(
		attribute.String("room.id", id),
	))
	defer span.End()

	h.mu.Lock()
	r, ok := h.rooms[id]
	delete(h.rooms, id)
	h.mu.Unlock()

	if ok {
		r.Close()
	}
	if err := h.repo.Delete(ctx, id); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to delete session")
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Len returns the number of live rooms.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// Run pings subscribers and closes idle rooms until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	pingTicker := time.NewTicker(heartbeatInterval)
	sweepTicker := time.NewTicker(sweepInterval)
	defer func() {
		pingTicker.Stop()
		sweepTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			slog.Info("Hub stopped.")
			return

		case <-pingTicker.C:
			for _, r := range h.snapshotRooms() {
				r.Heartbeat(ctx)
			}

		case now := <-sweepTicker.C:
			h.sweep(ctx, now)
		}
	}
}

// sweep closes rooms that have been idle longer than the session TTL with
// no subscriber, and deletes their stored state.
func (h *Hub) sweep(ctx context.Context, now time.Time) {
	if h.opts.SessionTTL <= 0 {
		return
	}

	var idle []string
	h.mu.Lock()
	for id, r := range h.rooms {
		if r.Subscribers() == 0 && now.Sub(r.LastActive()) > h.opts.SessionTTL {
			r.Close()
			delete(h.rooms, id)
			idle = append(idle, id)
		}
	}
	h.mu.Unlock()

	for _, id := range idle {
		if err := h.repo.Delete(ctx, id); err != nil {
			slog.ErrorContext(ctx, "failed to delete idle session", "room.id", id, "error", err)
			continue
		}
		slog.InfoContext(ctx, "idle session closed", "room.id", id)
	}
}

func (h *Hub) snapshotRooms() []*room.Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	rooms := make([]*room.Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, r := range h.rooms {
		r.Close()
		delete(h.rooms, id)
	}
}
