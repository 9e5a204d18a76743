package repository

import (
	"context"
	"ctchen222/TimeTravel-Tic-Tac-Toe/internal/engine"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	snap      engine.Snapshot
	expiresAt time.Time
}

type memorySessionRepository struct {
	mu        sync.Mutex
	sessions  map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	lastPurge time.Time
}

// NewMemorySessionRepository creates an in-process SessionRepository, used
// when no Redis address is configured.
func NewMemorySessionRepository(ttl time.Duration) SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[string]memoryEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *memorySessionRepository) Save(ctx context.Context, id string, snap engine.Snapshot) error {
	_, span := tracer.Start(ctx, "MemorySessionRepository.Save")
	defer span.End()

	snap.History = slices.Clone(snap.History)

	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	entry := memoryEntry{snap: snap}
	if r.ttl > 0 {
		entry.expiresAt = now.Add(r.ttl)
		r.purgeLocked(now)
	}
	r.sessions[id] = entry
	return nil
}

// purgeLocked drops expired entries, at most once per TTL period.
func (r *memorySessionRepository) purgeLocked(now time.Time) {
	if now.Sub(r.lastPurge) < r.ttl {
		return
	}
	r.lastPurge = now
	for id, entry := range r.sessions {
		if now.After(entry.expiresAt) {
			delete(r.sessions, id)
		}
	}
}

func (r *memorySessionRepository) FindByID(ctx context.Context, id string) (engine.Snapshot, error) {
	_, span := tracer.Start(ctx, "MemorySessionRepository.FindByID")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return engine.Snapshot{}, ErrSessionNotFound
	}
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		delete(r.sessions, id)
		return engine.Snapshot{}, ErrSessionNotFound
	}

	snap := entry.snap
	snap.History = slices.Clone(snap.History)
	return snap, nil
}

func (r *memorySessionRepository) Delete(ctx context.Context, id string) error {
	_, span := tracer.Start(ctx, "MemorySessionRepository.Delete")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
