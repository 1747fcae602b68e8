package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/iota-uz/orgchart/modules/orgchart/domain/session"
)

type memoryEntry struct {
	session   session.Session
	expiresAt time.Time
}

// MemorySessionRepository keeps sessions in process. A zero ttl disables
// expiry.
type MemorySessionRepository struct {
	mu    sync.RWMutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) (*session.Session, error) {
	r.mu.RLock()
	entry, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	if r.expired(entry) {
		r.mu.Lock()
		if cur, ok := r.items[id]; ok && r.expired(cur) {
			delete(r.items, id)
		}
		r.mu.Unlock()
		return nil, session.ErrSessionNotFound
	}
	s := entry.session
	s.Expanded = append([]string(nil), entry.session.Expanded...)
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, s *session.Session) error {
	entry := memoryEntry{session: *s}
	entry.session.Expanded = append([]string(nil), s.Expanded...)
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.mu.Lock()
	r.items[s.ID] = entry
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
	return nil
}

func (r *MemorySessionRepository) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !r.now().Before(e.expiresAt)
}
