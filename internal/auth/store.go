package auth

import (
	"context"
	"sync"
	"time"

	"github.com/mystic-aac/accountcenter/internal/models"
)

// SessionStore persists session records server-side.
// Get returns models.ErrNotFound for unknown or expired ids
type SessionStore interface {
	Get(ctx context.Context, id string) (*models.SessionRecord, error)
	Save(ctx context.Context, record *models.SessionRecord) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int, error)
}

// MemoryStore is an in-process SessionStore for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]models.SessionRecord
	now      Clock
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]models.SessionRecord),
		now:      time.Now,
	}
}

func (s *MemoryStore) SetClock(clock Clock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = clock
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.SessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	now := s.now()
	s.mu.RUnlock()

	if !ok || rec.Expired(now) {
		return nil, models.ErrNotFound
	}
	return cloneRecord(&rec), nil
}

func (s *MemoryStore) Save(_ context.Context, record *models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[record.ID] = *cloneRecord(record)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int64
	for id, rec := range s.sessions {
		if rec.Expired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// CountActive counts live sessions that carry a principal
func (s *MemoryStore) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	count := 0
	for _, rec := range s.sessions {
		if rec.User != nil && !rec.Expired(now) {
			count++
		}
	}
	return count, nil
}

// cloneRecord copies the record so callers never share mutable state with the store
func cloneRecord(r *models.SessionRecord) *models.SessionRecord {
	out := *r
	if r.User != nil {
		user := *r.User
		out.User = &user
	}
	if r.Flash != nil {
		out.Flash = append([]string(nil), r.Flash...)
	}
	return &out
}
