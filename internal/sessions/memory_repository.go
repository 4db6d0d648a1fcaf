package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRegistry is an in-memory Registry used by unit tests and local
// development. The mutex gives the same atomic liveness transitions the
// Mongo implementation gets from filtered updates.
type MemoryRegistry struct {
	mu    sync.RWMutex
	store map[string]*Session
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{store: make(map[string]*Session)}
}

func cloneSession(s *Session) *Session {
	cp := *s
	cp.Participants = append([]string(nil), s.Participants...)
	return &cp
}

func (m *MemoryRegistry) Create(ctx context.Context, docID, creatorID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s := &Session{
		ID:           uuid.NewString(),
		DocID:        docID,
		CreatorID:    creatorID,
		Participants: []string{creatorID},
		IsLive:       true,
		StartedAt:    now,
		LastPing:     now,
	}
	m.store[s.ID] = s
	return cloneSession(s), nil
}

func (m *MemoryRegistry) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryRegistry) AddParticipant(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if !s.IsLive {
		return ErrNotLive
	}
	if !s.HasParticipant(userID) {
		s.Participants = append(s.Participants, userID)
	}
	return nil
}

func (m *MemoryRegistry) Ping(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return ErrNotFound
	}
	if !s.IsLive {
		return ErrNotLive
	}
	s.LastPing = time.Now().UTC()
	return nil
}

func (m *MemoryRegistry) End(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return false, ErrNotFound
	}
	if !s.IsLive {
		return false, nil
	}
	s.IsLive = false
	return true, nil
}

func (m *MemoryRegistry) ListStale(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Session{}
	for _, s := range m.store {
		if s.IsLive && s.LastPing.Before(cutoff) {
			out = append(out, cloneSession(s))
		}
	}
	return out, nil
}
