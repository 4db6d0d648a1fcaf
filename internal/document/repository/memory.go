package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
)

// MemoryStore is an in-memory Store used for unit tests and local
// development without MongoDB. All operations take the store mutex, which
// gives the same per-document atomicity the Mongo implementation gets from
// single-document updates.
type MemoryStore struct {
	mu    sync.RWMutex
	docs  map[string]*document.Document
	codes map[string]string // joinCode -> docID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:  make(map[string]*document.Document),
		codes: make(map[string]string),
	}
}

func cloneDoc(d *document.Document) *document.Document {
	cp := *d
	cp.Collaborators = append([]string(nil), d.Collaborators...)
	return &cp
}

func (m *MemoryStore) Create(ctx context.Context, doc *document.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.codes[doc.JoinCode]; taken {
		return "", ErrDuplicateJoinCode
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	m.docs[doc.ID] = cloneDoc(doc)
	m.codes[doc.JoinCode] = doc.ID
	return doc.ID, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(d), nil
}

func (m *MemoryStore) GetByJoinCode(ctx context.Context, code string) (*document.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.codes[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDoc(m.docs[id]), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.codes, d.JoinCode)
	delete(m.docs, id)
	return nil
}

func (m *MemoryStore) UpdateContent(ctx context.Context, id, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	d.Content = content
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) ClaimActiveSession(ctx context.Context, id, expectSessionID, newSessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return false, ErrNotFound
	}
	if d.ActiveSessionID != expectSessionID {
		return false, nil
	}
	d.ActiveSessionID = newSessionID
	d.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) CompleteSession(ctx context.Context, id, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return false, ErrNotFound
	}
	if d.ActiveSessionID != sessionID {
		return false, nil
	}
	d.ActiveSessionID = ""
	d.LastSessionID = sessionID
	d.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (m *MemoryStore) AddCollaborator(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	if d.OwnerID == userID || d.HasCollaborator(userID) {
		return nil
	}
	d.Collaborators = append(d.Collaborators, userID)
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) RemoveCollaborator(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return ErrNotFound
	}
	out := d.Collaborators[:0]
	for _, c := range d.Collaborators {
		if c != userID {
			out = append(out, c)
		}
	}
	d.Collaborators = out
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *MemoryStore) Membership(ctx context.Context, id, userID string) (document.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return document.Membership{}, ErrNotFound
	}
	return document.Membership{
		IsOwner:        d.OwnerID == userID,
		IsCollaborator: d.HasCollaborator(userID),
	}, nil
}
