package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrForbidden   = errors.New("not allowed")
	ErrInvalidType = errors.New("invalid document type")
)

// codeAttempts bounds join-code regeneration; the 6-digit space holds a
// million codes so collisions are rare until the corpus is huge.
const codeAttempts = 10

// Service carries document business logic on top of a Store.
type Service struct {
	store repository.Store
}

func NewService(s repository.Store) *Service { return &Service{store: s} }

// Store exposes the underlying repository for components that consume the
// store contract directly (the orchestrator and the sync bridge).
func (s *Service) Store() repository.Store { return s.store }

func generateJoinCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Create persists a new document owned by ownerID. The join code is drawn
// from the fixed-width numeric space and regenerated until unique.
func (s *Service) Create(ctx context.Context, title string, typ document.Type, ownerID, content string) (*document.Document, error) {
	if !document.ValidType(typ) {
		return nil, ErrInvalidType
	}
	doc := &document.Document{
		Title:         title,
		Type:          typ,
		OwnerID:       ownerID,
		Collaborators: []string{},
		Content:       content,
	}
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := generateJoinCode()
		if err != nil {
			return nil, err
		}
		doc.JoinCode = code
		if _, err := s.store.Create(ctx, doc); err != nil {
			if errors.Is(err, repository.ErrDuplicateJoinCode) {
				continue
			}
			return nil, err
		}
		return doc, nil
	}
	return nil, fmt.Errorf("could not allocate a unique join code after %d attempts", codeAttempts)
}

func (s *Service) Get(ctx context.Context, id string) (*document.Document, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// Delete removes a document. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, id, callerID string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.OwnerID != callerID {
		return ErrForbidden
	}
	return s.store.Delete(ctx, id)
}

// JoinByCode resolves code to a document and adds callerID as a
// collaborator (idempotent). Returns the joined document.
func (s *Service) JoinByCode(ctx context.Context, code, callerID string) (*document.Document, error) {
	d, err := s.store.GetByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.store.AddCollaborator(ctx, d.ID, callerID); err != nil {
		return nil, err
	}
	return s.Get(ctx, d.ID)
}

// AddCollaborator grants userID access. Only the owner may invite.
func (s *Service) AddCollaborator(ctx context.Context, id, callerID, userID string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.OwnerID != callerID {
		return ErrForbidden
	}
	return s.store.AddCollaborator(ctx, id, userID)
}

// RemoveCollaborator revokes access. The owner may remove anyone; a
// collaborator may only remove themselves (leave).
func (s *Service) RemoveCollaborator(ctx context.Context, id, callerID, userID string) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.OwnerID != callerID && callerID != userID {
		return ErrForbidden
	}
	if userID == d.OwnerID {
		return ErrForbidden
	}
	return s.store.RemoveCollaborator(ctx, id, userID)
}
