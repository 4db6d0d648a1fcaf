package repository

import (
	"context"
	"errors"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateJoinCode is returned by Create when the generated join
	// code collides with an existing document; callers regenerate and retry.
	ErrDuplicateJoinCode = errors.New("join code already in use")
)

// Store provides document persistence. All mutations are atomic per
// document: UpdateContent, the session-pointer operations and the
// collaborator operations are each a single-document update, so content
// and session linkage can never interleave mid-write.
type Store interface {
	Create(ctx context.Context, doc *document.Document) (string, error)
	Get(ctx context.Context, id string) (*document.Document, error)
	GetByJoinCode(ctx context.Context, code string) (*document.Document, error)
	Delete(ctx context.Context, id string) error

	UpdateContent(ctx context.Context, id, content string) error

	// ClaimActiveSession atomically swings activeSessionId from
	// expectSessionID (empty = idle) to newSessionID. Returns false when
	// the compare failed, i.e. another caller claimed the document first.
	ClaimActiveSession(ctx context.Context, id, expectSessionID, newSessionID string) (bool, error)
	// CompleteSession atomically clears activeSessionId and records
	// sessionID as lastSessionId, but only while activeSessionId still
	// points at sessionID. Returns false when the pointer had moved on.
	CompleteSession(ctx context.Context, id, sessionID string) (bool, error)

	AddCollaborator(ctx context.Context, id, userID string) error
	RemoveCollaborator(ctx context.Context, id, userID string) error
	Membership(ctx context.Context, id, userID string) (document.Membership, error)
}
