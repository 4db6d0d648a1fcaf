package collab

import (
	"errors"

	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrNotLive   = errors.New("session is not live")
	ErrForbidden = errors.New("caller has no access to this document")
	// ErrStaleCheckpoint means the session's document has moved on to a
	// newer session; the final content write is skipped to avoid
	// clobbering the successor's state.
	ErrStaleCheckpoint = errors.New("checkpoint superseded by a newer session")
)

// mapErr folds store-level sentinel errors into the orchestrator's taxonomy.
func mapErr(err error) error {
	switch {
	case errors.Is(err, docrepo.ErrNotFound), errors.Is(err, sessions.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, sessions.ErrNotLive):
		return ErrNotLive
	}
	return err
}
