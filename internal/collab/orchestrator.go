package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/archive"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/notify"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/metrics"
)

// End triggers, used as the metrics label and for logging.
const (
	TriggerClient = "client"
	TriggerBridge = "bridge"
	TriggerReaper = "reaper"
)

// claimAttempts bounds the create-or-join retry loop. A lost claim always
// means another caller holds a live session, so the next iteration joins
// it; the bound only guards against pathological create/end churn.
const claimAttempts = 5

// notifyTimeout caps the fire-and-forget notification goroutine.
const notifyTimeout = 5 * time.Second

// JoinResult is the outcome of CreateOrJoin. SeedContent is set only when
// IsNew: a fresh session's channel is seeded from the document's last
// checkpoint, while joiners receive live state over the bridge instead.
type JoinResult struct {
	SessionID   string `json:"sessionId"`
	IsNew       bool   `json:"isNewSession"`
	SeedContent string `json:"seedContent,omitempty"`
}

// RoomState is the membership/liveness view of a document.
type RoomState struct {
	Title           string        `json:"title"`
	Type            document.Type `json:"type"`
	OwnerID         string        `json:"owner"`
	Collaborators   []string      `json:"collaborators"`
	ActiveSessionID string        `json:"activeSessionId,omitempty"`
}

// Orchestrator is the session lifecycle state machine. It is the only
// component that mutates a document's activeSessionId, and it does so
// through the store's compare-and-set operations, never read-then-write.
type Orchestrator struct {
	docs     docrepo.Store
	registry sessions.Registry
	notifier notify.Notifier
	archiver *archive.Archiver
}

func NewOrchestrator(docs docrepo.Store, registry sessions.Registry, notifier notify.Notifier) *Orchestrator {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Orchestrator{docs: docs, registry: registry, notifier: notifier}
}

// WithArchiver enables best-effort checkpoint archival.
func (o *Orchestrator) WithArchiver(a *archive.Archiver) *Orchestrator {
	o.archiver = a
	return o
}

// CreateOrJoin attaches userID to the document's live session, creating
// one when the document is idle. Two concurrent calls on an idle document
// resolve to the same session: the loser of the activeSessionId CAS
// abandons its freshly created session and retries as a join.
func (o *Orchestrator) CreateOrJoin(ctx context.Context, docID, userID string) (*JoinResult, error) {
	membership, err := o.docs.Membership(ctx, docID, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	if !membership.Member() {
		return nil, ErrForbidden
	}

	for attempt := 0; attempt < claimAttempts; attempt++ {
		doc, err := o.docs.Get(ctx, docID)
		if err != nil {
			return nil, mapErr(err)
		}

		if doc.ActiveSessionID != "" {
			res, joined, err := o.tryJoin(ctx, doc.ActiveSessionID, userID)
			if err != nil {
				return nil, err
			}
			if joined {
				return res, nil
			}
			// pointer was stale (session ended or gone): fall through
			// and claim the document for a fresh session
		}

		sess, err := o.registry.Create(ctx, docID, userID)
		if err != nil {
			return nil, err
		}
		claimed, err := o.docs.ClaimActiveSession(ctx, docID, doc.ActiveSessionID, sess.ID)
		if err != nil {
			_, _ = o.registry.End(ctx, sess.ID)
			return nil, mapErr(err)
		}
		if !claimed {
			// lost the race; retire the orphan session and join the winner
			_, _ = o.registry.End(ctx, sess.ID)
			continue
		}

		// re-read for the freshest checkpointed content
		seeded, err := o.docs.Get(ctx, docID)
		if err != nil {
			return nil, mapErr(err)
		}
		metrics.SessionsStarted.Inc()
		o.fanOut(notify.Event{
			Type:      notify.EventSessionStarted,
			DocID:     docID,
			SessionID: sess.ID,
			ActorID:   userID,
			At:        time.Now().UTC(),
		}, startedRecipients(seeded, userID))
		return &JoinResult{SessionID: sess.ID, IsNew: true, SeedContent: seeded.Content}, nil
	}
	return nil, fmt.Errorf("document %s: session churn exceeded %d create-or-join attempts", docID, claimAttempts)
}

// tryJoin adds userID to sessionID when it is still live. joined=false
// without error means the session was not live (or vanished) and the
// caller should self-heal the document pointer.
func (o *Orchestrator) tryJoin(ctx context.Context, sessionID, userID string) (*JoinResult, bool, error) {
	err := o.registry.AddParticipant(ctx, sessionID, userID)
	switch {
	case err == nil:
		metrics.SessionJoins.Inc()
		return &JoinResult{SessionID: sessionID, IsNew: false}, true, nil
	case errors.Is(err, sessions.ErrNotLive), errors.Is(err, sessions.ErrNotFound):
		return nil, false, nil
	}
	return nil, false, err
}

// End transitions sessionID to not-live. Idempotent: the second of two
// racing calls (explicit request, bridge last-disconnect, reaper) observes
// the flip already done and returns success without side effects.
// callerID is empty for trusted internal callers (bridge, reaper); when
// set, the caller must be a participant or a member of the document.
func (o *Orchestrator) End(ctx context.Context, sessionID, callerID, trigger string) error {
	sess, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return mapErr(err)
	}

	if callerID != "" && !sess.HasParticipant(callerID) {
		membership, err := o.docs.Membership(ctx, sess.DocID, callerID)
		if err != nil && !errors.Is(err, docrepo.ErrNotFound) {
			return err
		}
		if !membership.Member() {
			return ErrForbidden
		}
	}

	ended, err := o.registry.End(ctx, sessionID)
	if err != nil {
		return mapErr(err)
	}
	if !ended {
		return nil
	}
	metrics.SessionsEnded.WithLabelValues(trigger).Inc()

	moved, err := o.docs.CompleteSession(ctx, sess.DocID, sessionID)
	if err != nil {
		if errors.Is(err, docrepo.ErrNotFound) {
			// document deleted while the session was live; nothing to update
			return nil
		}
		return err
	}
	if !moved {
		// stale end: the document no longer points at this session, so
		// only the session flip applies
		logger.Debugf("session %s ended after being superseded on document %s", sessionID, sess.DocID)
		return nil
	}

	doc, err := o.docs.Get(ctx, sess.DocID)
	if err == nil {
		o.fanOut(notify.Event{
			Type:      notify.EventSessionEnded,
			DocID:     sess.DocID,
			SessionID: sessionID,
			ActorID:   callerID,
			At:        time.Now().UTC(),
		}, endedRecipients(doc, sess))
	}
	return nil
}

// Ping records a liveness heartbeat from a still-connected client.
func (o *Orchestrator) Ping(ctx context.Context, sessionID string) error {
	return mapErr(o.registry.Ping(ctx, sessionID))
}

// SeedContent returns the last checkpointed content of the session's
// document, for seeding a freshly opened bridge channel. Fails with
// ErrNotLive once the session has ended.
func (o *Orchestrator) SeedContent(ctx context.Context, sessionID string) (string, error) {
	sess, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return "", mapErr(err)
	}
	if !sess.IsLive {
		return "", ErrNotLive
	}
	doc, err := o.docs.Get(ctx, sess.DocID)
	if err != nil {
		return "", mapErr(err)
	}
	return doc.Content, nil
}

// Checkpoint writes the bridge's final serialized state into the
// document. The write is skipped with ErrStaleCheckpoint when a newer
// session already owns the document.
func (o *Orchestrator) Checkpoint(ctx context.Context, sessionID, content string) error {
	sess, err := o.registry.Get(ctx, sessionID)
	if err != nil {
		return mapErr(err)
	}
	doc, err := o.docs.Get(ctx, sess.DocID)
	if err != nil {
		return mapErr(err)
	}
	if doc.ActiveSessionID != sessionID && !(doc.ActiveSessionID == "" && doc.LastSessionID == sessionID) {
		return ErrStaleCheckpoint
	}
	if err := o.docs.UpdateContent(ctx, sess.DocID, content); err != nil {
		return mapErr(err)
	}
	o.archiver.Archive(ctx, sess.DocID, sessionID, content)
	return nil
}

// State returns the room view of a document for a member.
func (o *Orchestrator) State(ctx context.Context, docID, userID string) (*RoomState, error) {
	doc, err := o.docs.Get(ctx, docID)
	if err != nil {
		return nil, mapErr(err)
	}
	if doc.OwnerID != userID && !doc.HasCollaborator(userID) {
		return nil, ErrForbidden
	}
	active := doc.ActiveSessionID
	if active != "" {
		// verify liveness so callers never see a dangling pointer
		sess, err := o.registry.Get(ctx, active)
		if err != nil || !sess.IsLive {
			active = ""
		}
	}
	return &RoomState{
		Title:           doc.Title,
		Type:            doc.Type,
		OwnerID:         doc.OwnerID,
		Collaborators:   doc.Collaborators,
		ActiveSessionID: active,
	}, nil
}

func startedRecipients(doc *document.Document, initiator string) []string {
	seen := map[string]bool{initiator: true}
	out := []string{}
	for _, u := range append([]string{doc.OwnerID}, doc.Collaborators...) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func endedRecipients(doc *document.Document, sess *sessions.Session) []string {
	seen := map[string]bool{}
	out := []string{}
	all := append([]string{doc.OwnerID}, doc.Collaborators...)
	all = append(all, sess.Participants...)
	for _, u := range all {
		if u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// fanOut delivers ev to each recipient off the request path. Failures are
// logged only; notifications never roll back a session transition.
func (o *Orchestrator) fanOut(ev notify.Event, recipients []string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		for _, userID := range recipients {
			if err := o.notifier.Notify(ctx, userID, ev); err != nil {
				logger.Warnf("notify %s about %s on doc %s: %v", userID, ev.Type, ev.DocID, err)
			}
		}
	}()
}
