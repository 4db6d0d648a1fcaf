package reaper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	docrepo "github.com/gopi-c-k/gopzCollab-sub000/internal/document/repository"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
)

type recordingEnder struct {
	mu    sync.Mutex
	inner Ender
	ends  []string
}

func (r *recordingEnder) End(ctx context.Context, sessionID, callerID, trigger string) error {
	r.mu.Lock()
	r.ends = append(r.ends, sessionID)
	r.mu.Unlock()
	return r.inner.End(ctx, sessionID, callerID, trigger)
}

func (r *recordingEnder) ended() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ends...)
}

func TestSweep_EndsOnlyAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	store := docrepo.NewMemoryStore()
	registry := sessions.NewMemoryRegistry()
	orch := collab.NewOrchestrator(store, registry, nil)

	docID, err := store.Create(ctx, &document.Document{
		Title: "D", Type: document.TypeText, OwnerID: "owner", JoinCode: "123456",
	})
	require.NoError(t, err)

	abandoned, err := orch.CreateOrJoin(ctx, docID, "owner")
	require.NoError(t, err)

	// a generous timeout keeps the session alive through the sweep
	ender := &recordingEnder{inner: orch}
	r := New(registry, ender, time.Hour, time.Minute)
	r.Sweep(ctx)
	require.Empty(t, ender.ended())

	// with a zero timeout every live session is overdue
	r = New(registry, ender, 0, time.Minute)
	time.Sleep(5 * time.Millisecond)
	r.Sweep(ctx)
	require.Equal(t, []string{abandoned.SessionID}, ender.ended())

	s, err := registry.Get(ctx, abandoned.SessionID)
	require.NoError(t, err)
	require.False(t, s.IsLive)

	d, err := store.Get(ctx, docID)
	require.NoError(t, err)
	require.Empty(t, d.ActiveSessionID)

	// a second sweep finds nothing left to reap
	r.Sweep(ctx)
	require.Len(t, ender.ended(), 1)
}

func TestSweep_HeartbeatKeepsSessionAlive(t *testing.T) {
	ctx := context.Background()
	store := docrepo.NewMemoryStore()
	registry := sessions.NewMemoryRegistry()
	orch := collab.NewOrchestrator(store, registry, nil)

	docID, err := store.Create(ctx, &document.Document{
		Title: "D", Type: document.TypeText, OwnerID: "owner", JoinCode: "654321",
	})
	require.NoError(t, err)

	res, err := orch.CreateOrJoin(ctx, docID, "owner")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, orch.Ping(ctx, res.SessionID))

	// the heartbeat just refreshed lastPing, so a 15ms timeout misses it
	ender := &recordingEnder{inner: orch}
	New(registry, ender, 15*time.Millisecond, time.Minute).Sweep(ctx)
	require.Empty(t, ender.ended())
}

func TestRun_StopsOnCancel(t *testing.T) {
	registry := sessions.NewMemoryRegistry()
	store := docrepo.NewMemoryStore()
	orch := collab.NewOrchestrator(store, registry, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		New(registry, orch, time.Hour, time.Millisecond).Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on context cancellation")
	}
}
