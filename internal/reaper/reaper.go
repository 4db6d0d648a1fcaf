// Package reaper ends sessions whose clients disappeared without
// disconnecting cleanly (crashed tabs, dropped networks). It needs no
// coordination with the bridge: End is idempotent, so whichever trigger
// fires first wins and the other becomes a no-op.
package reaper

import (
	"context"
	"time"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/sessions"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/metrics"
)

// Ender is the slice of the orchestrator the reaper uses.
type Ender interface {
	End(ctx context.Context, sessionID, callerID, trigger string) error
}

type Reaper struct {
	registry    sessions.Registry
	core        Ender
	pingTimeout time.Duration
	interval    time.Duration
}

func New(registry sessions.Registry, core Ender, pingTimeout, interval time.Duration) *Reaper {
	return &Reaper{registry: registry, core: core, pingTimeout: pingTimeout, interval: interval}
}

// Run scans periodically until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	logger.Infof("session reaper running: timeout=%s interval=%s", r.pingTimeout, r.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep ends every live session whose last heartbeat is older than the
// ping timeout. One sweep; exported for tests and manual triggering.
func (r *Reaper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-r.pingTimeout)
	stale, err := r.registry.ListStale(ctx, cutoff)
	if err != nil {
		logger.Errorf("reaper: list stale sessions: %v", err)
		return
	}
	for _, s := range stale {
		if err := r.core.End(ctx, s.ID, "", collab.TriggerReaper); err != nil {
			logger.Errorf("reaper: end abandoned session %s: %v", s.ID, err)
			continue
		}
		metrics.ReapedSessions.Inc()
		logger.Infof("reaper: ended abandoned session %s (doc %s, last ping %s)", s.ID, s.DocID, s.LastPing.Format(time.RFC3339))
	}
}
