package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/collab"
	"github.com/gopi-c-k/gopzCollab-sub000/internal/config"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/metrics"
)

// Core is the slice of the orchestrator the bridge depends on.
type Core interface {
	SeedContent(ctx context.Context, sessionID string) (string, error)
	Checkpoint(ctx context.Context, sessionID, content string) error
	End(ctx context.Context, sessionID, callerID, trigger string) error
}

// checkpointTimeout bounds the end-of-life sequence after the last
// disconnect; the room's goroutine has no request context to inherit.
const checkpointTimeout = 15 * time.Second

// Frame is the wire envelope on a session channel. "update" payloads are
// opaque sync-engine operations relayed to the other connections;
// "snapshot" payloads carry the full serialized document state and become
// the channel's latest state, used for the final checkpoint.
type Frame struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	FrameUpdate   = "update"
	FrameSnapshot = "snapshot"
)

// room holds the in-memory collaborative state for one session channel.
// conns is the live connection set: distinct from the session registry's
// participant list, which only grows. dirty records whether any snapshot
// frame ever replaced the seeded state.
type room struct {
	conns map[*Client]bool
	state string
	dirty bool
}

// Hub hosts the real-time channels, one room per live session. It owns
// all per-channel in-memory state; durable effects happen only through
// the checkpoint contract on the last disconnect.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
	core  Core
	cfg   config.BridgeConfig
}

func NewHub(core Core, cfg config.BridgeConfig) *Hub {
	return &Hub{rooms: make(map[string]*room), core: core, cfg: cfg}
}

// Join attaches c to the channel named by its session id. seed is applied
// as the initial channel state whenever the room is being created: rooms
// live exactly as long as their session's channel, so the first websocket
// to arrive is always at the start of the session, whichever client it
// belongs to. Joining an existing room never re-seeds; the joiner instead
// receives the room's live state.
func (h *Hub) Join(c *Client, seed string) {
	h.mu.Lock()
	r, ok := h.rooms[c.sessionID]
	if !ok {
		r = &room{conns: make(map[*Client]bool), state: seed}
		h.rooms[c.sessionID] = r
		metrics.BridgeRooms.Inc()
	}
	r.conns[c] = true
	metrics.BridgeConnections.Inc()
	state := r.state
	created := !ok
	h.mu.Unlock()

	if !created && state != "" {
		// bring the joiner up to the channel's live state
		c.sendFrame(Frame{Kind: FrameSnapshot, Payload: json.RawMessage(jsonQuote(state))})
	}
}

// Leave detaches c. The 1→0 transition of the live connection set is the
// only trigger for the automatic checkpoint-and-end sequence.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	r, ok := h.rooms[c.sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, member := r.conns[c]; !member {
		h.mu.Unlock()
		return
	}
	delete(r.conns, c)
	metrics.BridgeConnections.Dec()
	if len(r.conns) > 0 {
		h.mu.Unlock()
		return
	}
	delete(h.rooms, c.sessionID)
	metrics.BridgeRooms.Dec()
	state, held := r.state, r.dirty || r.state != ""
	h.mu.Unlock()

	h.checkpointAndEnd(c.sessionID, state, held)
}

// checkpointAndEnd runs the end-of-life sequence: persist the final
// state, then end the session. The content write is skipped when the
// room never held any state, so a channel that saw no snapshot cannot
// blank the stored document. End runs even when the content write
// fails: stale content is recoverable, a permanently live document with
// no connected clients is not.
func (h *Hub) checkpointAndEnd(sessionID, state string, held bool) {
	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()

	if held {
		if err := h.core.Checkpoint(ctx, sessionID, state); err != nil {
			metrics.CheckpointFailures.Inc()
			logger.Errorf("checkpoint for session %s failed, ending anyway: %v", sessionID, err)
		}
	}
	if err := h.core.End(ctx, sessionID, "", collab.TriggerBridge); err != nil {
		logger.Errorf("end session %s after last disconnect: %v", sessionID, err)
	}
}

// handleFrame processes one inbound frame from c.
func (h *Hub) handleFrame(c *Client, f Frame) {
	switch f.Kind {
	case FrameUpdate:
		h.broadcast(c, f)
	case FrameSnapshot:
		var state string
		if err := json.Unmarshal(f.Payload, &state); err != nil {
			logger.Warnf("session %s: dropping malformed snapshot frame: %v", c.sessionID, err)
			return
		}
		h.mu.Lock()
		if r, ok := h.rooms[c.sessionID]; ok {
			r.state = state
			r.dirty = true
		}
		h.mu.Unlock()
	default:
		logger.Debugf("session %s: ignoring unknown frame kind %q", c.sessionID, f.Kind)
	}
}

// broadcast relays f to every connection in the sender's room except the
// sender. Slow consumers are disconnected rather than blocking the room.
func (h *Hub) broadcast(sender *Client, f Frame) {
	raw, err := json.Marshal(f)
	if err != nil {
		return
	}
	h.mu.Lock()
	r, ok := h.rooms[sender.sessionID]
	if !ok {
		h.mu.Unlock()
		return
	}
	peers := make([]*Client, 0, len(r.conns))
	for c := range r.conns {
		if c != sender {
			peers = append(peers, c)
		}
	}
	h.mu.Unlock()

	for _, c := range peers {
		c.enqueue(raw)
	}
}

// RoomCount reports the number of active channels.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

// ConnectionCount reports the live connection count for a channel.
func (h *Hub) ConnectionCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[sessionID]; ok {
		return len(r.conns)
	}
	return 0
}

// State returns the channel's current in-memory state.
func (h *Hub) State(sessionID string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[sessionID]; ok {
		return r.state, true
	}
	return "", false
}

func jsonQuote(s string) []byte {
	b, _ := json.Marshal(s)
	return b
}
