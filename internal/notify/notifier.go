package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	EventSessionStarted = "session_started"
	EventSessionEnded   = "session_ended"
)

// Event is the payload handed to the notification sink. Delivery and read
// state are the sink's problem; callers fire and forget.
type Event struct {
	Type      string    `json:"type"`
	DocID     string    `json:"docId"`
	SessionID string    `json:"sessionId"`
	ActorID   string    `json:"actorId,omitempty"`
	At        time.Time `json:"at"`
}

// Notifier delivers an event to a single user. Implementations must be
// safe for concurrent use; errors are logged by callers, never propagated
// into session state transitions.
type Notifier interface {
	Notify(ctx context.Context, userID string, ev Event) error
}

// RedisNotifier publishes events on a per-user Redis channel
// ("<prefix><userID>"); the delivery service subscribes on the other side.
type RedisNotifier struct {
	client *redis.Client
	prefix string
}

func NewRedisNotifier(client *redis.Client, prefix string) *RedisNotifier {
	if prefix == "" {
		prefix = "gopzcollab:notify:"
	}
	return &RedisNotifier{client: client, prefix: prefix}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID string, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, n.prefix+userID, b).Err()
}

// NopNotifier discards events. Used when no Redis is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, userID string, ev Event) error { return nil }

// Recorder captures events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events map[string][]Event
}

func NewRecorder() *Recorder {
	return &Recorder{events: make(map[string][]Event)}
}

func (r *Recorder) Notify(ctx context.Context, userID string, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[userID] = append(r.events[userID], ev)
	return nil
}

// For returns the events recorded for userID.
func (r *Recorder) For(userID string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events[userID]...)
}
