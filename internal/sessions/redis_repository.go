package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisRegistry implements Registry on Redis. Each session is a hash at
// "<prefix><id>" plus a participant set at "<prefix><id>:members"; live
// session ids are indexed in the "<prefix>live" set for the reaper scan.
// Conditional transitions run as Lua scripts so the isLive check and the
// mutation are a single atomic step, matching the Mongo implementation's
// filtered updates.
type RedisRegistry struct {
	client *redis.Client
	prefix string
}

// NewRedisRegistry creates a Redis-based session registry. Prefix may be empty.
func NewRedisRegistry(client *redis.Client, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "collab:session:"
	}
	return &RedisRegistry{client: client, prefix: prefix}
}

var (
	addParticipantScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -1 end
if redis.call("HGET", KEYS[1], "isLive") ~= "1" then return 0 end
redis.call("SADD", KEYS[2], ARGV[1])
return 1`)

	pingScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -1 end
if redis.call("HGET", KEYS[1], "isLive") ~= "1" then return 0 end
redis.call("HSET", KEYS[1], "lastPing", ARGV[1])
return 1`)

	endScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then return -1 end
if redis.call("HGET", KEYS[1], "isLive") ~= "1" then return 0 end
redis.call("HSET", KEYS[1], "isLive", "0")
redis.call("SREM", KEYS[2], ARGV[1])
return 1`)
)

func (r *RedisRegistry) key(id string) string        { return r.prefix + id }
func (r *RedisRegistry) membersKey(id string) string { return r.prefix + id + ":members" }
func (r *RedisRegistry) liveKey() string             { return r.prefix + "live" }

func (r *RedisRegistry) Create(ctx context.Context, docID, creatorID string) (*Session, error) {
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
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key(s.ID), map[string]interface{}{
		"docId":     s.DocID,
		"creatorId": s.CreatorID,
		"isLive":    "1",
		"startedAt": s.StartedAt.Format(time.RFC3339Nano),
		"lastPing":  s.LastPing.Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, r.membersKey(s.ID), creatorID)
	pipe.SAdd(ctx, r.liveKey(), s.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *RedisRegistry) Get(ctx context.Context, id string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	members, err := r.client.SMembers(ctx, r.membersKey(id)).Result()
	if err != nil {
		return nil, err
	}
	started, _ := time.Parse(time.RFC3339Nano, fields["startedAt"])
	lastPing, _ := time.Parse(time.RFC3339Nano, fields["lastPing"])
	return &Session{
		ID:           id,
		DocID:        fields["docId"],
		CreatorID:    fields["creatorId"],
		Participants: members,
		IsLive:       fields["isLive"] == "1",
		StartedAt:    started,
		LastPing:     lastPing,
	}, nil
}

func scriptErr(rc int64) error {
	switch rc {
	case -1:
		return ErrNotFound
	case 0:
		return ErrNotLive
	}
	return nil
}

func (r *RedisRegistry) AddParticipant(ctx context.Context, id, userID string) error {
	rc, err := addParticipantScript.Run(ctx, r.client,
		[]string{r.key(id), r.membersKey(id)}, userID).Int64()
	if err != nil {
		return err
	}
	return scriptErr(rc)
}

func (r *RedisRegistry) Ping(ctx context.Context, id string) error {
	rc, err := pingScript.Run(ctx, r.client,
		[]string{r.key(id)}, time.Now().UTC().Format(time.RFC3339Nano)).Int64()
	if err != nil {
		return err
	}
	return scriptErr(rc)
}

func (r *RedisRegistry) End(ctx context.Context, id string) (bool, error) {
	rc, err := endScript.Run(ctx, r.client,
		[]string{r.key(id), r.liveKey()}, id).Int64()
	if err != nil {
		return false, err
	}
	if rc == -1 {
		return false, ErrNotFound
	}
	return rc == 1, nil
}

func (r *RedisRegistry) ListStale(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	ids, err := r.client.SMembers(ctx, r.liveKey()).Result()
	if err != nil {
		return nil, err
	}
	out := []*Session{}
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		if s.IsLive && s.LastPing.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out, nil
}
