package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Registry provides session persistence. Liveness transitions are atomic:
// implementations encode the isLive expectation in the update itself, so a
// late AddParticipant or Ping against an ended session fails with
// ErrNotLive instead of resurrecting it.
type Registry interface {
	Create(ctx context.Context, docID, creatorID string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	// AddParticipant records that userID joined. Idempotent.
	AddParticipant(ctx context.Context, id, userID string) error
	// Ping bumps lastPing on a live session.
	Ping(ctx context.Context, id string) error
	// End flips isLive to false. The bool reports whether this call
	// performed the flip; ending an already-ended session is a no-op
	// success, which lets the bridge, the reaper and explicit end
	// requests race without coordination.
	End(ctx context.Context, id string) (bool, error)
	// ListStale returns live sessions whose lastPing predates cutoff.
	ListStale(ctx context.Context, cutoff time.Time) ([]*Session, error)
}

// MongoRegistry implements Registry using a Mongo collection.
type MongoRegistry struct {
	col *mongo.Collection
}

func NewMongoRegistry(col *mongo.Collection) *MongoRegistry {
	return &MongoRegistry{col: col}
}

func (r *MongoRegistry) Create(ctx context.Context, docID, creatorID string) (*Session, error) {
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
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *MongoRegistry) Get(ctx context.Context, id string) (*Session, error) {
	var s Session
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// liveOrFail disambiguates a zero-match update: missing vs ended.
func (r *MongoRegistry) liveOrFail(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.IsLive {
		return ErrNotLive
	}
	return nil
}

func (r *MongoRegistry) AddParticipant(ctx context.Context, id, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isLive": true},
		bson.M{"$addToSet": bson.M{"participants": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.liveOrFail(ctx, id)
	}
	return nil
}

func (r *MongoRegistry) Ping(ctx context.Context, id string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isLive": true},
		bson.M{"$set": bson.M{"lastPing": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return r.liveOrFail(ctx, id)
	}
	return nil
}

func (r *MongoRegistry) End(ctx context.Context, id string) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "isLive": true},
		bson.M{"$set": bson.M{"isLive": false}})
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	// already ended is success; only a missing session is an error
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MongoRegistry) ListStale(ctx context.Context, cutoff time.Time) ([]*Session, error) {
	cur, err := r.col.Find(ctx, bson.M{"isLive": true, "lastPing": bson.M{"$lt": cutoff}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Session{}
	for cur.Next(ctx) {
		var s Session
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, cur.Err()
}
