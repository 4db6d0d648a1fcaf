package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gopi-c-k/gopzCollab-sub000/internal/document"
	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
)

// MongoStore implements Store on a MongoDB collection. Every mutation is a
// single UpdateOne/InsertOne, so MongoDB's per-document atomicity carries
// the store's consistency contract; the compare-and-set operations encode
// their expectation in the update filter instead of reading first.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore {
	// join codes are globally unique; the index enforces it under races
	idx := mongo.IndexModel{Keys: bson.D{{Key: "joinCode", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(context.Background(), idx); err != nil {
		logger.Errorf("create joinCode index: %v; duplicate join codes are no longer rejected by the database", err)
	}
	return &MongoStore{col: col}
}

// activeSessionFilter builds the pointer expectation for conditional
// updates. An empty expect matches absent, null and empty, since all three
// shapes mean the document is idle.
func activeSessionFilter(expect string) bson.M {
	if expect == "" {
		return bson.M{"$in": bson.A{nil, ""}}
	}
	return bson.M{"$eq": expect}
}

func (m *MongoStore) Create(ctx context.Context, doc *document.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", ErrDuplicateJoinCode
		}
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoStore) GetByJoinCode(ctx context.Context, code string) (*document.Document, error) {
	var d document.Document
	if err := m.col.FindOne(ctx, bson.M{"joinCode": code}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) UpdateContent(ctx context.Context, id, content string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) ClaimActiveSession(ctx context.Context, id, expectSessionID, newSessionID string) (bool, error) {
	filter := bson.M{"_id": id, "activeSessionId": activeSessionFilter(expectSessionID)}
	res, err := m.col.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"activeSessionId": newSessionID, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (m *MongoStore) CompleteSession(ctx context.Context, id, sessionID string) (bool, error) {
	filter := bson.M{"_id": id, "activeSessionId": sessionID}
	update := bson.M{
		"$unset": bson.M{"activeSessionId": ""},
		"$set":   bson.M{"lastSessionId": sessionID, "updatedAt": time.Now().UTC()},
	}
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (m *MongoStore) AddCollaborator(ctx context.Context, id, userID string) error {
	// $addToSet keeps the set semantics; adding the owner is filtered out
	filter := bson.M{"_id": id, "ownerId": bson.M{"$ne": userID}}
	res, err := m.col.UpdateOne(ctx, filter,
		bson.M{"$addToSet": bson.M{"collaborators": userID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// either missing or the owner; a second lookup disambiguates
		if _, gerr := m.Get(ctx, id); gerr != nil {
			return gerr
		}
	}
	return nil
}

func (m *MongoStore) RemoveCollaborator(ctx context.Context, id, userID string) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"collaborators": userID}, "$set": bson.M{"updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoStore) Membership(ctx context.Context, id, userID string) (document.Membership, error) {
	d, err := m.Get(ctx, id)
	if err != nil {
		return document.Membership{}, err
	}
	return document.Membership{
		IsOwner:        d.OwnerID == userID,
		IsCollaborator: d.HasCollaborator(userID),
	}, nil
}
