// Package archive keeps a best-effort history of session checkpoints:
// every final content write gets a timestamped copy in object storage
// plus a metadata record, giving operators a recovery path when a
// checkpoint fails or overwrites something it should not have.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gopi-c-k/gopzCollab-sub000/pkg/logger"
)

// Record is the Mongo metadata row for one archived checkpoint.
type Record struct {
	SessionID string    `bson:"sessionId" json:"sessionId"`
	DocID     string    `bson:"docId" json:"docId"`
	Key       string    `bson:"key" json:"key"`
	Size      int64     `bson:"size" json:"size"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Archiver writes checkpoint copies. Both sinks are optional: a nil
// Archiver or a partially configured one degrades to logging only, since
// archival must never block session termination.
type Archiver struct {
	blobs *BlobStore
	col   *mongo.Collection
}

func NewArchiver(blobs *BlobStore, col *mongo.Collection) *Archiver {
	return &Archiver{blobs: blobs, col: col}
}

// Archive stores one checkpoint copy. Errors are logged, never returned:
// callers fire and forget.
func (a *Archiver) Archive(ctx context.Context, docID, sessionID, content string) {
	if a == nil || a.blobs == nil {
		return
	}
	key := fmt.Sprintf("checkpoints/%s/%d-%s", docID, time.Now().UTC().UnixMilli(), sessionID)
	size := int64(len(content))
	if err := a.blobs.Put(ctx, key, strings.NewReader(content), size); err != nil {
		logger.Warnf("archive checkpoint for session %s: %v", sessionID, err)
		return
	}
	if a.col == nil {
		return
	}
	rec := Record{SessionID: sessionID, DocID: docID, Key: key, Size: size, CreatedAt: time.Now().UTC()}
	opts := options.Update().SetUpsert(true)
	if _, err := a.col.UpdateOne(ctx, bson.M{"key": key}, bson.M{"$set": rec}, opts); err != nil {
		logger.Warnf("record archived checkpoint %s: %v", key, err)
	}
}

// Latest returns the newest archived record for a document, or nil.
func (a *Archiver) Latest(ctx context.Context, docID string) (*Record, error) {
	if a == nil || a.col == nil {
		return nil, nil
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var rec Record
	if err := a.col.FindOne(ctx, bson.M{"docId": docID}, opts).Decode(&rec); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
