package sessions

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrNotLive is returned by operations that require a live session
	// (ping, participant add) once the session has ended.
	ErrNotLive = errors.New("session is not live")
)

// Session records one continuous period of live collaboration on a document.
// Participants grows monotonically as users join; it never shrinks on
// disconnect, since the sync bridge tracks currently-connected clients
// separately. Once IsLive flips to false the record is immutable and kept
// only for "last edited" history.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	DocID        string    `bson:"docId" json:"docId"`
	CreatorID    string    `bson:"creatorId" json:"creatorId"`
	Participants []string  `bson:"participants" json:"participants"`
	IsLive       bool      `bson:"isLive" json:"isLive"`
	StartedAt    time.Time `bson:"startedAt" json:"startedAt"`
	LastPing     time.Time `bson:"lastPing" json:"lastPing"`
}

// HasParticipant reports whether userID ever joined the session.
func (s *Session) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
