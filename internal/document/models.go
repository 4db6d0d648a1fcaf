package document

import "time"

// Type is the closed set of editor kinds a document can have.
type Type string

const (
	TypeText   Type = "text"
	TypeCode   Type = "code"
	TypeCanvas Type = "canvas"
)

// ValidType reports whether t is one of the supported document types.
func ValidType(t Type) bool {
	switch t {
	case TypeText, TypeCode, TypeCanvas:
		return true
	}
	return false
}

// Document is the persistent, ownable unit of collaborative content.
// Content holds the last checkpointed editable state as an opaque string
// (plain text, serialized canvas, etc.). ActiveSessionID is the single
// source of truth for which session owns the document right now; only the
// orchestrator mutates it.
type Document struct {
	ID              string    `json:"id" bson:"_id,omitempty"`
	Title           string    `json:"title" bson:"title"`
	Type            Type      `json:"type" bson:"type"`
	OwnerID         string    `json:"ownerId" bson:"ownerId"`
	Collaborators   []string  `json:"collaborators" bson:"collaborators"`
	ActiveSessionID string    `json:"activeSessionId,omitempty" bson:"activeSessionId,omitempty"`
	LastSessionID   string    `json:"lastSessionId,omitempty" bson:"lastSessionId,omitempty"`
	Content         string    `json:"content,omitempty" bson:"content,omitempty"`
	JoinCode        string    `json:"joinCode" bson:"joinCode"`
	CreatedAt       time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// HasCollaborator reports whether userID appears in the collaborator set.
func (d *Document) HasCollaborator(userID string) bool {
	for _, c := range d.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

// Membership describes how a user relates to a document.
type Membership struct {
	IsOwner        bool `json:"isOwner"`
	IsCollaborator bool `json:"isCollaborator"`
}

// Member reports whether the membership grants access at all.
func (m Membership) Member() bool { return m.IsOwner || m.IsCollaborator }
