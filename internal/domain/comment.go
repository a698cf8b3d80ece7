package domain

import (
	"time"

	"github.com/google/uuid"
)

// Comment is one immutable post in a logbook discussion. Comments stay
// writable regardless of the logbook's lock state: review discussion must be
// possible on immutable records. Corrections are new comments.
type Comment struct {
	ID        uuid.UUID
	LogbookID uuid.UUID
	AuthorID  uuid.UUID
	Scope     CommentScope

	// SectionID/RecordID narrow the scope; both nil for document scope.
	SectionID *uuid.UUID
	RecordID  *uuid.UUID

	// ParentID links a reply to its root comment. Threading is shallow:
	// a reply cannot itself be replied to.
	ParentID *uuid.UUID

	Text      string
	CreatedAt time.Time

	// Children are replies ordered oldest-first. Populated on read.
	Children []Comment
}

// IsReply reports whether the comment is a reply rather than a thread root.
func (c *Comment) IsReply() bool { return c.ParentID != nil }
