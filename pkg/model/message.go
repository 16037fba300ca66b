package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID generates a new unique SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Issue states for a message. A thumbs-down reaction opens an issue;
// recording training data for the message resolves it.
const (
	IssueOpen     = 1
	IssueResolved = 0
)

// StreamedAnswerPlaceholder is logged in place of a streamed answer's text.
// The literal streamed content is not reconstructed for persistence.
const StreamedAnswerPlaceholder = "[STREAMED_RESPONSE]"

// Message is one persisted conversation turn.
type Message struct {
	ID        int64
	AgentID   AgentID
	SessionID SessionID
	Sender    Sender
	Content   string
	Reaction  *int
	Issue     *int
	CreatedAt time.Time

	// Index is the position within the session counted from the oldest
	// message, assigned at read time for paginated listings.
	Index int64
}
