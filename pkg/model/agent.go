package model

import (
	"strconv"
	"time"
)

type AgentID int64

// Agent is a chat agent owning its own knowledge base namespace,
// training data and conversation log.
type Agent struct {
	ID          AgentID
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Namespace returns the vector index partition for the agent's knowledge
// base. Knowledge bases of different agents never cross-contaminate.
func (id AgentID) Namespace() string {
	return "agent-" + id.String()
}

func (id AgentID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
