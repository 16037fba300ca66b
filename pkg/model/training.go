package model

import "time"

// TrainingExample is a curated answer recorded for an agent, keyed to the
// message whose reaction prompted it.
type TrainingExample struct {
	ID        int64
	MessageID int64
	AgentID   AgentID
	Data      string
	CreatedAt time.Time
}
