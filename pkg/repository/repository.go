package repository

import (
	"context"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

// Repository defines the interface for relational persistence of agents,
// conversation messages and training data.
type Repository interface {
	// CreateAgent saves a new agent and returns it with its assigned ID
	CreateAgent(ctx context.Context, agent *model.Agent) (*model.Agent, error)

	// GetAgent retrieves an agent by ID
	GetAgent(ctx context.Context, id model.AgentID) (*model.Agent, error)

	// ListAgents retrieves all agents
	ListAgents(ctx context.Context) ([]*model.Agent, error)

	// UpdateAgent updates an existing agent
	UpdateAgent(ctx context.Context, agent *model.Agent) error

	// DeleteAgent removes an agent
	DeleteAgent(ctx context.Context, id model.AgentID) error

	// CreateMessage durably records one conversation turn
	CreateMessage(ctx context.Context, agentID model.AgentID, sessionID model.SessionID, sender model.Sender, content string) (*model.Message, error)

	// ListMessages retrieves messages for a session newest-first with the
	// total count for pagination
	ListMessages(ctx context.Context, sessionID model.SessionID, offset, limit int) ([]*model.Message, int64, error)

	// ListOpenIssues retrieves messages with an unresolved issue for an agent
	ListOpenIssues(ctx context.Context, agentID model.AgentID, offset, limit int) ([]*model.Message, int64, error)

	// UpdateReaction sets the reaction for a message. Reaction 0 opens an
	// issue, a nil reaction clears it.
	UpdateReaction(ctx context.Context, messageID int64, reaction *int) (*model.Message, error)

	// CreateTrainingExample records curated training data for a message and
	// resolves the message's issue
	CreateTrainingExample(ctx context.Context, messageID int64, agentID model.AgentID, data string) (*model.TrainingExample, error)

	// FindTrainingData returns training data texts for an agent, most recent
	// first, bounded to limit entries when limit > 0
	FindTrainingData(ctx context.Context, agentID model.AgentID, limit int) ([]string, error)

	// ListTrainingExamples retrieves all training examples for an agent
	ListTrainingExamples(ctx context.Context, agentID model.AgentID) ([]*model.TrainingExample, error)

	// DeleteTrainingExample removes a training example by ID
	DeleteTrainingExample(ctx context.Context, id int64) (*model.TrainingExample, error)
}
