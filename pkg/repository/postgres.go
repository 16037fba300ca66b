package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

// NewPool creates a pgx connection pool with pgvector types registered on
// every connection. The pool is shared between the relational repository and
// the vector index.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse database DSN")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to connect to database")
	}

	return pool, nil
}

// postgresRepo implements Repository using Postgres
type postgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a new Postgres repository
func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) CreateAgent(ctx context.Context, agent *model.Agent) (*model.Agent, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO agents (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at, updated_at`,
		agent.Name, agent.Description)

	created := &model.Agent{}
	if err := row.Scan(&created.ID, &created.Name, &created.Description, &created.CreatedAt, &created.UpdatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to create agent")
	}
	return created, nil
}

func (r *postgresRepo) GetAgent(ctx context.Context, id model.AgentID) (*model.Agent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM agents WHERE id = $1`, id)

	agent := &model.Agent{}
	err := row.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.CreatedAt, &agent.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrAgentNotFound, "no such agent", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get agent", goerr.V("id", id))
	}
	return agent, nil
}

func (r *postgresRepo) ListAgents(ctx context.Context) ([]*model.Agent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at, updated_at
		FROM agents ORDER BY id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list agents")
	}
	defer rows.Close()

	var agents []*model.Agent
	for rows.Next() {
		agent := &model.Agent{}
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Description, &agent.CreatedAt, &agent.UpdatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan agent")
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

func (r *postgresRepo) UpdateAgent(ctx context.Context, agent *model.Agent) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE agents SET name = $2, description = $3, updated_at = now()
		WHERE id = $1`,
		agent.ID, agent.Name, agent.Description)
	if err != nil {
		return goerr.Wrap(err, "failed to update agent", goerr.V("id", agent.ID))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(model.ErrAgentNotFound, "no such agent", goerr.V("id", agent.ID))
	}
	return nil
}

func (r *postgresRepo) DeleteAgent(ctx context.Context, id model.AgentID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return goerr.Wrap(err, "failed to delete agent", goerr.V("id", id))
	}
	if tag.RowsAffected() == 0 {
		return goerr.Wrap(model.ErrAgentNotFound, "no such agent", goerr.V("id", id))
	}
	return nil
}

func (r *postgresRepo) CreateMessage(ctx context.Context, agentID model.AgentID, sessionID model.SessionID, sender model.Sender, content string) (*model.Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (agent_id, session_id, sender, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, agent_id, session_id, sender, content, reaction, issue, created_at`,
		agentID, sessionID, sender, content)

	msg := &model.Message{}
	if err := row.Scan(&msg.ID, &msg.AgentID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.Reaction, &msg.Issue, &msg.CreatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to create message",
			goerr.V("agentID", agentID), goerr.V("sessionID", sessionID))
	}
	return msg, nil
}

func (r *postgresRepo) ListMessages(ctx context.Context, sessionID model.SessionID, offset, limit int) ([]*model.Message, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM messages WHERE session_id = $1`, sessionID).Scan(&total); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count messages")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_id, session_id, sender, content, reaction, issue, created_at
		FROM messages
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`, sessionID, offset, limit)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list messages", goerr.V("sessionID", sessionID))
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *postgresRepo) ListOpenIssues(ctx context.Context, agentID model.AgentID, offset, limit int) ([]*model.Message, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM messages WHERE agent_id = $1 AND issue = 1`, agentID).Scan(&total); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count open issues")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_id, session_id, sender, content, reaction, issue, created_at
		FROM messages
		WHERE agent_id = $1 AND issue = 1
		ORDER BY created_at DESC, id DESC
		OFFSET $2 LIMIT $3`, agentID, offset, limit)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to list open issues", goerr.V("agentID", agentID))
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *postgresRepo) UpdateReaction(ctx context.Context, messageID int64, reaction *int) (*model.Message, error) {
	// Reaction 0 opens an issue for later training; clearing the reaction
	// clears the issue. Reaction 1 leaves the issue state untouched.
	row := r.pool.QueryRow(ctx, `
		UPDATE messages
		SET reaction = $2,
		    issue = CASE
		        WHEN $2::int = 0 THEN 1
		        WHEN $2::int IS NULL THEN NULL
		        ELSE issue
		    END
		WHERE id = $1
		RETURNING id, agent_id, session_id, sender, content, reaction, issue, created_at`,
		messageID, reaction)

	msg := &model.Message{}
	err := row.Scan(&msg.ID, &msg.AgentID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.Reaction, &msg.Issue, &msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "no such message", goerr.V("id", messageID))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update reaction", goerr.V("id", messageID))
	}
	return msg, nil
}

func (r *postgresRepo) CreateTrainingExample(ctx context.Context, messageID int64, agentID model.AgentID, data string) (*model.TrainingExample, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM training_examples WHERE message_id = $1)`, messageID).Scan(&exists); err != nil {
		return nil, goerr.Wrap(err, "failed to check existing training data")
	}
	if exists {
		return nil, goerr.Wrap(model.ErrTrainingExists, "duplicate training data", goerr.V("messageID", messageID))
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO training_examples (message_id, agent_id, data)
		VALUES ($1, $2, $3)
		RETURNING id, message_id, agent_id, data, created_at`,
		messageID, agentID, data)

	example := &model.TrainingExample{}
	if err := row.Scan(&example.ID, &example.MessageID, &example.AgentID, &example.Data, &example.CreatedAt); err != nil {
		return nil, goerr.Wrap(err, "failed to create training example")
	}

	tag, err := tx.Exec(ctx, `UPDATE messages SET issue = 0 WHERE id = $1`, messageID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve message issue", goerr.V("messageID", messageID))
	}
	if tag.RowsAffected() == 0 {
		return nil, goerr.Wrap(model.ErrNotFound, "no such message", goerr.V("messageID", messageID))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to commit training example")
	}
	return example, nil
}

func (r *postgresRepo) FindTrainingData(ctx context.Context, agentID model.AgentID, limit int) ([]string, error) {
	query := `
		SELECT data FROM training_examples
		WHERE agent_id = $1
		ORDER BY created_at DESC, id DESC`
	args := []any{agentID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find training data", goerr.V("agentID", agentID))
	}
	defer rows.Close()

	var data []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to scan training data")
		}
		data = append(data, d)
	}
	return data, rows.Err()
}

func (r *postgresRepo) ListTrainingExamples(ctx context.Context, agentID model.AgentID) ([]*model.TrainingExample, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, agent_id, data, created_at
		FROM training_examples
		WHERE agent_id = $1
		ORDER BY id`, agentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list training examples", goerr.V("agentID", agentID))
	}
	defer rows.Close()

	var examples []*model.TrainingExample
	for rows.Next() {
		example := &model.TrainingExample{}
		if err := rows.Scan(&example.ID, &example.MessageID, &example.AgentID, &example.Data, &example.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan training example")
		}
		examples = append(examples, example)
	}
	return examples, rows.Err()
}

func (r *postgresRepo) DeleteTrainingExample(ctx context.Context, id int64) (*model.TrainingExample, error) {
	row := r.pool.QueryRow(ctx, `
		DELETE FROM training_examples WHERE id = $1
		RETURNING id, message_id, agent_id, data, created_at`, id)

	example := &model.TrainingExample{}
	err := row.Scan(&example.ID, &example.MessageID, &example.AgentID, &example.Data, &example.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, goerr.Wrap(model.ErrNotFound, "no such training example", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to delete training example", goerr.V("id", id))
	}
	return example, nil
}

func scanMessages(rows pgx.Rows) ([]*model.Message, error) {
	var msgs []*model.Message
	for rows.Next() {
		msg := &model.Message{}
		if err := rows.Scan(&msg.ID, &msg.AgentID, &msg.SessionID, &msg.Sender, &msg.Content, &msg.Reaction, &msg.Issue, &msg.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message")
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
