package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// trainingData returns the agent's curated training texts, served from the
// cache when a fresh entry exists. The cache TTL is absolute; a read never
// extends it. On a miss the relational store is consulted and the cache
// repopulated.
func (p *Pipeline) trainingData(ctx context.Context, agentID model.AgentID) ([]string, error) {
	logger := logging.From(ctx)
	key := trainingKeyPrefix + agentID.String()

	cached, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok {
		var data []string
		if err := json.Unmarshal(cached, &data); err != nil {
			return nil, goerr.Wrap(err, "failed to decode cached training data", goerr.V("agentID", agentID))
		}
		logger.Debug("training data cache hit", "agentID", agentID, "entries", len(data))
		return data, nil
	}

	fetchStart := time.Now()
	data, err := p.repo.FindTrainingData(ctx, agentID, p.opts.TrainingDataLimit)
	if err != nil {
		return nil, err
	}
	logger.Debug("training data fetched", "agentID", agentID, "entries", len(data), "latency", time.Since(fetchStart))

	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode training data", goerr.V("agentID", agentID))
	}
	if err := p.cache.Set(ctx, key, encoded, p.opts.TrainingTTL); err != nil {
		return nil, err
	}

	return data, nil
}
