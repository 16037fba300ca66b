package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/chunk"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// IngestText splits text into token-bounded chunks, embeds each one and
// upserts the result into the agent's knowledge base namespace. It returns
// the number of chunks stored.
func (p *Pipeline) IngestText(ctx context.Context, agentID model.AgentID, text string) (int, error) {
	logger := logging.From(ctx)

	splitter, err := chunk.NewSplitter()
	if err != nil {
		return 0, err
	}

	pieces := splitter.Split(text)
	if len(pieces) == 0 {
		return 0, goerr.New("no chunks produced from input text")
	}
	logger.Info("splitting text into chunks", "count", len(pieces), "agentID", agentID)

	chunks := make([]model.Chunk, 0, len(pieces))
	vectors := make([][]float32, 0, len(pieces))

	embedStart := time.Now()
	for _, piece := range pieces {
		vec, err := p.llm.Embedding(ctx, piece)
		if err != nil {
			return 0, err
		}
		if len(vec) != p.opts.Dimension {
			return 0, goerr.Wrap(model.ErrInvalidVectorDimension, "embedding service returned wrong dimensionality",
				goerr.V("got", len(vec)), goerr.V("want", p.opts.Dimension))
		}

		chunks = append(chunks, model.Chunk{
			ID:      uuid.New().String(),
			Content: piece,
		})
		vectors = append(vectors, vec)
	}
	logger.Info("chunks embedded", "count", len(chunks), "latency", time.Since(embedStart))

	if err := p.index.Upsert(ctx, agentID.Namespace(), chunks, vectors); err != nil {
		return 0, err
	}

	return len(chunks), nil
}
