package chat

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

// encodeVector serializes an embedding vector for cache storage. The codec
// round-trips float32 values exactly.
func encodeVector(vec []float32) ([]byte, error) {
	encoded, err := msgpack.Marshal(vec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode embedding vector")
	}
	return encoded, nil
}

func decodeVector(data []byte) ([]float32, error) {
	var vec []float32
	if err := msgpack.Unmarshal(data, &vec); err != nil {
		return nil, goerr.Wrap(err, "failed to decode cached embedding vector")
	}
	return vec, nil
}

// embedQuery returns the embedding vector for query, computing it through
// the embedding service only on a cache miss. The cache key is the raw query
// text, case- and whitespace-sensitive as given.
//
// A vector whose length differs from the configured dimension is fatal to
// the request and is never cached.
func (p *Pipeline) embedQuery(ctx context.Context, query string) ([]float32, error) {
	logger := logging.From(ctx)
	key := embeddingKeyPrefix + query

	lookupStart := time.Now()
	cached, ok, err := p.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	logger.Debug("embedding cache lookup", "hit", ok, "latency", time.Since(lookupStart))

	if ok {
		return decodeVector(cached)
	}

	embedStart := time.Now()
	vec, err := p.llm.Embedding(ctx, query)
	if err != nil {
		return nil, err
	}
	logger.Info("embedding generated", "latency", time.Since(embedStart), "dimension", len(vec))

	if len(vec) != p.opts.Dimension {
		return nil, goerr.Wrap(model.ErrInvalidVectorDimension, "embedding service returned wrong dimensionality",
			goerr.V("got", len(vec)), goerr.V("want", p.opts.Dimension))
	}

	encoded, err := encodeVector(vec)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, encoded, p.opts.EmbeddingTTL); err != nil {
		return nil, err
	}

	return vec, nil
}
