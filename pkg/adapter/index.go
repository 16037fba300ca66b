package adapter

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

// VectorIndex is the interface for the namespaced vector similarity index.
// A namespace isolates one agent's knowledge base from another's.
type VectorIndex interface {
	// Query returns at most topK matches ordered by descending relevance.
	// When includeContent is false the snippet text is omitted and only
	// scores are returned.
	Query(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error)

	// Upsert inserts or replaces chunks in the namespace.
	Upsert(ctx context.Context, namespace string, chunks []model.Chunk, vectors [][]float32) error
}

type pgvectorIndex struct {
	pool *pgxpool.Pool
}

// NewPGVectorIndex creates a VectorIndex backed by a Postgres table with a
// pgvector column. The pool must have pgvector types registered.
func NewPGVectorIndex(pool *pgxpool.Pool) VectorIndex {
	return &pgvectorIndex{pool: pool}
}

func (x *pgvectorIndex) Query(ctx context.Context, namespace string, vector []float32, topK int, includeContent bool) ([]model.Snippet, error) {
	query := `
		SELECT content, 1 - (embedding <=> $2) AS score
		FROM knowledge_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3`
	if !includeContent {
		query = `
		SELECT '' AS content, 1 - (embedding <=> $2) AS score
		FROM knowledge_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3`
	}

	rows, err := x.pool.Query(ctx, query, namespace, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query vector index", goerr.V("namespace", namespace))
	}
	defer rows.Close()

	var snippets []model.Snippet
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(&s.Content, &s.Score); err != nil {
			return nil, goerr.Wrap(err, "failed to scan vector match")
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate vector matches")
	}

	return snippets, nil
}

func (x *pgvectorIndex) Upsert(ctx context.Context, namespace string, chunks []model.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return goerr.New("chunk and vector counts differ",
			goerr.V("chunks", len(chunks)), goerr.V("vectors", len(vectors)))
	}

	for i, chunk := range chunks {
		_, err := x.pool.Exec(ctx, `
			INSERT INTO knowledge_chunks (id, namespace, content, embedding)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE
			SET content = EXCLUDED.content, embedding = EXCLUDED.embedding`,
			chunk.ID, namespace, chunk.Content, pgvector.NewVector(vectors[i]))
		if err != nil {
			return goerr.Wrap(err, "failed to upsert chunk",
				goerr.V("namespace", namespace), goerr.V("id", chunk.ID))
		}
	}

	return nil
}
