package chat

import (
	"time"

	"github.com/clearsky-ai/clearsky/pkg/adapter"
	"github.com/clearsky-ai/clearsky/pkg/repository"
)

// Cache key prefixes. Every key class is namespaced by its own prefix so the
// three concerns (embedding cache, session history, training cache) never
// collide in the shared store.
const (
	embeddingKeyPrefix = "embedding:"
	historyKeyPrefix   = "session_history:"
	trainingKeyPrefix  = "training_data:"
)

// Options configures the single answer pipeline. Zero values fall back to
// the defaults below; HistoryWindow and TrainingDataLimit are exceptions
// where zero means "full log" and "unbounded".
type Options struct {
	// Dimension is the vector length the index is configured for. Any
	// embedding of a different length is rejected before use.
	Dimension int

	// TopK is the number of nearest neighbors requested per query.
	TopK int

	// HistoryWindow limits a history read to the most recent entries.
	// Zero reads the full retained log.
	HistoryWindow int

	// HistoryLimit caps the retained history per session. The log is trimmed
	// to this length after every append.
	HistoryLimit int

	// TrainingDataLimit bounds the training data fetch on a cache miss.
	// Zero fetches all of the agent's training data.
	TrainingDataLimit int

	SessionTTL   time.Duration // sliding, refreshed on read and write
	EmbeddingTTL time.Duration // absolute
	TrainingTTL  time.Duration // absolute
}

const (
	defaultDimension    = 1024
	defaultTopK         = 4
	defaultHistoryLimit = 10
	defaultSessionTTL   = 30 * time.Minute
	defaultEmbeddingTTL = time.Hour
	defaultTrainingTTL  = time.Hour
)

// Pipeline answers a user question by combining vector search results,
// session history and agent training data into a single prompt, invoking the
// completion service and persisting the exchange.
type Pipeline struct {
	cache adapter.Cache
	llm   adapter.LLM
	index adapter.VectorIndex
	repo  repository.Repository
	opts  Options
}

// NewInput contains the injected collaborators for a Pipeline. All clients
// are owned by the caller; the pipeline never constructs its own connections.
type NewInput struct {
	Cache   adapter.Cache
	LLM     adapter.LLM
	Index   adapter.VectorIndex
	Repo    repository.Repository
	Options Options
}

func New(input NewInput) *Pipeline {
	opts := input.Options
	if opts.Dimension <= 0 {
		opts.Dimension = defaultDimension
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	if opts.EmbeddingTTL <= 0 {
		opts.EmbeddingTTL = defaultEmbeddingTTL
	}
	if opts.TrainingTTL <= 0 {
		opts.TrainingTTL = defaultTrainingTTL
	}

	return &Pipeline{
		cache: input.Cache,
		llm:   input.LLM,
		index: input.Index,
		repo:  input.Repo,
		opts:  opts,
	}
}
