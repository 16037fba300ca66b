package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clearsky-ai/clearsky/pkg/adapter"
	"github.com/clearsky-ai/clearsky/pkg/repository"
	"github.com/clearsky-ai/clearsky/pkg/usecase/chat"
)

// config holds configuration values
type config struct {
	// Stores
	redisAddr     string
	redisUser     string
	redisPassword string
	databaseDSN   string

	// LLM
	geminiProject   string
	geminiLocation  string
	generativeModel string
	embeddingModel  string

	// Pipeline
	dimension         int64
	topK              int64
	historyWindow     int64
	trainingDataLimit int64
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis server address (host:port)",
			Value:       "localhost:6379",
			Sources:     cli.EnvVars("REDIS_ADDR"),
			Destination: &cfg.redisAddr,
		},
		&cli.StringFlag{
			Name:        "redis-username",
			Usage:       "Redis username",
			Value:       "default",
			Sources:     cli.EnvVars("REDIS_USERNAME"),
			Destination: &cfg.redisUser,
		},
		&cli.StringFlag{
			Name:        "redis-password",
			Usage:       "Redis password",
			Sources:     cli.EnvVars("REDIS_PASSWORD"),
			Destination: &cfg.redisPassword,
		},
		&cli.StringFlag{
			Name:        "database-dsn",
			Aliases:     []string{"d"},
			Usage:       "Postgres connection URL",
			Sources:     cli.EnvVars("DATABASE_URL"),
			Destination: &cfg.databaseDSN,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Model for answer generation",
			Sources:     cli.EnvVars("CLEARSKY_GENERATIVE_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Model for query embeddings",
			Sources:     cli.EnvVars("CLEARSKY_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
	}
}

// pipelineFlags returns flags tuning the answer pipeline
func pipelineFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "dimension",
			Usage:       "Vector index dimensionality",
			Value:       1024,
			Sources:     cli.EnvVars("CLEARSKY_DIMENSION"),
			Destination: &cfg.dimension,
		},
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Number of snippets retrieved per query",
			Value:       4,
			Sources:     cli.EnvVars("CLEARSKY_TOP_K"),
			Destination: &cfg.topK,
		},
		&cli.IntFlag{
			Name:        "history-window",
			Usage:       "Most-recent history entries read per request (0 = full log)",
			Sources:     cli.EnvVars("CLEARSKY_HISTORY_WINDOW"),
			Destination: &cfg.historyWindow,
		},
		&cli.IntFlag{
			Name:        "training-data-limit",
			Usage:       "Training data entries fetched per cache miss (0 = all)",
			Sources:     cli.EnvVars("CLEARSKY_TRAINING_LIMIT"),
			Destination: &cfg.trainingDataLimit,
		},
	}
}

// newCache creates the cache store client
func (cfg *config) newCache(ctx context.Context) (adapter.Cache, error) {
	if cfg.redisAddr == "" {
		return nil, goerr.New("redis-addr is required")
	}
	return adapter.NewRedis(ctx, cfg.redisAddr, cfg.redisUser, cfg.redisPassword)
}

// newLLM creates the language model adapter
func (cfg *config) newLLM(ctx context.Context) (adapter.LLM, error) {
	if cfg.geminiProject == "" {
		return nil, goerr.New("gemini-project is required")
	}
	if cfg.geminiLocation == "" {
		return nil, goerr.New("gemini-location is required")
	}

	var opts []adapter.GeminiOption
	if cfg.generativeModel != "" {
		opts = append(opts, adapter.WithGenerativeModel(cfg.generativeModel))
	}
	if cfg.embeddingModel != "" {
		opts = append(opts, adapter.WithEmbeddingModel(cfg.embeddingModel))
	}
	return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
}

// newPipeline wires all collaborators into an answer pipeline. The returned
// closer releases the database pool.
func (cfg *config) newPipeline(ctx context.Context) (*chat.Pipeline, repository.Repository, func(), error) {
	if cfg.databaseDSN == "" {
		return nil, nil, nil, goerr.New("database-dsn is required")
	}

	cache, err := cfg.newCache(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	llm, err := cfg.newLLM(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := repository.NewPool(ctx, cfg.databaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	repo := repository.NewPostgres(pool)
	pipeline := chat.New(chat.NewInput{
		Cache: cache,
		LLM:   llm,
		Index: adapter.NewPGVectorIndex(pool),
		Repo:  repo,
		Options: chat.Options{
			Dimension:         int(cfg.dimension),
			TopK:              int(cfg.topK),
			HistoryWindow:     int(cfg.historyWindow),
			TrainingDataLimit: int(cfg.trainingDataLimit),
		},
	})

	return pipeline, repo, pool.Close, nil
}
