package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clearsky-ai/clearsky/pkg/model"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

func ingestCommand() *cli.Command {
	var (
		cfg     config
		agentID int64
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "agent-id",
			Aliases:     []string{"a"},
			Usage:       "Agent whose knowledge base receives the document",
			Sources:     cli.EnvVars("CLEARSKY_AGENT_ID"),
			Destination: &agentID,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:      "ingest",
		Usage:     "Embed a document and store it in the agent's knowledge base",
		ArgsUsage: "<file>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("input file is required")
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
			}

			pipeline, _, closer, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer closer()

			count, err := pipeline.IngestText(ctx, model.AgentID(agentID), string(raw))
			if err != nil {
				return err
			}

			logging.From(ctx).Info("document ingested", "path", path, "chunks", count)
			return nil
		},
	}
}
