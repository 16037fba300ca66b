package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/clearsky-ai/clearsky/pkg/model"
)

func askCommand() *cli.Command {
	var (
		cfg       config
		agentID   int64
		sessionID string
		stream    bool
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "agent-id",
			Aliases:     []string{"a"},
			Usage:       "Agent to answer the question",
			Sources:     cli.EnvVars("CLEARSKY_AGENT_ID"),
			Destination: &agentID,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "session-id",
			Aliases:     []string{"s"},
			Usage:       "Conversation session ID (generated when omitted)",
			Sources:     cli.EnvVars("CLEARSKY_SESSION_ID"),
			Destination: &sessionID,
		},
		&cli.BoolFlag{
			Name:        "stream",
			Usage:       "Stream the answer chunk by chunk",
			Destination: &stream,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, pipelineFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask an agent a question",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return goerr.New("question is required")
			}

			if sessionID == "" {
				sessionID = string(model.NewSessionID())
			}

			pipeline, _, closer, err := cfg.newPipeline(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if stream {
				err := pipeline.GetAnswerStream(ctx, query, model.AgentID(agentID), model.SessionID(sessionID), func(chunk string) error {
					_, err := fmt.Fprint(c.Root().Writer, chunk)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(c.Root().Writer)
				return nil
			}

			answer, err := pipeline.GetAnswer(ctx, query, model.AgentID(agentID), model.SessionID(sessionID))
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Root().Writer, answer)
			return nil
		},
	}
}
