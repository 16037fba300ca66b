package cli

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/clearsky-ai/clearsky/pkg/repository"
	"github.com/clearsky-ai/clearsky/pkg/utils/logging"
)

func migrateCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply database schema migrations",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			if err := repository.Migrate(cfg.databaseDSN); err != nil {
				return err
			}
			logging.From(ctx).Info("migrations applied")
			return nil
		},
	}
}
