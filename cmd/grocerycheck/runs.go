package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"grocerycheck/infrastructure/repository"
	"grocerycheck/presentation"
)

func newRunsCmd(a *app) *cobra.Command {
	var (
		suite string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent run reports stored in MongoDB",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.Mongo.URI == "" {
				return errors.New("no MongoDB configured (set mongo.uri or GROCERYCHECK_MONGO_URI)")
			}
			logger, closeLog, err := a.setupLogging(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			defer closeLog()

			ctx, cancel := context.WithTimeout(cmd.Context(), publishTimeout)
			defer cancel()

			db, err := openMongo(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer db.Close(context.WithoutCancel(ctx))

			repo := repository.NewMongoRunRepository(db, cfg.Mongo.Collection, logger)
			reports, err := repo.FindRecent(ctx, suite, limit)
			if err != nil {
				return err
			}
			presentation.NewPrinter(a.stdout, false).Runs(reports)
			return nil
		},
	}
	cmd.Flags().StringVarP(&suite, "suite", "s", "", "only runs of this suite")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show")
	return cmd
}
