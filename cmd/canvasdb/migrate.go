package main

import (
	"github.com/spf13/cobra"

	"github.com/rpattn/canvasdb/internal/db"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := opts.cfg.Log.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return db.RunMigrations(opts.cfg.Database.DB(), logger)
		},
	}
}
