package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpattn/canvasdb/internal/api"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := opts.cfg
			if port != 0 {
				cfg.Server.Port = port
			}
			a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := api.NewServer(api.Config{
				Store:        a.store,
				Schema:       a.schema,
				Runner:       a.runner,
				Exporter:     a.exporter,
				Importer:     a.importer,
				Logger:       a.logger,
				Addr:         cfg.Server.Addr(),
				CORSOrigins:  cfg.Server.CORSOrigins,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			})
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default from config)")
	return cmd
}
