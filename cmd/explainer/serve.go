package main

import (
	"fmt"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the background poller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, log, err := opts.loadConfig(
				config.SectionServer, config.SectionDatabase, config.SectionStorage,
				config.SectionPoller, config.SectionLLM,
			)
			if err != nil {
				return err
			}

			app, err := newApplication(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.cleanup()

			if migrate {
				if err := app.migrateUp(ctx); err != nil {
					return err
				}
			}

			if err := app.poller.Start(ctx); err != nil {
				return fmt.Errorf("failed to start poller: %w", err)
			}

			return app.startHTTPServer(ctx, app.setupRouter())
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}
