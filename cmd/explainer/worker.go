package main

import (
	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/spf13/cobra"
)

func newWorkerCommand(opts *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process pending jobs without serving the API",
		Long: "Process pending jobs without serving the API. Jobs submitted to a server\n" +
			"sharing the same database and upload directory are picked up on the next scan.",
		Args: cobra.NoArgs,
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

			if once {
				stats, err := app.poller.RunOnce(ctx)
				if err != nil {
					return err
				}
				log.Info("worker finished",
					"pending", stats.Pending,
					"retrying", stats.Retrying,
					"skipped", stats.Skipped,
					"failed", stats.Failed)
				return nil
			}

			return app.poller.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single scan and exit")

	return cmd
}
