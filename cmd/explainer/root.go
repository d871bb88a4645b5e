package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/spf13/cobra"
)

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "explainer",
		Short:         "Explain presentation slides with a language model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to a config file (default ./config.yaml)")

	cmd.AddCommand(
		newServeCommand(opts),
		newWorkerCommand(opts),
		newMigrateCommand(opts),
		newOwnerCommand(opts),
		newExplainCommand(opts),
		newSubmitCommand(opts),
		newStatusCommand(opts),
	)

	return cmd
}

// loadConfig loads the configuration, validating only the given sections,
// and sets up logging when the server section is among them.
func (o *rootOptions) loadConfig(sections ...config.Section) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(o.configPath, sections...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return cfg, log, nil
}
