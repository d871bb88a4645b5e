package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/document"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/phrazzld/slide-explainer/internal/fanout"
	"github.com/phrazzld/slide-explainer/internal/platform/logger"
	"github.com/phrazzld/slide-explainer/internal/task"
	"github.com/spf13/cobra"
)

func newExplainCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "explain <file.pptx>",
		Short: "Explain a presentation locally without the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			if !strings.EqualFold(filepath.Ext(path), ".pptx") {
				return fmt.Errorf("%s: only .pptx presentations are supported", path)
			}

			cfg, err := config.LoadFile(opts.configPath, config.SectionPoller, config.SectionLLM)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			// Logs go to stderr so the result can be piped from stdout.
			log, err := logger.Setup(cfg.Server, logger.WithWriter(cmd.ErrOrStderr()))
			if err != nil {
				return fmt.Errorf("failed to set up logging: %w", err)
			}

			job, err := domain.NewJob(filepath.Base(path), "")
			if err != nil {
				return err
			}

			pres, err := document.OpenPPTX(path)
			if err != nil {
				return err
			}

			explainer, err := newExplainer(ctx, cfg.LLM, log)
			if err != nil {
				return err
			}
			engine := fanout.NewEngine(explainer,
				fanout.WithLogger(log),
				fanout.WithMaxConcurrency(cfg.Poller.FanoutLimit))

			result, err := task.NewPipeline(explainer, engine).Run(logger.WithLogger(ctx, log), pres)
			if err != nil {
				return err
			}
			log.Info("presentation explained",
				"source_name", job.SourceName,
				"blocks", len(result.Blocks),
				"failed_blocks", result.FailedCount())

			return writeArtifact(cmd.OutOrStdout(), output, task.NewArtifact(job, result))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the result to this file instead of stdout")

	return cmd
}

func writeArtifact(stdout io.Writer, output string, artifact task.Artifact) error {
	w := stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(artifact); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
