package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the job registry schema",
	}

	run := func(action registryAction) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return opts.withRegistry(cmd, func(ctx context.Context, reg *registry, log *slog.Logger) error {
				return action(ctx, reg, log, cmd.OutOrStdout())
			})
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(migrateUp),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  run(migrateDown),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations are applied",
			Args:  cobra.NoArgs,
			RunE:  run(migrateStatus),
		},
	)

	return cmd
}

// registryAction is a command body run against an opened registry.
type registryAction func(ctx context.Context, reg *registry, log *slog.Logger, out io.Writer) error

func (app *application) migrateUp(ctx context.Context) error {
	return migrateUp(ctx, app.registry, app.logger, io.Discard)
}

func migrateUp(ctx context.Context, reg *registry, log *slog.Logger, out io.Writer) error {
	p, err := reg.migrations(log)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	for _, r := range results {
		fmt.Fprintf(out, "applied %s (%s)\n", path.Base(r.Source.Path), r.Duration.Round(time.Millisecond))
	}
	log.Info("migrations applied", "count", len(results))
	return nil
}

func migrateDown(ctx context.Context, reg *registry, log *slog.Logger, out io.Writer) error {
	p, err := reg.migrations(log)
	if err != nil {
		return err
	}

	result, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	fmt.Fprintf(out, "rolled back %s\n", path.Base(result.Source.Path))
	log.Info("migration rolled back", "version", result.Source.Version)
	return nil
}

func migrateStatus(ctx context.Context, reg *registry, log *slog.Logger, out io.Writer) error {
	p, err := reg.migrations(log)
	if err != nil {
		return err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tAPPLIED AT\tFILE")
	for _, s := range statuses {
		applied := "-"
		if !s.AppliedAt.IsZero() {
			applied = s.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, path.Base(s.Source.Path))
	}
	return tw.Flush()
}
