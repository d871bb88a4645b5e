package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/spf13/cobra"
)

func newOwnerCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Inspect or remove job owners",
	}

	show := &cobra.Command{
		Use:   "show <email>",
		Short: "Show the owner registered for an email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRegistry(cmd, func(ctx context.Context, reg *registry, _ *slog.Logger) error {
				owner, err := reg.owners.GetByEmail(ctx, domain.NormalizeEmail(args[0]))
				if err != nil {
					return fmt.Errorf("failed to get owner: %w", err)
				}

				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(owner)
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete an owner together with all of their jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRegistry(cmd, func(ctx context.Context, reg *registry, log *slog.Logger) error {
				email := domain.NormalizeEmail(args[0])
				if err := reg.owners.Delete(ctx, email); err != nil {
					return fmt.Errorf("failed to delete owner: %w", err)
				}

				log.Info("owner deleted", "email_domain", emailDomain(email))
				fmt.Fprintf(cmd.OutOrStdout(), "deleted owner %s and their jobs\n", email)
				return nil
			})
		},
	}

	cmd.AddCommand(show, remove)
	return cmd
}

// emailDomain returns the part of email after the last "@".
func emailDomain(email string) string {
	return email[strings.LastIndex(email, "@")+1:]
}
