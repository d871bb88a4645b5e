package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/phrazzld/slide-explainer/internal/api"
	"github.com/phrazzld/slide-explainer/internal/client"
	"github.com/phrazzld/slide-explainer/internal/config"
	"github.com/phrazzld/slide-explainer/internal/domain"
	"github.com/spf13/cobra"
)

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	server string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.server, "server", "", "server base URL (overrides client.base_url)")
}

func (f *clientFlags) newClient(opts *rootOptions) (*client.Client, error) {
	cfg, err := config.LoadFile(opts.configPath, config.SectionClient)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	baseURL := cfg.Client.BaseURL
	if f.server != "" {
		baseURL = f.server
	}
	return client.New(baseURL, client.WithPollInterval(cfg.Client.PollInterval))
}

func parseJobID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid job id %q: %w", s, err)
	}
	return id, nil
}

func printJob(w io.Writer, job *api.JobResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}

func newSubmitCommand(opts *rootOptions) *cobra.Command {
	var (
		flags clientFlags
		email string
		wait  bool
	)

	cmd := &cobra.Command{
		Use:   "submit <file.pptx>",
		Short: "Upload a presentation to a running server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := flags.newClient(opts)
			if err != nil {
				return err
			}

			job, err := c.SubmitFile(cmd.Context(), args[0], email)
			if err != nil {
				return err
			}

			if wait {
				id, err := parseJobID(job.ID)
				if err != nil {
					return err
				}
				if job, err = c.Wait(cmd.Context(), id); err != nil {
					return err
				}
			}

			return printJob(cmd.OutOrStdout(), job)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "owner email used to look the job up later")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the job is done")

	return cmd
}

func newStatusCommand(opts *rootOptions) *cobra.Command {
	var (
		flags clientFlags
		email string
		name  string
		wait  bool
	)

	cmd := &cobra.Command{
		Use:   "status [job-id]",
		Short: "Show the status of a job by id, or the latest job for --name and --email",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && name == "" {
				return fmt.Errorf("either a job id or --name is required")
			}
			if len(args) == 1 && name != "" {
				return fmt.Errorf("a job id and --name cannot be combined")
			}

			c, err := flags.newClient(opts)
			if err != nil {
				return err
			}

			var job *api.JobResponse
			if len(args) == 1 {
				id, err := parseJobID(args[0])
				if err != nil {
					return err
				}
				job, err = c.Status(cmd.Context(), id)
				if err != nil {
					return err
				}
			} else {
				job, err = c.Latest(cmd.Context(), email, name)
				if err != nil {
					return err
				}
			}

			if wait && job.Status != string(domain.JobStatusDone) {
				id, err := parseJobID(job.ID)
				if err != nil {
					return err
				}
				if job, err = c.Wait(cmd.Context(), id); err != nil {
					return err
				}
			}

			return printJob(cmd.OutOrStdout(), job)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "owner email of the latest job")
	cmd.Flags().StringVar(&name, "name", "", "file name of the latest job")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait until the job is done")

	return cmd
}
