package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/api"
)

func newStatusCmd(app *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the backend generation run status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			if !watch {
				status, err := app.backend.GetRunStatus(cmd.Context())
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(out, status.Status)
				return nil
			}

			poller := api.NewPoller(app.backend, app.cfg.PollInterval, func(status api.RunStatus) {
				_, _ = fmt.Fprintln(out, status.Status)
			})
			return poller.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Poll until the run reaches a terminal status")

	return cmd
}
