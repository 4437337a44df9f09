package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scopedoc",
		Short:         "scopedoc: AI-assisted scope document editing from the terminal",
		Long:          "scopedoc runs interactive editing sessions against a scope document backend: chat with the assistant, stage and apply its proposed edits, and manage saved document versions.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newChatCmd(app),
		newVersionsCmd(app),
		newStatusCmd(app),
		newSessionsCmd(app),
	)

	return rootCmd
}
