package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dantheman4700/scope-doc-gen-sub000/internal/api"
	"github.com/dantheman4700/scope-doc-gen-sub000/internal/version"
)

func newVersionsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Manage stored document versions",
	}

	cmd.AddCommand(
		newVersionsListCmd(app),
		newVersionsDeleteCmd(app),
	)

	return cmd
}

func newVersionsListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List versions grouped by major",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printVersions(cmd.Context(), app, cmd.OutOrStdout())
		},
	}
}

func newVersionsDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <version>",
		Short: "Delete a stored version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}

			err = app.backend.DeleteVersion(cmd.Context(), v)
			if errors.Is(err, api.ErrProtectedVersion) {
				return errors.New("version 1 always exists and cannot be deleted")
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", version.Format(v))
			return nil
		},
	}
}

func printVersions(ctx context.Context, app *app, out io.Writer) error {
	infos, err := app.backend.ListVersions(ctx)
	if err != nil {
		return err
	}

	numbers := make([]float64, 0, len(infos))
	for _, info := range infos {
		numbers = append(numbers, info.VersionNumber)
	}
	renderVersionGroups(out, version.GroupByMajor(numbers))
	return nil
}

func renderVersionGroups(out io.Writer, groups []version.Group) {
	for _, g := range groups {
		_, _ = fmt.Fprintf(out, "v%d\n", g.Major)
		for _, v := range g.Versions {
			if version.IsMajor(v) {
				continue
			}
			_, _ = fmt.Fprintf(out, "  %s\n", version.Format(v))
		}
	}
}
