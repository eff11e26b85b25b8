package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lockin/internal/bootstrap"
)

// newListCmd builds the allow or block command group.
func newListCmd(flags *rootFlags, list, title string) *cobra.Command {
	group := &cobra.Command{Use: list, Short: "Manage the " + title}

	group.AddCommand(&cobra.Command{
		Use:   "add <url>",
		Short: "Add an http(s) URL or origin to the " + title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.DaemonCLI.AddToList(ctx, list, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", out.Entry)
				if out.Warning != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", out.Warning)
				}
				return nil
			})
		},
	})
	group.AddCommand(&cobra.Command{
		Use:   "remove <url>",
		Short: "Remove a URL from the " + title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.DaemonCLI.RemoveFromList(ctx, list, args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
				return nil
			})
		},
	})
	group.AddCommand(&cobra.Command{
		Use:   "check <url>",
		Short: "Report whether a URL matches the " + title,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				found, err := app.DaemonCLI.CheckList(ctx, list, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), found)
				return nil
			})
		},
	})
	group.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the " + title,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				lists, err := app.DaemonCLI.Lists(ctx)
				if err != nil {
					return err
				}
				entries := lists.BlockList
				if list == "allow" {
					entries = lists.AllowList
				}
				for _, e := range entries {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), e)
				}
				return nil
			})
		},
	})
	return group
}

func newListsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Print both lists as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				lists, err := app.DaemonCLI.Lists(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, lists)
			})
		},
	}
}
