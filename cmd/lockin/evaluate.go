package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"lockin/internal/bootstrap"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	navigationdto "lockin/internal/modules/navigation/dto"
)

type contentFlags struct {
	fetch       bool
	title       string
	description string
	og          string
	text        string
}

func (f *contentFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.fetch, "fetch", false, "download the page and extract its content")
	cmd.Flags().StringVar(&f.title, "title", "", "page title")
	cmd.Flags().StringVar(&f.description, "description", "", "meta description")
	cmd.Flags().StringVar(&f.og, "og-description", "", "og:description")
	cmd.Flags().StringVar(&f.text, "text", "", "visible page text")
}

// content resolves the page fields, fetching them when --fetch is set.
// Explicit flags win over fetched values.
func (f *contentFlags) content(ctx context.Context, app *bootstrap.App, url string) (enforcementdto.PageContent, error) {
	var out enforcementdto.PageContent
	if f.fetch {
		fetched, err := app.EnforcementCLI.Fetch(ctx, url)
		if err != nil {
			return out, err
		}
		out = fetched
	}
	for dst, v := range map[*string]string{
		&out.Title:         f.title,
		&out.Description:   f.description,
		&out.OGDescription: f.og,
		&out.Text:          f.text,
	} {
		if v != "" {
			*dst = v
		}
	}
	return out, nil
}

func newEvaluateCmd(flags *rootFlags) *cobra.Command {
	var cf contentFlags
	cmd := &cobra.Command{
		Use:   "evaluate <url>",
		Short: "Judge a page against the active session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				content, err := cf.content(ctx, app, args[0])
				if err != nil {
					return err
				}
				result, err := app.DaemonCLI.EvaluatePage(ctx, args[0], content)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cf.register(cmd)
	return cmd
}

func newNavigateCmd(flags *rootFlags) *cobra.Command {
	var cf contentFlags
	var tabID int
	var kind string
	cmd := &cobra.Command{
		Use:   "navigate <url>",
		Short: "Report a page view to the navigation watcher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				content, err := cf.content(ctx, app, args[0])
				if err != nil {
					return err
				}
				err = app.DaemonCLI.Navigate(ctx, navigationdto.NavigationEvent{
					TabID:   tabID,
					URL:     args[0],
					Kind:    kind,
					Content: content,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "queued tab=%d\n", tabID)
				return nil
			})
		},
	}
	cf.register(cmd)
	cmd.Flags().IntVar(&tabID, "tab", 0, "tab id")
	cmd.Flags().StringVar(&kind, "kind", "load", "navigation kind: load, history or mutation")
	return cmd
}

func newVerdictCmd(flags *rootFlags) *cobra.Command {
	var tabID int
	cmd := &cobra.Command{
		Use:   "verdict",
		Short: "Show the last verdict delivered for a tab",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				result, err := app.DaemonCLI.LastVerdict(ctx, tabID)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), result)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&tabID, "tab", 0, "tab id")
	return cmd
}

func printResult(w io.Writer, r enforcementdto.Result) {
	line := r.Verdict
	if r.Reason != "" {
		line += " reason=" + r.Reason
	}
	if r.Similarity != nil {
		line += fmt.Sprintf(" similarity=%.3f", *r.Similarity)
	}
	if r.Category != "" {
		line += " category=" + r.Category
	}
	if r.Topic != "" {
		line += fmt.Sprintf(" topic=%q", r.Topic)
	}
	_, _ = fmt.Fprintln(w, line)
}
