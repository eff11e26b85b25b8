package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lockin/internal/bootstrap"
	sessiondto "lockin/internal/modules/session/dto"
)

func newSessionCmd(flags *rootFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Focus session lifecycle"}

	var minutes float64
	start := &cobra.Command{
		Use:   "start <topic>",
		Short: "Start a focus session on a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minutes <= 0 {
				return fmt.Errorf("--minutes must be positive")
			}
			topic := strings.Join(args, " ")
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.DaemonCLI.StartSession(ctx, topic, int64(minutes*60))
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), &out)
				return nil
			})
		},
	}
	start.Flags().Float64Var(&minutes, "minutes", 25, "session length in minutes")

	transition := func(use, short string, fn func(context.Context, *bootstrap.App) (sessiondto.Session, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
					out, err := fn(ctx, app)
					if err != nil {
						return err
					}
					printSession(cmd.OutOrStdout(), &out)
					return nil
				})
			},
		}
	}
	pause := transition("pause", "Pause the active session", func(ctx context.Context, app *bootstrap.App) (sessiondto.Session, error) {
		return app.DaemonCLI.PauseSession(ctx)
	})
	resume := transition("resume", "Resume a paused session", func(ctx context.Context, app *bootstrap.App) (sessiondto.Session, error) {
		return app.DaemonCLI.ResumeSession(ctx)
	})

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Abandon the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.DaemonCLI.ResetSession(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session cleared")
				return nil
			})
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.DaemonCLI.GetSession(ctx)
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	var asJSON bool
	history := &cobra.Command{
		Use:   "history",
		Short: "List completed sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.DaemonCLI.SessionHistory(ctx)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, entries)
				}
				for _, e := range entries {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s  %-8s  distractions=%-3d %s\n",
						e.Date, clock(e.DurationSeconds), e.Analytics.TotalDistractions, e.Topic)
				}
				return nil
			})
		},
	}
	history.Flags().BoolVar(&asJSON, "json", false, "print entries with analytics as JSON")

	presets := &cobra.Command{
		Use:   "presets",
		Short: "List duration presets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.DaemonCLI.Presets(ctx)
				if err != nil {
					return err
				}
				for _, p := range out {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-8s %g\n", p.Label, float64(p.Seconds)/60)
				}
				return nil
			})
		},
	}

	session.AddCommand(start, pause, resume, reset, show, history, presets)
	return session
}

func printSession(w io.Writer, s *sessiondto.Session) {
	if s == nil || s.Stage == "NONE" {
		_, _ = fmt.Fprintln(w, "no session")
		return
	}
	line := fmt.Sprintf("stage=%s topic=%q", s.Stage, s.Topic)
	switch {
	case s.EndTime != nil:
		left := max(0, *s.EndTime-time.Now().UnixMilli()) / 1000
		line += " remaining=" + clock(left)
	case s.RemainingSeconds != nil:
		line += " remaining=" + clock(*s.RemainingSeconds)
	}
	_, _ = fmt.Fprintln(w, line)
}

func clock(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}
