package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lockin/internal/bootstrap"
)

func newDaemonCmd(flags *rootFlags) *cobra.Command {
	daemon := &cobra.Command{Use: "daemon", Short: "Manage the lockin daemon"}

	runDaemon := func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		app, err := loadApp(flags)
		if err != nil {
			return err
		}
		defer app.Close()
		return app.DaemonCLI.RunDaemon(ctx)
	}
	daemon.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground",
		RunE:  runDaemon,
	})
	// __run is what `daemon start` re-executes; it is hidden from help.
	daemon.AddCommand(&cobra.Command{
		Use:    "__run",
		Hidden: true,
		RunE:   runDaemon,
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.DaemonCLI.StartDaemon(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon started")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.DaemonCLI.StopDaemon(ctx); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "daemon stopped")
				return nil
			})
		},
	})
	daemon.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.DaemonCLI.DaemonStatus(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "running=%t pid=%d socket=%s log=%s\n", status.Running, status.PID, status.SocketPath, status.LogPath)
				if s := status.Status; s != nil {
					_, _ = fmt.Fprintf(out, "uptime=%s stage=%s embedder=%s http=%s\n", s.Uptime, s.Stage, s.Embedder, s.HTTPAddr)
				}
				return nil
			})
		},
	})
	var logTail int
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon logs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				payload, err := app.DaemonCLI.DaemonLogs(ctx, logTail)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), payload)
				return nil
			})
		},
	}
	logs.Flags().IntVar(&logTail, "tail", 200, "log lines to show from the end")
	daemon.AddCommand(logs)
	return daemon
}
