package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lockin/internal/bootstrap"
	daemoninadapter "lockin/internal/modules/daemon/adapter/in"
	daemondto "lockin/internal/modules/daemon/dto"
	"lockin/internal/platform/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "lockin",
		Short:         "Focus sessions that keep your browsing on topic",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "state directory (default $XDG_DATA_HOME/lockin)")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/lockin/config.yaml)")

	root.AddCommand(newDaemonCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newListCmd(flags, "allow", "Allow List"))
	root.AddCommand(newListCmd(flags, "block", "Block List"))
	root.AddCommand(newListsCmd(flags))
	root.AddCommand(newEvaluateCmd(flags))
	root.AddCommand(newNavigateCmd(flags))
	root.AddCommand(newVerdictCmd(flags))
	root.AddCommand(newSendCmd(flags))
	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newMCPCmd(flags))
	return root
}

// loadApp layers flags over the config file and environment. --data-dir only
// re-derives paths when it differs, so a daemon re-executed with the same
// value keeps any socket or database path set in the file.
func loadApp(flags *rootFlags) (*bootstrap.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dataDir != "" && flags.dataDir != cfg.DataDir {
		cfg = cfg.WithDataDir(flags.dataDir)
	}
	return bootstrap.New(cfg)
}

// withApp runs fn against a freshly wired app and releases it afterwards.
func withApp(flags *rootFlags, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := loadApp(flags)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(context.Background(), app)
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Show the live session countdown",
		RunE: func(_ *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("tui needs an interactive terminal")
			}
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve lockin tools over MCP on stdio",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return server.ServeStdio(daemoninadapter.NewMCPServer(app.Daemon, version))
		},
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <TYPE> [payload-json]",
		Short: "Send a raw message and print the JSON response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := daemondto.Message{Type: strings.ToUpper(args[0])}
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("payload must be valid JSON")
				}
				msg.Payload = json.RawMessage(args[1])
			}
			return withApp(flags, func(ctx context.Context, app *bootstrap.App) error {
				resp, err := app.DaemonCLI.Send(ctx, msg)
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
