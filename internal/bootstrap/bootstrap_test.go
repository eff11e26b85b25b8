package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	"lockin/internal/platform/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	// Unix socket paths are length-limited, so keep the data dir short.
	dir, err := os.MkdirTemp("", "lockin")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	cfg := config.Default().WithDataDir(dir)
	cfg.Path = filepath.Join(dir, "config.yaml")
	cfg.HTTPAddr = ""
	cfg.Log.Level = "error"
	require.NoError(t, cfg.Validate())
	return cfg
}

func newApp(t *testing.T, cfg config.Config) *App {
	t.Helper()
	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestLocalDispatchEndToEnd(t *testing.T) {
	app := newApp(t, testConfig(t))
	ctx := context.Background()
	cli := app.DaemonCLI

	none, err := cli.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, none)

	started, err := cli.StartSession(ctx, "golang concurrency", 600)
	require.NoError(t, err)
	require.Equal(t, "ACTIVE", started.Stage)
	require.Equal(t, "golang concurrency", started.Topic)

	_, err = cli.StartSession(ctx, "other", 60)
	require.Error(t, err)

	added, err := cli.AddToList(ctx, "block", "HTTPS://News.example")
	require.NoError(t, err)
	require.Equal(t, "https://news.example", added.Entry)

	warned, err := cli.AddToList(ctx, "allow", "https://news.example")
	require.NoError(t, err)
	require.Equal(t, "This site is already in your Block List.", warned.Warning)

	result, err := cli.EvaluatePage(ctx, "https://docs.example/page", enforcementdto.PageContent{})
	require.NoError(t, err)
	require.Equal(t, "ALLOW", result.Verdict)

	require.NoError(t, cli.RemoveFromList(ctx, "allow", "https://news.example"))
	result, err = cli.EvaluatePage(ctx, "https://news.example/article", enforcementdto.PageContent{Title: "Headlines"})
	require.NoError(t, err)
	require.Equal(t, "BLOCK", result.Verdict)
	require.Equal(t, "manual", result.Reason)
	require.Equal(t, "golang concurrency", result.Topic)

	paused, err := cli.PauseSession(ctx)
	require.NoError(t, err)
	require.Equal(t, "PAUSED", paused.Stage)
	require.NotNil(t, paused.RemainingSeconds)

	result, err = cli.EvaluatePage(ctx, "https://news.example/article", enforcementdto.PageContent{Title: "Headlines"})
	require.NoError(t, err)
	require.Equal(t, "ALLOW", result.Verdict, "paused sessions do not enforce")

	require.NoError(t, cli.ResetSession(ctx))
	after, err := cli.GetSession(ctx)
	require.NoError(t, err)
	require.Nil(t, after)

	history, err := cli.SessionHistory(ctx)
	require.NoError(t, err)
	require.Empty(t, history)

	presets, err := cli.Presets(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, presets)
}

func TestDaemonServesSecondProcess(t *testing.T) {
	cfg := testConfig(t)
	daemonApp := newApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- daemonApp.DaemonCLI.RunDaemon(ctx) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(cfg.SocketPath)
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	client := newApp(t, cfg)
	status, err := client.DaemonCLI.DaemonStatus(context.Background())
	require.NoError(t, err)
	require.True(t, status.Running)
	require.NotNil(t, status.Status)
	require.Contains(t, status.Status.Embedder, "hash")

	_, err = client.DaemonCLI.StartSession(context.Background(), "rust lifetimes", 300)
	require.NoError(t, err)

	// The daemon's own view reflects the write made through the socket.
	seen, err := daemonApp.DaemonCLI.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, seen)
	require.Equal(t, "rust lifetimes", seen.Topic)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	_, err = os.Stat(cfg.SocketPath)
	require.True(t, os.IsNotExist(err))
}
