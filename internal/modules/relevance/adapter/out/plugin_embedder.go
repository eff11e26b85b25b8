package out

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"

	pluginrpc "lockin/internal/modules/relevance/adapter/out/rpc"
	relevanceout "lockin/internal/modules/relevance/port/out"
)

const (
	pluginStartTimeout = 5 * time.Second
	pluginCallTimeout  = 10 * time.Second
)

// PluginEmbedder delegates to an out-of-process embedder over go-plugin gRPC.
// The plugin process lives until Close.
type PluginEmbedder struct {
	client *plugin.Client
	rpc    pluginrpc.EmbedderClient
	name   string
	dims   int
}

var _ relevanceout.Embedder = (*PluginEmbedder)(nil)

func StartPluginEmbedder(ctx context.Context, binary string) (*PluginEmbedder, error) {
	if binary == "" {
		return nil, fmt.Errorf("plugin embedder needs a binary path")
	}
	client := plugin.NewClient(&plugin.ClientConfig{
		HandshakeConfig:  pluginrpc.HandshakeConfig,
		AllowedProtocols: []plugin.Protocol{plugin.ProtocolGRPC},
		Plugins:          pluginrpc.PluginMap(nil),
		Cmd:              exec.Command(binary),
		Managed:          true,
		StartTimeout:     pluginStartTimeout,
		Logger:           hclog.New(&hclog.LoggerOptions{Output: io.Discard, Level: hclog.NoLevel}),
	})
	protocol, err := client.Client()
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("start embedder plugin: %w", err)
	}
	raw, err := protocol.Dispense(pluginrpc.PluginMapKey)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("dispense embedder plugin: %w", err)
	}
	typed, ok := raw.(pluginrpc.EmbedderClient)
	if !ok {
		client.Kill()
		return nil, fmt.Errorf("embedder plugin client type mismatch")
	}

	callCtx, cancel := callContext(ctx)
	defer cancel()
	meta, err := typed.Describe(callCtx)
	if err != nil {
		client.Kill()
		return nil, fmt.Errorf("describe embedder plugin: %w", err)
	}
	if meta.Dimensions < 0 {
		client.Kill()
		return nil, fmt.Errorf("embedder plugin reports %d dimensions", meta.Dimensions)
	}
	return &PluginEmbedder{
		client: client,
		rpc:    typed,
		name:   fmt.Sprintf("plugin:%s@%s", meta.Name, meta.Version),
		dims:   int(meta.Dimensions),
	}, nil
}

func (e *PluginEmbedder) Name() string {
	return e.name
}

func (e *PluginEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	callCtx, cancel := callContext(ctx)
	defer cancel()
	resp, err := e.rpc.Embed(callCtx, &pluginrpc.EmbedRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("plugin embed: %w", err)
	}
	if len(resp.Vector) == 0 {
		return nil, fmt.Errorf("plugin returned an empty embedding")
	}
	if e.dims > 0 && len(resp.Vector) != e.dims {
		return nil, fmt.Errorf("plugin returned %d dimensions, described %d", len(resp.Vector), e.dims)
	}
	return resp.Vector, nil
}

func (e *PluginEmbedder) Close() error {
	e.client.Kill()
	return nil
}

func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	if _, ok := parent.Deadline(); ok {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, pluginCallTimeout)
}
