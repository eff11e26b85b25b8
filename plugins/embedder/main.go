package main

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-plugin"

	relevanceadapter "lockin/internal/modules/relevance/adapter/out"
	pluginrpc "lockin/internal/modules/relevance/adapter/out/rpc"
)

const version = "1.0.0"

type server struct {
	embedder *relevanceadapter.HashEmbedder
}

func (s *server) Describe(_ context.Context, _ *pluginrpc.Empty) (*pluginrpc.Metadata, error) {
	return &pluginrpc.Metadata{
		Name:       "hash",
		Version:    version,
		Dimensions: relevanceadapter.DefaultHashDimensions,
		Normalized: true,
	}, nil
}

func (s *server) Embed(ctx context.Context, in *pluginrpc.EmbedRequest) (*pluginrpc.EmbedResponse, error) {
	if in == nil {
		return nil, fmt.Errorf("empty embed request")
	}
	vec, err := s.embedder.Embed(ctx, in.Text)
	if err != nil {
		return nil, err
	}
	return &pluginrpc.EmbedResponse{Vector: vec}, nil
}

func main() {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: pluginrpc.HandshakeConfig,
		Plugins:         pluginrpc.PluginMap(&server{embedder: relevanceadapter.NewHashEmbedder(relevanceadapter.DefaultHashDimensions)}),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
