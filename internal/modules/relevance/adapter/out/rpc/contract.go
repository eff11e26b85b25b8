package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// The embedder protocol is plain JSON over gRPC so plugin authors need no
// protobuf toolchain.
const (
	PluginMapKey  = "embedder"
	serviceName   = "lockin.embedder.v1.Embedder"
	jsonCodecName = "json"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "LOCKIN_EMBEDDER_PLUGIN",
	MagicCookieValue: "lockin",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return jsonCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

// Metadata describes the model behind a plugin. Dimensions, when non-zero, is
// the length of every vector Embed returns.
type Metadata struct {
	Name       string `json:"name"`
	Version    string `json:"version"`
	Dimensions int32  `json:"dimensions"`
	Normalized bool   `json:"normalized"`
}

type EmbedRequest struct {
	Text string `json:"text"`
}

type EmbedResponse struct {
	Vector []float32 `json:"vector"`
}

type EmbedderServer interface {
	Describe(ctx context.Context, in *Empty) (*Metadata, error)
	Embed(ctx context.Context, in *EmbedRequest) (*EmbedResponse, error)
}

type EmbedderClient interface {
	Describe(ctx context.Context) (*Metadata, error)
	Embed(ctx context.Context, in *EmbedRequest) (*EmbedResponse, error)
}

type embedderClient struct {
	conn grpc.ClientConnInterface
}

func NewEmbedderClient(conn grpc.ClientConnInterface) EmbedderClient {
	return &embedderClient{conn: conn}
}

func (c *embedderClient) Describe(ctx context.Context) (*Metadata, error) {
	return invoke[Metadata](ctx, c.conn, "Describe", &Empty{})
}

func (c *embedderClient) Embed(ctx context.Context, in *EmbedRequest) (*EmbedResponse, error) {
	return invoke[EmbedResponse](ctx, c.conn, "Embed", in)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, in any) (*Resp, error) {
	out := new(Resp)
	if err := conn.Invoke(ctx, fullMethod(method), in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func RegisterEmbedderServer(server grpc.ServiceRegistrar, impl EmbedderServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*EmbedderServer)(nil),
		Methods: []grpc.MethodDesc{
			unary("Describe", func(ctx context.Context, in *Empty) (any, error) { return impl.Describe(ctx, in) }),
			unary("Embed", func(ctx context.Context, in *EmbedRequest) (any, error) { return impl.Embed(ctx, in) }),
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "lockin/embedder/v1",
	}, impl)
}

// unary adapts a typed handler to grpc's untyped MethodDesc, running it
// through the server interceptor when one is installed.
func unary[Req any](method string, call func(context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				typed, ok := req.(*Req)
				if !ok {
					return nil, fmt.Errorf("%s: unexpected request type %T", method, req)
				}
				return call(ctx, typed)
			})
		},
	}
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl EmbedderServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterEmbedderServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewEmbedderClient(conn), nil
}

// PluginMap serves impl on the plugin side; hosts pass nil.
func PluginMap(impl EmbedderServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}
