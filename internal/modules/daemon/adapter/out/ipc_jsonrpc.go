package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"lockin/internal/modules/daemon/dto"
	daemonout "lockin/internal/modules/daemon/port/out"
)

const (
	rpcServiceName = "Lockin"
	dispatchMethod = rpcServiceName + ".Dispatch"
	callTimeout    = 30 * time.Second
)

// JSONRPCServer serves Lockin.Dispatch over a unix socket. Each request runs
// under the server's context so shutdown cancels in-flight work.
type JSONRPCServer struct {
	logger *zap.Logger
}

type JSONRPCClient struct{}

func NewJSONRPCServer(logger *zap.Logger) daemonout.IPCServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONRPCServer{logger: logger.Named("ipc")}
}

func NewJSONRPCClient() daemonout.IPCClient {
	return &JSONRPCClient{}
}

// rpcService is the receiver registered with net/rpc; its exported method set
// is the wire contract.
type rpcService struct {
	ctx     context.Context
	handler daemonout.Handler
}

func (s *rpcService) Dispatch(req dto.Message, resp *dto.Response) error {
	ctx, cancel := context.WithTimeout(s.ctx, callTimeout)
	defer cancel()
	*resp = s.handler.Dispatch(ctx, req)
	return nil
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler daemonout.Handler) error {
	ln, err := listenUnix(socketPath)
	if err != nil {
		return err
	}

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(rpcServiceName, &rpcService{ctx: ctx, handler: handler}); err != nil {
		_ = ln.Close()
		return fmt.Errorf("register ipc handler: %w", err)
	}

	var (
		mu       sync.Mutex
		conns    = map[net.Conn]struct{}{}
		draining bool
		wg       sync.WaitGroup
	)
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = ln.Close()
		mu.Lock()
		draining = true
		for c := range conns {
			_ = c.Close()
		}
		mu.Unlock()
	}()
	defer wg.Wait()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("accept ipc connection: %w", err)
		}

		mu.Lock()
		if draining {
			mu.Unlock()
			_ = conn.Close()
			return nil
		}
		conns[conn] = struct{}{}
		mu.Unlock()
		wg.Add(1)
		go func() {
			defer wg.Done()
			rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
			mu.Lock()
			delete(conns, conn)
			mu.Unlock()
			s.logger.Debug("ipc connection closed")
		}()
	}
}

func listenUnix(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return nil, fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod ipc socket: %w", err)
	}
	return ln, nil
}

// Dispatch sends one envelope per connection; the daemon is local and
// requests are rare enough that pooling buys nothing.
func (c *JSONRPCClient) Dispatch(ctx context.Context, socketPath string, msg dto.Message) (dto.Response, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return dto.Response{}, err
	}
	defer client.Close()

	resp := dto.Response{}
	call := client.Go(dispatchMethod, msg, &resp, make(chan *rpc.Call, 1))
	select {
	case <-ctx.Done():
		return dto.Response{}, ctx.Err()
	case done := <-call.Done:
		if done.Error != nil {
			return dto.Response{}, fmt.Errorf("ipc %s: %w", msg.Type, done.Error)
		}
	}
	return resp, nil
}

func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial daemon socket: %w", err)
	}
	deadline := time.Now().Add(callTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}
