package out

import (
	"context"
	"os"

	"lockin/internal/modules/daemon/dto"
)

// DaemonStore manages the files a running daemon leaves behind.
type DaemonStore interface {
	WritePID(ctx context.Context, pid int) error
	ReadPID(ctx context.Context) (int, error)
	ClearPID(ctx context.Context) error
	ClearSocket(ctx context.Context) error
	Clear(ctx context.Context) error
	SocketPath() string
	LogPath() string
	OpenLog() (*os.File, error)
	TailLog(ctx context.Context, n int) (string, error)
}

// Handler executes decoded envelopes for inbound transports.
type Handler interface {
	Dispatch(ctx context.Context, msg dto.Message) dto.Response
}

// IPCServer serves the JSON-RPC daemon API on a unix socket.
type IPCServer interface {
	Serve(ctx context.Context, socketPath string, handler Handler) error
}

// IPCClient talks to the local daemon JSON-RPC API.
type IPCClient interface {
	Dispatch(ctx context.Context, socketPath string, msg dto.Message) (dto.Response, error)
}

// Gateway serves the message API over loopback HTTP.
type Gateway interface {
	Serve(ctx context.Context, addr string, handler Handler) error
}

// Worker is a background loop owned by the running daemon.
type Worker interface {
	Run(ctx context.Context) error
}

type WorkerFunc func(ctx context.Context) error

func (f WorkerFunc) Run(ctx context.Context) error { return f(ctx) }
