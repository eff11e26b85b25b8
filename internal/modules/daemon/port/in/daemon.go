package in

import (
	"context"

	"lockin/internal/modules/daemon/dto"
)

type Usecase interface {
	// Dispatch validates and executes one message in this process.
	Dispatch(ctx context.Context, msg dto.Message) dto.Response
	// Send delivers msg to the running daemon, or dispatches it locally when
	// no daemon is reachable.
	Send(ctx context.Context, msg dto.Message) (dto.Response, error)

	RunDaemon(ctx context.Context) error
	StartDaemon(ctx context.Context) error
	StopDaemon(ctx context.Context) error
	DaemonStatus(ctx context.Context) (dto.RuntimeStatus, error)
	DaemonLogs(ctx context.Context, tail int) (string, error)
}
