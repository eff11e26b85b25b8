package usecase

import (
	"context"

	"lockin/internal/modules/daemon/dto"
	daemonin "lockin/internal/modules/daemon/port/in"
	"lockin/internal/modules/daemon/service"
)

type Interactor struct {
	svc *service.DaemonService
}

func NewInteractor(svc *service.DaemonService) daemonin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Dispatch(ctx context.Context, msg dto.Message) dto.Response {
	return i.svc.Dispatch(ctx, msg)
}

func (i *Interactor) Send(ctx context.Context, msg dto.Message) (dto.Response, error) {
	return i.svc.Send(ctx, msg)
}

func (i *Interactor) RunDaemon(ctx context.Context) error {
	return i.svc.RunDaemon(ctx)
}

func (i *Interactor) StartDaemon(ctx context.Context) error {
	return i.svc.StartDaemon(ctx)
}

func (i *Interactor) StopDaemon(ctx context.Context) error {
	return i.svc.StopDaemon(ctx)
}

func (i *Interactor) DaemonStatus(ctx context.Context) (dto.RuntimeStatus, error) {
	return i.svc.DaemonStatus(ctx)
}

func (i *Interactor) DaemonLogs(ctx context.Context, tail int) (string, error) {
	return i.svc.DaemonLogs(ctx, tail)
}
