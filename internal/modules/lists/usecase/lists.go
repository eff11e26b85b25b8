package usecase

import (
	"context"

	"lockin/internal/modules/lists/domain"
	listsdto "lockin/internal/modules/lists/dto"
	listsin "lockin/internal/modules/lists/port/in"
	"lockin/internal/modules/lists/service"
)

type Interactor struct {
	svc *service.ListService
}

func NewInteractor(svc *service.ListService) listsin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Add(ctx context.Context, kind, url string) (listsdto.AddResult, error) {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return listsdto.AddResult{}, err
	}
	entry, warning, err := i.svc.Add(ctx, k, url)
	if err != nil {
		return listsdto.AddResult{}, err
	}
	return listsdto.AddResult{Entry: entry, Warning: warning}, nil
}

func (i *Interactor) Remove(ctx context.Context, kind, url string) error {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return err
	}
	return i.svc.Remove(ctx, k, url)
}

func (i *Interactor) Lists(ctx context.Context) (listsdto.Lists, error) {
	allow, err := i.svc.Load(ctx, domain.KindAllow)
	if err != nil {
		return listsdto.Lists{}, err
	}
	block, err := i.svc.Load(ctx, domain.KindBlock)
	if err != nil {
		return listsdto.Lists{}, err
	}
	return listsdto.Lists{AllowList: nonNil(allow), BlockList: nonNil(block)}, nil
}

func (i *Interactor) Contains(ctx context.Context, kind, url string) (bool, error) {
	k, err := domain.ParseKind(kind)
	if err != nil {
		return false, err
	}
	return i.svc.Contains(ctx, k, url)
}

func nonNil(l domain.List) []string {
	if l == nil {
		return []string{}
	}
	return []string(l)
}
