package usecase

import (
	"context"

	"lockin/internal/modules/enforcement/domain"
	enforcementdto "lockin/internal/modules/enforcement/dto"
	enforcementin "lockin/internal/modules/enforcement/port/in"
	enforcementout "lockin/internal/modules/enforcement/port/out"
	"lockin/internal/modules/enforcement/service"
)

type Interactor struct {
	svc     *service.EnforcementService
	fetcher enforcementout.PageFetcher
}

func NewInteractor(svc *service.EnforcementService, fetcher enforcementout.PageFetcher) enforcementin.Usecase {
	return &Interactor{svc: svc, fetcher: fetcher}
}

func (i *Interactor) Evaluate(ctx context.Context, input enforcementdto.EvaluateInput) enforcementdto.Result {
	d := i.svc.Decide(ctx, input.URL, ContentFromDTO(input.Content))
	return ResultToDTO(d)
}

func (i *Interactor) Fetch(ctx context.Context, url string) (enforcementdto.PageContent, error) {
	content, err := i.fetcher.Fetch(ctx, url)
	if err != nil {
		return enforcementdto.PageContent{}, err
	}
	return enforcementdto.PageContent{
		Title:         content.Title,
		Description:   content.Description,
		OGDescription: content.OGDescription,
		Text:          content.Text,
	}, nil
}

func (i *Interactor) SetThresholds(t enforcementdto.Thresholds) error {
	return i.svc.SetThresholds(domain.Thresholds{Low: t.Low, High: t.High})
}

func (i *Interactor) Thresholds() enforcementdto.Thresholds {
	t := i.svc.Thresholds()
	return enforcementdto.Thresholds{Low: t.Low, High: t.High}
}

func ContentFromDTO(c enforcementdto.PageContent) domain.PageContent {
	return domain.PageContent{
		Title:         c.Title,
		Description:   c.Description,
		OGDescription: c.OGDescription,
		Text:          c.Text,
	}
}

func ResultToDTO(d domain.Decision) enforcementdto.Result {
	return enforcementdto.Result{
		Verdict:    string(d.Verdict),
		Reason:     string(d.Reason),
		Topic:      d.Topic,
		Similarity: d.Similarity,
		Category:   d.Category,
	}
}
