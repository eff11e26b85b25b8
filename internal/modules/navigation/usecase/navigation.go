package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	"lockin/internal/modules/navigation/domain"
	navigationdto "lockin/internal/modules/navigation/dto"
	navigationin "lockin/internal/modules/navigation/port/in"
	"lockin/internal/modules/navigation/service"
	apperrors "lockin/internal/platform/errors"
)

type Interactor struct {
	watcher *service.Watcher
}

func NewInteractor(watcher *service.Watcher) navigationin.Usecase {
	return &Interactor{watcher: watcher}
}

func (i *Interactor) Observe(_ context.Context, event navigationdto.NavigationEvent) error {
	if strings.TrimSpace(event.URL) == "" {
		return fmt.Errorf("%w: navigation url is required", apperrors.ErrInvalidInput)
	}
	kind, err := domain.ParseKind(event.Kind)
	if err != nil {
		return err
	}
	c := event.Content
	ev := domain.Event{
		TabID:       event.TabID,
		URL:         event.URL,
		Kind:        kind,
		Fingerprint: domain.Fingerprint(c.Title, c.Description, c.OGDescription, c.Text),
	}
	_, err = i.watcher.Observe(ev, enforcementdto.EvaluateInput{URL: event.URL, Content: c})
	return err
}

func (i *Interactor) LastVerdict(tabID int) (enforcementdto.Result, bool) {
	return i.watcher.LastVerdict(tabID)
}

func (i *Interactor) Forget(tabID int) {
	i.watcher.Forget(tabID)
}

func (i *Interactor) SetDebounce(d time.Duration) {
	i.watcher.SetDebounce(d)
}

func (i *Interactor) Close() error {
	i.watcher.Close()
	return nil
}
