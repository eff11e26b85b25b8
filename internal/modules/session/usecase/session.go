package usecase

import (
	"context"
	"errors"
	"sync"

	"lockin/internal/modules/session/domain"
	sessiondto "lockin/internal/modules/session/dto"
	sessionin "lockin/internal/modules/session/port/in"
	"lockin/internal/modules/session/service"
)

var ErrClosed = errors.New("session controller closed")

type request struct {
	ctx   context.Context
	fn    func(context.Context) error
	reply chan error
}

// Interactor serialises every session operation through one goroutine so
// transitions apply in arrival order.
type Interactor struct {
	svc       *service.SessionService
	requests  chan request
	closing   chan struct{}
	finished  chan struct{}
	closeOnce sync.Once
}

func NewInteractor(svc *service.SessionService) sessionin.Usecase {
	i := &Interactor{
		svc:      svc,
		requests: make(chan request),
		closing:  make(chan struct{}),
		finished: make(chan struct{}),
	}
	go i.loop()
	return i
}

func (i *Interactor) loop() {
	defer close(i.finished)
	for {
		select {
		case <-i.closing:
			return
		case req := <-i.requests:
			req.reply <- req.fn(req.ctx)
		}
	}
}

func (i *Interactor) submit(ctx context.Context, fn func(context.Context) error) error {
	reply := make(chan error, 1)
	select {
	case i.requests <- request{ctx: ctx, fn: fn, reply: reply}:
	case <-i.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.Session, error) {
	var out domain.Session
	err := i.submit(ctx, func(ctx context.Context) error {
		var err error
		out, err = i.svc.Start(ctx, input.Topic, input.DurationSeconds)
		return err
	})
	if err != nil {
		return sessiondto.Session{}, err
	}
	return toDTO(out), nil
}

func (i *Interactor) Pause(ctx context.Context) (sessiondto.Session, error) {
	var out domain.Session
	err := i.submit(ctx, func(ctx context.Context) error {
		var err error
		out, err = i.svc.Pause(ctx)
		return err
	})
	if err != nil {
		return sessiondto.Session{}, err
	}
	return toDTO(out), nil
}

func (i *Interactor) Resume(ctx context.Context) (sessiondto.Session, error) {
	var out domain.Session
	err := i.submit(ctx, func(ctx context.Context) error {
		var err error
		out, err = i.svc.Resume(ctx)
		return err
	})
	if err != nil {
		return sessiondto.Session{}, err
	}
	return toDTO(out), nil
}

func (i *Interactor) Reset(ctx context.Context) error {
	return i.submit(ctx, i.svc.Reset)
}

func (i *Interactor) Get(ctx context.Context) (sessiondto.Session, error) {
	var out domain.Session
	err := i.submit(ctx, func(ctx context.Context) error {
		var err error
		out, err = i.svc.Current(ctx)
		return err
	})
	if err != nil {
		return sessiondto.Session{}, err
	}
	return toDTO(out), nil
}

func (i *Interactor) History(ctx context.Context) ([]sessiondto.HistoryEntry, error) {
	var entries []domain.HistoryEntry
	err := i.submit(ctx, func(ctx context.Context) error {
		var err error
		entries, err = i.svc.History(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyToDTO(e))
	}
	return out, nil
}

func (i *Interactor) HandleWake(ctx context.Context, name string) error {
	return i.submit(ctx, func(ctx context.Context) error {
		return i.svc.Wake(ctx, name)
	})
}

func (i *Interactor) Recover(ctx context.Context) error {
	return i.submit(ctx, i.svc.Recover)
}

func (i *Interactor) Presets() []sessiondto.Preset {
	presets := domain.Presets()
	out := make([]sessiondto.Preset, 0, len(presets))
	for _, p := range presets {
		out = append(out, sessiondto.Preset{Label: p.Label, Seconds: p.Seconds})
	}
	return out
}

// Close stops the actor, waits for an in-flight operation to finish and
// cancels pending completion notifications.
func (i *Interactor) Close() error {
	i.closeOnce.Do(func() { close(i.closing) })
	<-i.finished
	i.svc.Shutdown()
	return nil
}

func toDTO(s domain.Session) sessiondto.Session {
	return sessiondto.Session{
		ID:               s.ID,
		Stage:            string(s.Stage),
		Topic:            s.Topic,
		StartedAt:        s.StartedAt,
		DurationSeconds:  s.DurationSeconds,
		EndTime:          s.EndTime,
		RemainingSeconds: s.RemainingSeconds,
		CompletedAt:      s.CompletedAt,
	}
}

func historyToDTO(e domain.HistoryEntry) sessiondto.HistoryEntry {
	sites := make([]sessiondto.SiteTime, 0, len(e.Analytics.TopSites))
	for _, s := range e.Analytics.TopSites {
		sites = append(sites, sessiondto.SiteTime{Host: s.Host, Seconds: s.Seconds})
	}
	counts := make(map[string]int, len(e.Analytics.CategoryCounts))
	for k, v := range e.Analytics.CategoryCounts {
		counts[k] = v
	}
	return sessiondto.HistoryEntry{
		SessionID:       e.SessionID,
		Topic:           e.Topic,
		Date:            e.Date,
		StartedAt:       e.StartedAt,
		CompletedAt:     e.CompletedAt,
		DurationSeconds: e.DurationSeconds,
		Analytics: sessiondto.Analytics{
			CategoryCounts:    counts,
			TopSites:          sites,
			TotalDistractions: e.Analytics.TotalDistractions,
		},
	}
}
