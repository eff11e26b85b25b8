package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lockin/internal/modules/session/domain"
	sessionout "lockin/internal/modules/session/port/out"
	"lockin/internal/platform/clock"
	apperrors "lockin/internal/platform/errors"
	"lockin/internal/platform/id"
)

// SessionService owns the transition logic. It is not safe for concurrent use;
// callers serialise access.
type SessionService struct {
	clock     clock.Clock
	idGen     id.Generator
	sessions  sessionout.SessionStore
	history   sessionout.HistoryStore
	scheduler sessionout.Scheduler
	topics    sessionout.TopicSink
	analytics sessionout.AnalyticsSource
	notifier  sessionout.Notifier
	journal   sessionout.Journal
	logger    *zap.Logger

	notifyTimeout time.Duration
	notifyCtx     context.Context
	stopNotify    context.CancelFunc
	notifying     sync.WaitGroup
}

type Deps struct {
	Clock     clock.Clock
	IDs       id.Generator
	Sessions  sessionout.SessionStore
	History   sessionout.HistoryStore
	Scheduler sessionout.Scheduler
	Topics    sessionout.TopicSink
	Analytics sessionout.AnalyticsSource
	Notifier  sessionout.Notifier
	// Journal is optional.
	Journal sessionout.Journal
	Logger  *zap.Logger
	// NotifyTimeout bounds one completion notification. Defaults to 5s.
	NotifyTimeout time.Duration
}

const defaultNotifyTimeout = 5 * time.Second

func NewSessionService(d Deps) *SessionService {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := d.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	notifyCtx, stop := context.WithCancel(context.Background())
	return &SessionService{
		clock:         d.Clock,
		idGen:         d.IDs,
		sessions:      d.Sessions,
		history:       d.History,
		scheduler:     d.Scheduler,
		topics:        d.Topics,
		analytics:     d.Analytics,
		notifier:      d.Notifier,
		journal:       d.Journal,
		logger:        logger.Named("session"),
		notifyTimeout: timeout,
		notifyCtx:     notifyCtx,
		stopNotify:    stop,
	}
}

// Shutdown cancels pending notifications and waits for them to return.
func (s *SessionService) Shutdown() {
	s.stopNotify()
	s.notifying.Wait()
}

// Current reads persisted truth and completes the session first if its deadline passed.
func (s *SessionService) Current(ctx context.Context) (domain.Session, error) {
	current, found, err := s.sessions.Load(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if !found {
		return domain.None(), nil
	}
	if current.Overdue(s.clock.Now()) {
		return s.complete(ctx, current)
	}
	return current, nil
}

func (s *SessionService) Start(ctx context.Context, topic string, durationSeconds int64) (domain.Session, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	if current.InProgress() {
		return domain.Session{}, fmt.Errorf("%w: %s session on %q", apperrors.ErrSessionInProgress, current.Stage, current.Topic)
	}
	next, err := domain.Start(s.idGen.New(), topic, durationSeconds, s.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return domain.Session{}, err
	}
	deadline, _ := next.Deadline()
	if err := s.scheduler.Schedule(ctx, domain.TimerName, deadline); err != nil {
		s.logger.Warn("schedule wake-up failed, relying on reads", zap.Error(err))
	}
	s.analytics.ResetAnalytics()
	s.topics.SetTopic(ctx, next.Topic)
	s.logger.Info("session started",
		zap.String("id", next.ID),
		zap.String("topic", next.Topic),
		zap.Int64("duration_seconds", next.DurationSeconds))
	return next, nil
}

func (s *SessionService) Pause(ctx context.Context) (domain.Session, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	next, err := current.Pause(s.clock.Now())
	if err != nil {
		return current, err
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return current, err
	}
	if err := s.scheduler.Cancel(ctx, domain.TimerName); err != nil {
		s.logger.Warn("cancel wake-up failed", zap.Error(err))
	}
	s.logger.Info("session paused", zap.String("id", next.ID), zap.Int64("remaining_seconds", *next.RemainingSeconds))
	return next, nil
}

func (s *SessionService) Resume(ctx context.Context) (domain.Session, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return domain.Session{}, err
	}
	next, err := current.Resume(s.clock.Now())
	if err != nil {
		return current, err
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return current, err
	}
	deadline, _ := next.Deadline()
	if err := s.scheduler.Schedule(ctx, domain.TimerName, deadline); err != nil {
		s.logger.Warn("schedule wake-up failed, relying on reads", zap.Error(err))
	}
	s.logger.Info("session resumed", zap.String("id", next.ID), zap.Time("end_time", deadline))
	return next, nil
}

// Reset clears the session from any stage. An overdue session is completed
// first so its history entry is not lost; a damaged record is cleared regardless.
func (s *SessionService) Reset(ctx context.Context) error {
	if _, err := s.Current(ctx); err != nil {
		s.logger.Warn("reset over unreadable session", zap.Error(err))
	}
	if err := s.scheduler.Cancel(ctx, domain.TimerName); err != nil {
		s.logger.Warn("cancel wake-up failed", zap.Error(err))
	}
	if err := s.sessions.Clear(ctx); err != nil {
		return err
	}
	s.analytics.ResetAnalytics()
	s.topics.ClearTopic()
	s.logger.Info("session reset")
	return nil
}

// Wake handles a scheduler firing. Only the focus timer matters, and only for an
// ACTIVE session; anything else is a no-op so repeated firings are harmless.
func (s *SessionService) Wake(ctx context.Context, name string) error {
	if name != domain.TimerName {
		return nil
	}
	current, found, err := s.sessions.Load(ctx)
	if err != nil || !found || current.Stage != domain.StageActive {
		return err
	}
	if current.Overdue(s.clock.Now()) {
		_, err := s.complete(ctx, current)
		return err
	}
	deadline, _ := current.Deadline()
	s.logger.Debug("early wake-up, re-arming", zap.Time("end_time", deadline))
	return s.scheduler.Schedule(ctx, domain.TimerName, deadline)
}

// Recover re-validates the persisted session after a restart.
func (s *SessionService) Recover(ctx context.Context) error {
	current, err := s.Current(ctx)
	if err != nil {
		return err
	}
	switch current.Stage {
	case domain.StageActive:
		deadline, _ := current.Deadline()
		if err := s.scheduler.Schedule(ctx, domain.TimerName, deadline); err != nil {
			return err
		}
		s.topics.SetTopic(ctx, current.Topic)
	case domain.StagePaused:
		s.topics.SetTopic(ctx, current.Topic)
	}
	s.logger.Info("session recovered", zap.String("stage", string(current.Stage)))
	return nil
}

func (s *SessionService) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx)
}

// complete writes history before the COMPLETED session so a crash in between is
// repaired by the next read; the history append is idempotent by session id.
func (s *SessionService) complete(ctx context.Context, current domain.Session) (domain.Session, error) {
	now := s.clock.Now()
	next, err := current.Complete(now)
	if err != nil {
		return current, err
	}
	entry := domain.NewHistoryEntry(current, s.analytics.Snapshot(), now)
	appended, err := s.history.Append(ctx, entry)
	if err != nil {
		return current, fmt.Errorf("append history: %w", err)
	}
	if err := s.sessions.Save(ctx, next); err != nil {
		return current, err
	}
	if err := s.scheduler.Cancel(ctx, domain.TimerName); err != nil {
		s.logger.Warn("cancel wake-up failed", zap.Error(err))
	}
	s.analytics.ResetAnalytics()
	s.topics.ClearTopic()
	s.logger.Info("session completed",
		zap.String("id", next.ID),
		zap.String("topic", next.Topic),
		zap.Bool("history_appended", appended))

	s.notify(ctx, "Session Complete", fmt.Sprintf("Your focus session on %q is complete.", next.Topic))
	if appended && s.journal != nil {
		if path, err := s.journal.Record(ctx, entry); err != nil {
			s.logger.Warn("journal note failed", zap.Error(err))
		} else {
			s.logger.Debug("journal note written", zap.String("path", path))
		}
	}
	return next, nil
}

// notify runs the notifier in the background under its own deadline; the
// caller holds the session actor and must not wait on a desktop command.
func (s *SessionService) notify(ctx context.Context, title, message string) {
	if s.notifier == nil {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	s.notifying.Go(func() {
		defer cancel()
		stop := context.AfterFunc(s.notifyCtx, cancel)
		defer stop()
		if err := s.notifier.Notify(nctx, title, message); err != nil {
			s.logger.Warn("completion notification failed", zap.Error(err))
		}
	})
}
