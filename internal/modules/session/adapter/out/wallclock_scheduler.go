package out

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	sessionout "lockin/internal/modules/session/port/out"
	"lockin/internal/platform/clock"
)

// WallClockScheduler fires named one-shot wake-ups. Each registration arms a
// timer and is also checked against the wall clock on every poll tick, so a
// timer lost to host suspension fires at most one poll interval late.
// A registration fires at most once.
type WallClockScheduler struct {
	clock  clock.Clock
	poll   time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending map[string]*registration
	due     chan string
}

type registration struct {
	at    time.Time
	timer *time.Timer
}

var _ sessionout.Scheduler = (*WallClockScheduler)(nil)

func NewWallClockScheduler(clk clock.Clock, poll time.Duration, logger *zap.Logger) *WallClockScheduler {
	if poll <= 0 {
		poll = time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WallClockScheduler{
		clock:   clk,
		poll:    poll,
		logger:  logger.Named("scheduler"),
		pending: map[string]*registration{},
		due:     make(chan string, 16),
	}
}

func (s *WallClockScheduler) Schedule(_ context.Context, name string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
	reg := &registration{at: at}
	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	reg.timer = time.AfterFunc(delay, func() { s.signal(name) })
	s.pending[name] = reg
	s.logger.Debug("wake-up scheduled", zap.String("name", name), zap.Time("at", at))
	return nil
}

func (s *WallClockScheduler) Cancel(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(name)
	return nil
}

// Pending reports whether a wake-up is registered under name.
func (s *WallClockScheduler) Pending(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[name]
	return ok
}

func (s *WallClockScheduler) cancelLocked(name string) {
	if reg, ok := s.pending[name]; ok {
		reg.timer.Stop()
		delete(s.pending, name)
	}
}

func (s *WallClockScheduler) signal(name string) {
	select {
	case s.due <- name:
	default:
		// The poll tick picks it up.
	}
}

// Run delivers due wake-ups to fire until ctx is cancelled.
func (s *WallClockScheduler) Run(ctx context.Context, fire func(ctx context.Context, name string)) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.stopAll()
			return
		case name := <-s.due:
			if s.claim(name) {
				fire(ctx, name)
			}
		case <-ticker.C:
			for _, name := range s.overdue() {
				if s.claim(name) {
					fire(ctx, name)
				}
			}
		}
	}
}

// claim removes a registration once the wall clock agrees it is due. A timer
// that fires early relative to the clock is left for the poll tick.
func (s *WallClockScheduler) claim(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg, ok := s.pending[name]
	if !ok || s.clock.Now().Before(reg.at) {
		return false
	}
	reg.timer.Stop()
	delete(s.pending, name)
	return true
}

func (s *WallClockScheduler) overdue() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var names []string
	for name, reg := range s.pending {
		if !now.Before(reg.at) {
			names = append(names, name)
		}
	}
	return names
}

func (s *WallClockScheduler) stopAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name := range s.pending {
		s.cancelLocked(name)
	}
}
