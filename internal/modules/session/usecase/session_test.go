package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	sessionadapter "lockin/internal/modules/session/adapter/out"
	"lockin/internal/modules/session/domain"
	sessiondto "lockin/internal/modules/session/dto"
	sessionin "lockin/internal/modules/session/port/in"
	sessionout "lockin/internal/modules/session/port/out"
	"lockin/internal/modules/session/service"
	"lockin/internal/modules/session/usecase"
	"lockin/internal/platform/clock"
	apperrors "lockin/internal/platform/errors"
	"lockin/internal/platform/id"
	"lockin/internal/platform/kv"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fakeScheduler struct {
	mu      sync.Mutex
	pending map[string]time.Time
}

func (f *fakeScheduler) Schedule(_ context.Context, name string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending[name] = at
	return nil
}

func (f *fakeScheduler) Cancel(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pending, name)
	return nil
}

func (f *fakeScheduler) at(name string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.pending[name]
	return at, ok
}

type fakeRelevance struct {
	mu        sync.Mutex
	topic     string
	resets    int
	analytics domain.Analytics
}

func (f *fakeRelevance) SetTopic(_ context.Context, topic string) {
	f.mu.Lock()
	f.topic = topic
	f.mu.Unlock()
}

func (f *fakeRelevance) ClearTopic() {
	f.mu.Lock()
	f.topic = ""
	f.mu.Unlock()
}

func (f *fakeRelevance) Snapshot() domain.Analytics {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analytics
}

func (f *fakeRelevance) ResetAnalytics() {
	f.mu.Lock()
	f.resets++
	f.analytics = domain.Analytics{}
	f.mu.Unlock()
}

func (f *fakeRelevance) currentTopic() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topic
}

type fakeNotifier struct {
	mu    sync.Mutex
	count int
}

func (f *fakeNotifier) Notify(context.Context, string, string) error {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()
	return nil
}

// waitFor polls until n notifications arrived; they run off the actor.
func (f *fakeNotifier) waitFor(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		f.mu.Lock()
		got := f.count
		f.mu.Unlock()
		if got == n {
			return
		}
		if got > n || time.Now().After(deadline) {
			t.Fatalf("notifications = %d, want %d", got, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// hangingNotifier blocks like a notification command that never exits.
type hangingNotifier struct {
	started chan struct{}
	ended   chan error
}

func newHangingNotifier() *hangingNotifier {
	return &hangingNotifier{started: make(chan struct{}, 1), ended: make(chan error, 1)}
}

func (n *hangingNotifier) Notify(ctx context.Context, _, _ string) error {
	n.started <- struct{}{}
	<-ctx.Done()
	n.ended <- ctx.Err()
	return ctx.Err()
}

type harness struct {
	uc        sessionin.Usecase
	clock     *clock.Fixed
	store     *kv.Store
	sched     *fakeScheduler
	relevance *fakeRelevance
	notifier  *fakeNotifier
	sessions  sessionout.SessionStore
	history   sessionout.HistoryStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

func newHarnessWith(t *testing.T, configure func(*service.Deps)) *harness {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "lockin.db"))
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	h := &harness{
		clock:     clock.NewFixed(t0),
		store:     store,
		sched:     &fakeScheduler{pending: map[string]time.Time{}},
		relevance: &fakeRelevance{},
		notifier:  &fakeNotifier{},
		sessions:  sessionadapter.NewKVSessionStore(store),
		history:   sessionadapter.NewKVHistoryStore(store),
	}
	deps := service.Deps{
		Clock:     h.clock,
		IDs:       &id.Sequence{Prefix: "sess"},
		Sessions:  h.sessions,
		History:   h.history,
		Scheduler: h.sched,
		Topics:    h.relevance,
		Analytics: h.relevance,
		Notifier:  h.notifier,
	}
	if configure != nil {
		configure(&deps)
	}
	h.uc = usecase.NewInteractor(service.NewSessionService(deps))
	t.Cleanup(func() {
		_ = h.uc.Close()
		_ = store.Close()
	})
	return h
}

func TestStartThenGetIsActiveWithDeadline(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "machine learning basics", DurationSeconds: 1500}); err != nil {
		t.Fatalf("start: %v", err)
	}
	got, err := h.uc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != "ACTIVE" || got.EndTime == nil || got.RemainingSeconds != nil {
		t.Fatalf("unexpected session %+v", got)
	}
	if diff := *got.EndTime - t0.UnixMilli(); diff != 1500*1000 {
		t.Fatalf("endTime - now = %d", diff)
	}
	at, ok := h.sched.at(domain.TimerName)
	if !ok || at.UnixMilli() != *got.EndTime {
		t.Fatalf("wake-up = %v %v", at, ok)
	}
	if h.relevance.currentTopic() != "machine learning basics" {
		t.Fatalf("topic not forwarded")
	}
}

func TestPauseResumePreservesRemaining(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "rust ownership", DurationSeconds: 600}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(100 * time.Second)
	paused, err := h.uc.Pause(ctx)
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if paused.Stage != "PAUSED" || *paused.RemainingSeconds != 500 || paused.EndTime != nil {
		t.Fatalf("paused = %+v", paused)
	}
	if _, ok := h.sched.at(domain.TimerName); ok {
		t.Fatalf("wake-up should be cancelled while paused")
	}

	h.clock.Advance(time.Hour)
	resumed, err := h.uc.Resume(ctx)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	want := h.clock.Now().Add(500 * time.Second).UnixMilli()
	if resumed.Stage != "ACTIVE" || *resumed.EndTime != want {
		t.Fatalf("resumed = %+v, want endTime %d", resumed, want)
	}
	if _, ok := h.sched.at(domain.TimerName); !ok {
		t.Fatalf("wake-up should be re-registered")
	}
}

func TestInvalidTransitionsReportWithoutChangingState(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.uc.Pause(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("pause none err = %v", err)
	}
	if _, err := h.uc.Resume(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("resume none err = %v", err)
	}
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 60}); err != nil {
		t.Fatalf("start: %v", err)
	}
	before, _ := h.uc.Get(ctx)
	if _, err := h.uc.Resume(ctx); !errors.Is(err, apperrors.ErrInvalidTransition) {
		t.Fatalf("resume active err = %v", err)
	}
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "other", DurationSeconds: 60}); !errors.Is(err, apperrors.ErrSessionInProgress) {
		t.Fatalf("start over active err = %v", err)
	}
	after, _ := h.uc.Get(ctx)
	if after.ID != before.ID || *after.EndTime != *before.EndTime || after.Topic != "go" {
		t.Fatalf("state changed: before %+v after %+v", before, after)
	}
}

func TestResetFromAnyStage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	setups := map[string]func(h *harness){
		"none":   func(*harness) {},
		"active": func(h *harness) { _, _ = h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 60}) },
		"paused": func(h *harness) {
			_, _ = h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 60})
			_, _ = h.uc.Pause(ctx)
		},
		"completed": func(h *harness) {
			_, _ = h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 60})
			h.clock.Advance(2 * time.Minute)
			_ = h.uc.HandleWake(ctx, domain.TimerName)
		},
	}
	for name, setup := range setups {
		name, setup := name, setup
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			setup(h)
			if err := h.uc.Reset(ctx); err != nil {
				t.Fatalf("reset: %v", err)
			}
			got, err := h.uc.Get(ctx)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if got.Stage != "NONE" || got.Topic != "" {
				t.Fatalf("after reset = %+v", got)
			}
			if _, ok := h.sched.at(domain.TimerName); ok {
				t.Fatalf("wake-up still pending after reset")
			}
			if h.relevance.currentTopic() != "" {
				t.Fatalf("topic vector not cleared")
			}
		})
	}
}

func TestDoubleWakeAppendsOneHistoryEntry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "linear algebra", DurationSeconds: 60}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.relevance.mu.Lock()
	h.relevance.analytics = domain.Analytics{CategoryCounts: map[string]int{"social_media": 2}, TotalDistractions: 3}
	h.relevance.mu.Unlock()

	h.clock.Advance(61 * time.Second)
	for i := 0; i < 2; i++ {
		if err := h.uc.HandleWake(ctx, domain.TimerName); err != nil {
			t.Fatalf("wake %d: %v", i, err)
		}
	}
	history, err := h.uc.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history entries = %d, want 1", len(history))
	}
	entry := history[0]
	if entry.Topic != "linear algebra" || entry.DurationSeconds != 60 || entry.Date != "2026-03-02" {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Analytics.TotalDistractions != 3 || entry.Analytics.CategoryCounts["social_media"] != 2 {
		t.Fatalf("analytics = %+v", entry.Analytics)
	}
	got, _ := h.uc.Get(ctx)
	if got.Stage != "COMPLETED" || got.CompletedAt == nil || got.EndTime != nil {
		t.Fatalf("session = %+v", got)
	}
	h.notifier.waitFor(t, 1)
}

func TestHangingNotifierDoesNotStallSession(t *testing.T) {
	t.Parallel()
	slow := newHangingNotifier()
	h := newHarnessWith(t, func(d *service.Deps) {
		d.Notifier = slow
		d.NotifyTimeout = time.Minute
	})
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "compilers", DurationSeconds: 60}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(61 * time.Second)

	if err := h.uc.HandleWake(ctx, domain.TimerName); err != nil {
		t.Fatalf("wake: %v", err)
	}
	select {
	case <-slow.started:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier never ran")
	}

	getCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	got, err := h.uc.Get(getCtx)
	if err != nil {
		t.Fatalf("get while notifier hangs: %v", err)
	}
	if got.Stage != "COMPLETED" {
		t.Fatalf("stage = %s, want COMPLETED", got.Stage)
	}

	if err := h.uc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-slow.ended; !errors.Is(err, context.Canceled) {
		t.Fatalf("notifier ended with %v, want context.Canceled", err)
	}
}

func TestNotifierHasItsOwnDeadline(t *testing.T) {
	t.Parallel()
	slow := newHangingNotifier()
	h := newHarnessWith(t, func(d *service.Deps) {
		d.Notifier = slow
		d.NotifyTimeout = 50 * time.Millisecond
	})
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "compilers", DurationSeconds: 60}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(61 * time.Second)
	if err := h.uc.HandleWake(ctx, domain.TimerName); err != nil {
		t.Fatalf("wake: %v", err)
	}
	select {
	case err := <-slow.ended:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("notifier ended with %v, want deadline exceeded", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("notifier was not cut off by its timeout")
	}
}

func TestEarlyWakeRearms(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	started, _ := h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 600})
	_ = h.sched.Cancel(ctx, domain.TimerName)

	h.clock.Advance(time.Minute)
	if err := h.uc.HandleWake(ctx, domain.TimerName); err != nil {
		t.Fatalf("wake: %v", err)
	}
	at, ok := h.sched.at(domain.TimerName)
	if !ok || at.UnixMilli() != *started.EndTime {
		t.Fatalf("wake-up not re-armed: %v %v", at, ok)
	}
	if err := h.uc.HandleWake(ctx, "something-else"); err != nil {
		t.Fatalf("foreign wake: %v", err)
	}
	got, _ := h.uc.Get(ctx)
	if got.Stage != "ACTIVE" {
		t.Fatalf("stage = %s", got.Stage)
	}
}

func TestGetCompletesOverdueSessionAfterMissedWake(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 60}); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.clock.Advance(10 * time.Minute)
	got, err := h.uc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != "COMPLETED" {
		t.Fatalf("stage = %s, want COMPLETED", got.Stage)
	}
	history, _ := h.uc.History(ctx)
	if len(history) != 1 {
		t.Fatalf("history = %d", len(history))
	}
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "next", DurationSeconds: 60}); err != nil {
		t.Fatalf("start after completion: %v", err)
	}
}

func TestPartialCompletionIsRepairedOnRead(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	active, err := domain.Start("crashed", "go", 60, t0)
	if err != nil {
		t.Fatalf("domain start: %v", err)
	}
	if err := h.sessions.Save(ctx, active); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	if _, err := h.history.Append(ctx, domain.NewHistoryEntry(active, domain.Analytics{}, t0.Add(time.Minute))); err != nil {
		t.Fatalf("seed history: %v", err)
	}

	h.clock.Advance(2 * time.Minute)
	got, err := h.uc.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Stage != "COMPLETED" {
		t.Fatalf("stage = %s", got.Stage)
	}
	history, _ := h.uc.History(ctx)
	if len(history) != 1 {
		t.Fatalf("history = %d, want 1", len(history))
	}
}

func TestRecoverRearmsFutureSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	active, _ := domain.Start("persisted", "distributed systems", 3600, t0)
	if err := h.sessions.Save(ctx, active); err != nil {
		t.Fatalf("seed: %v", err)
	}
	h.clock.Advance(10 * time.Minute)
	if err := h.uc.Recover(ctx); err != nil {
		t.Fatalf("recover: %v", err)
	}
	at, ok := h.sched.at(domain.TimerName)
	if !ok || at.UnixMilli() != *active.EndTime {
		t.Fatalf("wake-up = %v %v", at, ok)
	}
	if h.relevance.currentTopic() != "distributed systems" {
		t.Fatalf("topic not re-seeded")
	}
}

func TestConcurrentCallersAreSerialised(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	if _, err := h.uc.Start(ctx, sessiondto.StartInput{Topic: "go", DurationSeconds: 600}); err != nil {
		t.Fatalf("start: %v", err)
	}
	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.uc.Get(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent get: %v", err)
	}
}

func TestClosedControllerRejectsCalls(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.uc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := h.uc.Get(context.Background()); !errors.Is(err, usecase.ErrClosed) {
		t.Fatalf("get after close err = %v", err)
	}
}

func TestPresetsCoverQuickAndLongSessions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	presets := h.uc.Presets()
	if len(presets) != 12 || presets[0].Seconds != 60 || presets[len(presets)-1].Seconds != 4*3600 {
		t.Fatalf("presets = %+v", presets)
	}
	if presets[6].Label != "1h 30m" {
		t.Fatalf("label = %q", presets[6].Label)
	}
}
