package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	enforcementdto "lockin/internal/modules/enforcement/dto"
	"lockin/internal/modules/navigation/domain"
	navigationout "lockin/internal/modules/navigation/port/out"
)

const DefaultDebounce = 300 * time.Millisecond

var ErrClosed = errors.New("navigation watcher closed")

type tab struct {
	seen    domain.Evaluated
	gen     uint64
	pending *time.Timer
	verdict *enforcementdto.Result
}

// Watcher debounces page views per tab and evaluates the last one in each window.
type Watcher struct {
	evaluator navigationout.Evaluator
	sink      navigationout.Sink
	logger    *zap.Logger
	debounce  atomic.Int64

	ctx     context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup

	mu     sync.Mutex
	tabs   map[int]*tab
	closed bool
}

func NewWatcher(evaluator navigationout.Evaluator, sink navigationout.Sink, debounce time.Duration, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		evaluator: evaluator,
		sink:      sink,
		logger:    logger.Named("navigation"),
		ctx:       ctx,
		cancel:    cancel,
		tabs:      map[int]*tab{},
	}
	w.SetDebounce(debounce)
	return w
}

func (w *Watcher) SetDebounce(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounce
	}
	w.debounce.Store(int64(d))
}

func (w *Watcher) Debounce() time.Duration {
	return time.Duration(w.debounce.Load())
}

// Observe compares ev with the tab's latest view and (re)starts its debounce
// timer when the change is material. It reports whether a timer was started.
func (w *Watcher) Observe(ev domain.Event, input enforcementdto.EvaluateInput) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false, ErrClosed
	}
	t := w.tabs[ev.TabID]
	if t == nil {
		t = &tab{}
		w.tabs[ev.TabID] = t
	}
	if t.gen > 0 && !t.seen.Material(ev) {
		return false, nil
	}
	if t.pending != nil {
		t.pending.Stop()
	}
	t.gen++
	t.seen = domain.Evaluated{URL: ev.URL, Fingerprint: ev.Fingerprint}
	gen := t.gen
	t.pending = time.AfterFunc(w.Debounce(), func() { w.fire(ev.TabID, gen, input) })
	return true, nil
}

func (w *Watcher) fire(tabID int, gen uint64, input enforcementdto.EvaluateInput) {
	w.mu.Lock()
	t := w.tabs[tabID]
	if w.closed || t == nil || t.gen != gen {
		w.mu.Unlock()
		return
	}
	t.pending = nil
	w.running.Add(1)
	w.mu.Unlock()
	defer w.running.Done()

	result := w.evaluator.Evaluate(w.ctx, input)

	w.mu.Lock()
	current := w.tabs[tabID] == t && t.gen == gen
	if current {
		t.verdict = &result
	}
	w.mu.Unlock()
	if !current {
		w.logger.Debug("dropping superseded verdict", zap.Int("tab", tabID), zap.String("url", input.URL))
		return
	}
	w.logger.Debug("tab evaluated", zap.Int("tab", tabID), zap.String("url", input.URL), zap.String("verdict", result.Verdict))
	if w.sink != nil {
		w.sink.Deliver(tabID, input.URL, result)
	}
}

func (w *Watcher) LastVerdict(tabID int) (enforcementdto.Result, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t := w.tabs[tabID]
	if t == nil || t.verdict == nil {
		return enforcementdto.Result{}, false
	}
	return *t.verdict, true
}

// Forget drops a closed tab and any pending evaluation for it.
func (w *Watcher) Forget(tabID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t := w.tabs[tabID]; t != nil && t.pending != nil {
		t.pending.Stop()
	}
	delete(w.tabs, tabID)
}

// Close cancels pending timers and waits for running evaluations.
func (w *Watcher) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	for _, t := range w.tabs {
		if t.pending != nil {
			t.pending.Stop()
		}
	}
	w.mu.Unlock()
	w.cancel()
	w.running.Wait()
}
