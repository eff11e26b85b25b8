package clock

import (
	"sync"
	"time"
)

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FromMillis converts epoch milliseconds, the persisted timestamp unit, to UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Fixed is a clock frozen at a settable instant. Safe for concurrent use.
type Fixed struct {
	mu sync.Mutex
	at time.Time
}

func NewFixed(at time.Time) *Fixed {
	return &Fixed{at: at}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.at
}

func (f *Fixed) Advance(d time.Duration) {
	f.mu.Lock()
	f.at = f.at.Add(d)
	f.mu.Unlock()
}

func (f *Fixed) Set(at time.Time) {
	f.mu.Lock()
	f.at = at
	f.mu.Unlock()
}
