package out

import (
	"context"
	"time"

	"lockin/internal/modules/session/domain"
)

// SessionStore persists the singleton; found is false when no session exists.
type SessionStore interface {
	Load(ctx context.Context) (session domain.Session, found bool, err error)
	Save(ctx context.Context, session domain.Session) error
	Clear(ctx context.Context) error
}

// HistoryStore appends idempotently by session id; appended is false for a repeat.
type HistoryStore interface {
	Append(ctx context.Context, entry domain.HistoryEntry) (appended bool, err error)
	List(ctx context.Context) ([]domain.HistoryEntry, error)
}

type Scheduler interface {
	Schedule(ctx context.Context, name string, at time.Time) error
	Cancel(ctx context.Context, name string) error
}

type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

type TopicSink interface {
	SetTopic(ctx context.Context, topic string)
	ClearTopic()
}

type AnalyticsSource interface {
	Snapshot() domain.Analytics
	ResetAnalytics()
}

type Journal interface {
	Record(ctx context.Context, entry domain.HistoryEntry) (string, error)
}
