package out

import (
	"context"
	"time"

	"lockin/internal/modules/enforcement/domain"
)

type SessionReader interface {
	// ActiveTopic returns the focus topic when a session is ACTIVE.
	ActiveTopic(ctx context.Context) (topic string, active bool, err error)
}

type ListChecker interface {
	Allowed(ctx context.Context, url string) (bool, error)
	Blocked(ctx context.Context, url string) (bool, error)
}

type Relevance interface {
	Topic() string
	SetTopic(ctx context.Context, topic string)
	ScoreSimilarity(ctx context.Context, text string) (float64, error)
	Classify(ctx context.Context, text string) (string, error)
	TrackSite(host string, at time.Time)
	RecordDistraction()
}

type PageFetcher interface {
	Fetch(ctx context.Context, url string) (domain.PageContent, error)
}
