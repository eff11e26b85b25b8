package in

import (
	"context"
	"time"

	"lockin/internal/modules/relevance/dto"
)

type Usecase interface {
	// SetTopic stores the topic and embeds it in the background.
	SetTopic(ctx context.Context, topic string)
	ClearTopic()
	Topic() string
	// ScoreSimilarity fails open: on any embedding error it returns 1.0 with the error.
	ScoreSimilarity(ctx context.Context, pageText string) (float64, error)
	// Classify counts the winning category in the session analytics.
	Classify(ctx context.Context, pageText string) (dto.Classification, error)
	TrackSite(host string, at time.Time)
	RecordDistraction()
	Snapshot() dto.Analytics
	ResetAnalytics()
	EmbedderName() string
	Close() error
}
