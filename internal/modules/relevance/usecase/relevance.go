package usecase

import (
	"context"
	"io"
	"time"

	relevancedto "lockin/internal/modules/relevance/dto"
	relevancein "lockin/internal/modules/relevance/port/in"
	relevanceout "lockin/internal/modules/relevance/port/out"
	"lockin/internal/modules/relevance/service"
)

type Interactor struct {
	svc      *service.RelevanceService
	embedder relevanceout.Embedder
}

func NewInteractor(svc *service.RelevanceService, embedder relevanceout.Embedder) relevancein.Usecase {
	return &Interactor{svc: svc, embedder: embedder}
}

func (i *Interactor) SetTopic(ctx context.Context, topic string) {
	i.svc.SetTopic(ctx, topic)
}

func (i *Interactor) ClearTopic() {
	i.svc.ClearTopic()
}

func (i *Interactor) Topic() string {
	return i.svc.Topic()
}

func (i *Interactor) ScoreSimilarity(ctx context.Context, pageText string) (float64, error) {
	return i.svc.ScoreSimilarity(ctx, pageText)
}

func (i *Interactor) Classify(ctx context.Context, pageText string) (relevancedto.Classification, error) {
	label, scores, err := i.svc.Classify(ctx, pageText)
	if err != nil {
		return relevancedto.Classification{}, err
	}
	out := relevancedto.Classification{Category: label, Scores: make([]relevancedto.CategoryScore, 0, len(scores))}
	for _, s := range scores {
		out.Scores = append(out.Scores, relevancedto.CategoryScore{Label: s.Label, Score: s.Score})
	}
	return out, nil
}

func (i *Interactor) TrackSite(host string, at time.Time) {
	i.svc.TrackSite(host, at)
}

func (i *Interactor) RecordDistraction() {
	i.svc.RecordDistraction()
}

func (i *Interactor) Snapshot() relevancedto.Analytics {
	snap := i.svc.Snapshot()
	sites := make([]relevancedto.SiteTime, 0, len(snap.Sites))
	for _, s := range snap.Sites {
		sites = append(sites, relevancedto.SiteTime{Host: s.Host, Seconds: s.Seconds})
	}
	return relevancedto.Analytics{
		CategoryCounts:    snap.CategoryCounts,
		Sites:             sites,
		TotalDistractions: snap.TotalDistractions,
	}
}

func (i *Interactor) ResetAnalytics() {
	i.svc.ResetAnalytics()
}

func (i *Interactor) EmbedderName() string {
	return i.svc.EmbedderName()
}

// Close waits for background embeddings and releases the embedder.
func (i *Interactor) Close() error {
	i.svc.Wait()
	if closer, ok := i.embedder.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
