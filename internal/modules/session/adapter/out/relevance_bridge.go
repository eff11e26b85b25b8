package out

import (
	"context"

	relevancein "lockin/internal/modules/relevance/port/in"
	"lockin/internal/modules/session/domain"
	sessionout "lockin/internal/modules/session/port/out"
)

// RelevanceAdapter exposes the relevance engine's topic cache and analytics to
// the session controller.
type RelevanceAdapter struct {
	relevance relevancein.Usecase
}

var (
	_ sessionout.TopicSink       = RelevanceAdapter{}
	_ sessionout.AnalyticsSource = RelevanceAdapter{}
)

func NewRelevanceAdapter(relevance relevancein.Usecase) RelevanceAdapter {
	return RelevanceAdapter{relevance: relevance}
}

func (a RelevanceAdapter) SetTopic(ctx context.Context, topic string) {
	a.relevance.SetTopic(ctx, topic)
}

func (a RelevanceAdapter) ClearTopic() {
	a.relevance.ClearTopic()
}

func (a RelevanceAdapter) Snapshot() domain.Analytics {
	snap := a.relevance.Snapshot()
	sites := make([]domain.SiteTime, 0, len(snap.Sites))
	for _, s := range snap.Sites {
		sites = append(sites, domain.SiteTime{Host: s.Host, Seconds: s.Seconds})
	}
	return domain.Analytics{
		CategoryCounts:    snap.CategoryCounts,
		TopSites:          sites,
		TotalDistractions: snap.TotalDistractions,
	}
}

func (a RelevanceAdapter) ResetAnalytics() {
	a.relevance.ResetAnalytics()
}
