package out

import (
	"context"
	"time"

	enforcementout "lockin/internal/modules/enforcement/port/out"
	listsin "lockin/internal/modules/lists/port/in"
	relevancein "lockin/internal/modules/relevance/port/in"
	sessionin "lockin/internal/modules/session/port/in"
)

const stageActive = "ACTIVE"

type SessionBridge struct {
	sessions sessionin.Usecase
}

var _ enforcementout.SessionReader = SessionBridge{}

func NewSessionBridge(sessions sessionin.Usecase) SessionBridge {
	return SessionBridge{sessions: sessions}
}

func (b SessionBridge) ActiveTopic(ctx context.Context) (string, bool, error) {
	s, err := b.sessions.Get(ctx)
	if err != nil {
		return "", false, err
	}
	if s.Stage != stageActive {
		return "", false, nil
	}
	return s.Topic, true, nil
}

type ListBridge struct {
	lists listsin.Usecase
}

var _ enforcementout.ListChecker = ListBridge{}

func NewListBridge(lists listsin.Usecase) ListBridge {
	return ListBridge{lists: lists}
}

func (b ListBridge) Allowed(ctx context.Context, url string) (bool, error) {
	return b.lists.Contains(ctx, "allow", url)
}

func (b ListBridge) Blocked(ctx context.Context, url string) (bool, error) {
	return b.lists.Contains(ctx, "block", url)
}

type RelevanceBridge struct {
	relevance relevancein.Usecase
}

var _ enforcementout.Relevance = RelevanceBridge{}

func NewRelevanceBridge(relevance relevancein.Usecase) RelevanceBridge {
	return RelevanceBridge{relevance: relevance}
}

func (b RelevanceBridge) Topic() string { return b.relevance.Topic() }

func (b RelevanceBridge) SetTopic(ctx context.Context, topic string) {
	b.relevance.SetTopic(ctx, topic)
}

func (b RelevanceBridge) ScoreSimilarity(ctx context.Context, text string) (float64, error) {
	return b.relevance.ScoreSimilarity(ctx, text)
}

func (b RelevanceBridge) Classify(ctx context.Context, text string) (string, error) {
	c, err := b.relevance.Classify(ctx, text)
	if err != nil {
		return "", err
	}
	return c.Category, nil
}

func (b RelevanceBridge) TrackSite(host string, at time.Time) {
	b.relevance.TrackSite(host, at)
}

func (b RelevanceBridge) RecordDistraction() {
	b.relevance.RecordDistraction()
}
