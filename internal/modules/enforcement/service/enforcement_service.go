package service

import (
	"context"
	"net/url"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"lockin/internal/modules/enforcement/domain"
	enforcementout "lockin/internal/modules/enforcement/port/out"
	"lockin/internal/platform/clock"
	"lockin/internal/platform/telemetry"
)

type Deps struct {
	Sessions   enforcementout.SessionReader
	Lists      enforcementout.ListChecker
	Relevance  enforcementout.Relevance
	Clock      clock.Clock
	Logger     *zap.Logger
	Thresholds domain.Thresholds
	MaxRunes   int
}

type EnforcementService struct {
	sessions   enforcementout.SessionReader
	lists      enforcementout.ListChecker
	relevance  enforcementout.Relevance
	clock      clock.Clock
	logger     *zap.Logger
	tracer     trace.Tracer
	maxRunes   int
	thresholds atomic.Pointer[domain.Thresholds]
}

func NewEnforcementService(deps Deps) (*EnforcementService, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.MaxRunes <= 0 {
		deps.MaxRunes = domain.DefaultMaxContentRunes
	}
	svc := &EnforcementService{
		sessions:  deps.Sessions,
		lists:     deps.Lists,
		relevance: deps.Relevance,
		clock:     deps.Clock,
		logger:    deps.Logger.Named("enforcement"),
		tracer:    telemetry.Tracer("enforcement"),
		maxRunes:  deps.MaxRunes,
	}
	if err := svc.SetThresholds(deps.Thresholds); err != nil {
		return nil, err
	}
	return svc, nil
}

func (s *EnforcementService) SetThresholds(t domain.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.thresholds.Store(&t)
	return nil
}

func (s *EnforcementService) Thresholds() domain.Thresholds {
	return *s.thresholds.Load()
}

// Decide runs the enforcement pipeline for one page view.
func (s *EnforcementService) Decide(ctx context.Context, pageURL string, content domain.PageContent) domain.Decision {
	ctx, span := s.tracer.Start(ctx, "enforcement.Decide", trace.WithAttributes(attribute.String("page.url", pageURL)))
	defer span.End()

	d := s.decide(ctx, pageURL, content)
	span.SetAttributes(attribute.String("verdict", string(d.Verdict)))
	if d.Reason != "" {
		span.SetAttributes(attribute.String("reason", string(d.Reason)))
	}
	return d
}

func (s *EnforcementService) decide(ctx context.Context, pageURL string, content domain.PageContent) domain.Decision {
	topic, active, err := s.sessions.ActiveTopic(ctx)
	if err != nil {
		s.logger.Warn("session unreadable, allowing", zap.Error(err))
		return domain.Allow()
	}
	if !active {
		return domain.Allow()
	}

	allowed, err := s.lists.Allowed(ctx, pageURL)
	if err != nil {
		s.logger.Warn("allow list unreadable, allowing", zap.Error(err))
		return domain.Allow()
	}
	if allowed {
		return domain.Allow()
	}
	blocked, err := s.lists.Blocked(ctx, pageURL)
	if err != nil {
		s.logger.Warn("block list unreadable, allowing", zap.Error(err))
		return domain.Allow()
	}
	if blocked {
		return domain.ManualBlock(topic)
	}

	if content.Empty() {
		s.logger.Debug("no page content, allowing", zap.String("url", pageURL))
		return domain.Allow()
	}
	if s.relevance.Topic() != topic {
		s.relevance.SetTopic(ctx, topic)
	}

	text := content.Compose(s.maxRunes)
	similarity, err := s.relevance.ScoreSimilarity(ctx, text)
	if err != nil {
		return domain.Allow()
	}
	// Site time only counts pages that were actually scored.
	if host := hostOf(pageURL); host != "" {
		s.relevance.TrackSite(host, s.clock.Now())
	}
	category, err := s.relevance.Classify(ctx, text)
	if err != nil {
		s.logger.Debug("classification failed", zap.Error(err))
	}

	d := domain.Semantic(s.Thresholds().Judge(similarity), topic, similarity, category)
	if d.Distraction() {
		s.relevance.RecordDistraction()
	}
	s.logger.Debug("page evaluated",
		zap.String("url", pageURL),
		zap.Float64("similarity", similarity),
		zap.String("category", category),
		zap.String("verdict", string(d.Verdict)),
	)
	return d
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
