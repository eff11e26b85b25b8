package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lockin/internal/modules/relevance/domain"
	relevanceout "lockin/internal/modules/relevance/port/out"
	"lockin/internal/platform/telemetry"
)

// FailOpenSimilarity is reported when similarity cannot be computed.
const FailOpenSimilarity = 1.0

var ErrNoTopic = errors.New("no focus topic set")

type RelevanceService struct {
	embedder relevanceout.Embedder
	logger   *zap.Logger
	tracer   trace.Tracer
	flight   singleflight.Group
	bg       sync.WaitGroup

	mu          sync.Mutex
	topic       string
	topicVector []float32
	categories  *domain.CategoryTable
	analytics   *domain.Analytics
}

func NewRelevanceService(embedder relevanceout.Embedder, logger *zap.Logger) *RelevanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelevanceService{
		embedder:  embedder,
		logger:    logger.Named("relevance"),
		tracer:    telemetry.Tracer("relevance"),
		analytics: domain.NewAnalytics(),
	}
}

func (s *RelevanceService) SetTopic(ctx context.Context, topic string) {
	s.mu.Lock()
	if s.topic == topic && s.topicVector != nil {
		s.mu.Unlock()
		return
	}
	s.topic = topic
	s.topicVector = nil
	s.mu.Unlock()
	if topic == "" {
		return
	}

	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if _, err := s.topicVectorFor(bgCtx, topic); err != nil {
			s.logger.Warn("topic embedding failed, will retry on next score", zap.Error(err))
		}
	}()
}

func (s *RelevanceService) ClearTopic() {
	s.mu.Lock()
	s.topic = ""
	s.topicVector = nil
	s.mu.Unlock()
}

func (s *RelevanceService) Topic() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topic
}

// topicVectorFor embeds topic once; concurrent callers share the in-flight call.
// The result is cached only if topic is still current.
func (s *RelevanceService) topicVectorFor(ctx context.Context, topic string) ([]float32, error) {
	s.mu.Lock()
	if s.topic == topic && s.topicVector != nil {
		vec := s.topicVector
		s.mu.Unlock()
		return vec, nil
	}
	s.mu.Unlock()

	v, err, _ := s.flight.Do("topic\x00"+topic, func() (any, error) {
		return s.embedder.Embed(ctx, topic)
	})
	if err != nil {
		return nil, fmt.Errorf("embed topic: %w", err)
	}
	vec := v.([]float32)
	s.mu.Lock()
	if s.topic == topic {
		s.topicVector = vec
	}
	s.mu.Unlock()
	return vec, nil
}

func (s *RelevanceService) ScoreSimilarity(ctx context.Context, pageText string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "relevance.ScoreSimilarity", trace.WithAttributes(attribute.Int("page.runes", len([]rune(pageText)))))
	defer span.End()

	score, err := s.score(ctx, pageText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fail-open")
		s.logger.Warn("similarity unavailable, failing open", zap.Error(err))
		return FailOpenSimilarity, err
	}
	span.SetAttributes(attribute.Float64("similarity", score))
	return score, nil
}

func (s *RelevanceService) score(ctx context.Context, pageText string) (float64, error) {
	topic := s.Topic()
	if topic == "" {
		return 0, ErrNoTopic
	}
	topicVec, err := s.topicVectorFor(ctx, topic)
	if err != nil {
		return 0, err
	}
	pageVec, err := s.embedder.Embed(ctx, pageText)
	if err != nil {
		return 0, fmt.Errorf("embed page: %w", err)
	}
	return domain.Cosine(topicVec, pageVec)
}

func (s *RelevanceService) Classify(ctx context.Context, pageText string) (string, []domain.CategoryScore, error) {
	ctx, span := s.tracer.Start(ctx, "relevance.Classify")
	defer span.End()

	table, err := s.categoryTable(ctx)
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}
	pageVec, err := s.embedder.Embed(ctx, pageText)
	if err != nil {
		span.RecordError(err)
		return "", nil, fmt.Errorf("embed page: %w", err)
	}
	label, scores, err := table.Classify(pageVec)
	if err != nil {
		span.RecordError(err)
		return "", nil, err
	}
	s.mu.Lock()
	s.analytics.CountCategory(label)
	s.mu.Unlock()
	span.SetAttributes(attribute.String("category", label))
	return label, scores, nil
}

// categoryTable builds the table on first use. A failed build is not cached.
func (s *RelevanceService) categoryTable(ctx context.Context) (*domain.CategoryTable, error) {
	s.mu.Lock()
	table := s.categories
	s.mu.Unlock()
	if table != nil {
		return table, nil
	}

	v, err, _ := s.flight.Do("categories", func() (any, error) {
		entries := make([]domain.CategoryVector, 0, len(domain.Categories))
		for _, c := range domain.Categories {
			vec, err := s.embedder.Embed(ctx, c.Description)
			if err != nil {
				return nil, fmt.Errorf("embed category %s: %w", c.Label, err)
			}
			entries = append(entries, domain.CategoryVector{Label: c.Label, Vector: vec})
		}
		built := domain.NewCategoryTable(entries)
		s.mu.Lock()
		s.categories = &built
		s.mu.Unlock()
		return &built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.CategoryTable), nil
}

func (s *RelevanceService) TrackSite(host string, at time.Time) {
	s.mu.Lock()
	s.analytics.TrackSite(host, at)
	s.mu.Unlock()
}

func (s *RelevanceService) RecordDistraction() {
	s.mu.Lock()
	s.analytics.RecordDistraction()
	s.mu.Unlock()
}

func (s *RelevanceService) Snapshot() domain.AnalyticsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics.Snapshot()
}

func (s *RelevanceService) ResetAnalytics() {
	s.mu.Lock()
	s.analytics.Reset()
	s.mu.Unlock()
}

func (s *RelevanceService) EmbedderName() string {
	return s.embedder.Name()
}

// Wait blocks until background topic embeddings finish.
func (s *RelevanceService) Wait() {
	s.bg.Wait()
}
