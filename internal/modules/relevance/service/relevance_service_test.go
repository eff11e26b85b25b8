package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lockin/internal/modules/relevance/domain"
	"lockin/internal/modules/relevance/service"
)

// vectorEmbedder maps known texts to fixed vectors. Category descriptions get
// one-hot vectors so classification is predictable.
type vectorEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   map[string]int
	fail    atomic.Bool
	gate    chan struct{}
}

func newVectorEmbedder() *vectorEmbedder {
	e := &vectorEmbedder{vectors: map[string][]float32{}, calls: map[string]int{}}
	for i, c := range domain.Categories {
		v := make([]float32, len(domain.Categories))
		v[i] = 1
		e.vectors[c.Description] = v
	}
	return e
}

func (e *vectorEmbedder) Name() string { return "vectors" }

func (e *vectorEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.gate != nil {
		select {
		case <-e.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls[text]++
	if e.fail.Load() {
		return nil, errors.New("model unavailable")
	}
	v, ok := e.vectors[text]
	if !ok {
		return nil, errors.New("unknown text " + text)
	}
	return v, nil
}

func (e *vectorEmbedder) callsFor(text string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[text]
}

func oneHot(idx int) []float32 {
	v := make([]float32, len(domain.Categories))
	v[idx] = 1
	return v
}

func TestScoreSimilarityUsesTopicVector(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["machine learning"] = []float32{1, 0, 0, 0, 0, 0, 0, 0}
	emb.vectors["ml page"] = []float32{0.6, 0.8, 0, 0, 0, 0, 0, 0}
	svc := service.NewRelevanceService(emb, nil)
	defer svc.Wait()

	svc.SetTopic(context.Background(), "machine learning")
	score, err := svc.ScoreSimilarity(context.Background(), "ml page")
	require.NoError(t, err)
	require.InDelta(t, 0.6, score, 1e-6)
}

func TestScoreSimilarityFailsOpen(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["go"] = oneHot(0)
	emb.fail.Store(true)
	svc := service.NewRelevanceService(emb, nil)
	svc.SetTopic(context.Background(), "go")
	svc.Wait()

	score, err := svc.ScoreSimilarity(context.Background(), "anything")
	require.Error(t, err)
	require.Equal(t, service.FailOpenSimilarity, score)
}

func TestScoreSimilarityWithoutTopicFailsOpen(t *testing.T) {
	t.Parallel()
	svc := service.NewRelevanceService(newVectorEmbedder(), nil)
	score, err := svc.ScoreSimilarity(context.Background(), "page")
	require.ErrorIs(t, err, service.ErrNoTopic)
	require.Equal(t, 1.0, score)
}

func TestConcurrentTopicEmbeddingIsShared(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["rust"] = oneHot(0)
	emb.vectors["page"] = oneHot(0)
	emb.gate = make(chan struct{})
	svc := service.NewRelevanceService(emb, nil)

	svc.SetTopic(context.Background(), "rust")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ScoreSimilarity(context.Background(), "page")
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(emb.gate)
	wg.Wait()
	svc.Wait()

	require.Equal(t, 1, emb.callsFor("rust"))
}

func TestClearTopicDropsVector(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["go"] = oneHot(0)
	svc := service.NewRelevanceService(emb, nil)
	svc.SetTopic(context.Background(), "go")
	svc.Wait()
	svc.ClearTopic()
	require.Empty(t, svc.Topic())
	_, err := svc.ScoreSimilarity(context.Background(), "page")
	require.ErrorIs(t, err, service.ErrNoTopic)
}

func TestClassifyCountsWinningCategory(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["cat videos"] = []float32{0, 0.2, 0.9, 0, 0, 0, 0, 0}
	svc := service.NewRelevanceService(emb, nil)

	for i := 0; i < 2; i++ {
		label, scores, err := svc.Classify(context.Background(), "cat videos")
		require.NoError(t, err)
		require.Equal(t, "video_streaming", label)
		require.Len(t, scores, len(domain.Categories))
	}
	snap := svc.Snapshot()
	require.Equal(t, 2, snap.CategoryCounts["video_streaming"])

	// The table is built once.
	require.Equal(t, 1, emb.callsFor(domain.Categories[0].Description))
}

func TestCategoryTableRetriedAfterFailure(t *testing.T) {
	t.Parallel()
	emb := newVectorEmbedder()
	emb.vectors["news page"] = oneHot(3)
	emb.fail.Store(true)
	svc := service.NewRelevanceService(emb, nil)

	_, _, err := svc.Classify(context.Background(), "news page")
	require.Error(t, err)
	require.Empty(t, svc.Snapshot().CategoryCounts)

	emb.fail.Store(false)
	label, _, err := svc.Classify(context.Background(), "news page")
	require.NoError(t, err)
	require.Equal(t, "news", label)
}

func TestAnalyticsLifecycle(t *testing.T) {
	t.Parallel()
	svc := service.NewRelevanceService(newVectorEmbedder(), nil)
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc.TrackSite("go.dev", t0)
	svc.TrackSite("reddit.com", t0.Add(90*time.Second))
	svc.RecordDistraction()

	snap := svc.Snapshot()
	require.Equal(t, 1, snap.TotalDistractions)
	require.Equal(t, []domain.SiteTime{{Host: "go.dev", Seconds: 90}}, snap.Sites)

	svc.ResetAnalytics()
	require.Zero(t, svc.Snapshot().TotalDistractions)
}
