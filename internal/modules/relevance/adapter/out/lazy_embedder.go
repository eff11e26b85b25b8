package out

import (
	"context"
	"fmt"
	"io"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	relevanceout "lockin/internal/modules/relevance/port/out"
)

const DefaultCacheSize = 512

type Loader func(ctx context.Context) (relevanceout.Embedder, error)

// LazyEmbedder loads its backend on first use, at most once per process;
// concurrent first callers wait on the same load. A failed load is retried by
// the next caller. Results are cached by text.
type LazyEmbedder struct {
	name   string
	load   Loader
	flight singleflight.Group
	cache  *lru.Cache[string, []float32]

	mu    sync.Mutex
	inner relevanceout.Embedder
}

var _ relevanceout.Embedder = (*LazyEmbedder)(nil)

func NewLazyEmbedder(name string, cacheSize int, load Loader) (*LazyEmbedder, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &LazyEmbedder{name: name, load: load, cache: cache}, nil
}

func (l *LazyEmbedder) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inner != nil {
		return l.inner.Name()
	}
	return l.name
}

func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := l.cache.Get(text); ok {
		return vec, nil
	}
	inner, err := l.backend(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	l.cache.Add(text, vec)
	return vec, nil
}

func (l *LazyEmbedder) backend(ctx context.Context) (relevanceout.Embedder, error) {
	l.mu.Lock()
	inner := l.inner
	l.mu.Unlock()
	if inner != nil {
		return inner, nil
	}
	v, err, _ := l.flight.Do("load", func() (any, error) {
		loaded, err := l.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load embedder %s: %w", l.name, err)
		}
		l.mu.Lock()
		l.inner = loaded
		l.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(relevanceout.Embedder), nil
}

func (l *LazyEmbedder) Close() error {
	l.mu.Lock()
	inner := l.inner
	l.inner = nil
	l.mu.Unlock()
	if closer, ok := inner.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
