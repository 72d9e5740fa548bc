// Package cache memoises embeddings by embedder, vocabulary and text.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"ncertrag/internal/domain"
	"ncertrag/internal/logger"
	"ncertrag/internal/metrics"
)

// Store holds cached vectors. A miss is reported as ok == false with a nil error.
type Store interface {
	Get(ctx context.Context, key string) (vec []float64, ok bool, err error)
	Set(ctx context.Context, key string, vec []float64) error
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]float64
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]float64)}
}

func (m *Memory) Get(_ context.Context, key string) ([]float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), v...), true, nil
}

func (m *Memory) Set(_ context.Context, key string, vec []float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = append([]float64(nil), vec...)
	return nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// fingerprinter is implemented by embedders whose output depends on a prepared corpus.
type fingerprinter interface {
	Fingerprint() string
}

// Embedder wraps a domain.Embedder with a cache. Cache failures are logged and bypassed.
type Embedder struct {
	inner   domain.Embedder
	store   Store
	prefix  string
	log     *logger.Logger
	metrics *metrics.Pipeline
}

// Wrap returns inner with lookups served from store first.
func Wrap(inner domain.Embedder, store Store, prefix string, log *logger.Logger, m *metrics.Pipeline) *Embedder {
	if log == nil {
		log = logger.NewNop()
	}
	if prefix == "" {
		prefix = "ncertrag:emb:"
	}
	return &Embedder{inner: inner, store: store, prefix: prefix, log: log.With("component", "embedding-cache"), metrics: m}
}

func (e *Embedder) Name() string                  { return e.inner.Name() }
func (e *Embedder) Prepare(corpus []string) error { return e.inner.Prepare(corpus) }
func (e *Embedder) Dimension() int                { return e.inner.Dimension() }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch serves cached vectors and embeds only the misses, in one inner batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	keys := make([]string, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		keys[i] = e.Key(t)
		vec, ok, err := e.store.Get(ctx, keys[i])
		if err != nil {
			e.log.Warn("cache lookup failed", "error", err)
		}
		if ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	e.metrics.EmbeddingCache(len(texts)-len(missIdx), len(missIdx))
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := e.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embedder %s returned %d vectors for %d texts", e.inner.Name(), len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := e.store.Set(ctx, keys[i], vecs[j]); err != nil {
			e.log.Warn("cache store failed", "error", err)
		}
	}
	return out, nil
}

// Key scopes the text hash by embedder name and, when available, its vocabulary fingerprint.
func (e *Embedder) Key(text string) string {
	scope := e.inner.Name()
	if f, ok := e.inner.(fingerprinter); ok {
		scope += ":" + f.Fingerprint()
	}
	sum := sha1.Sum([]byte(text))
	return e.prefix + scope + ":" + hex.EncodeToString(sum[:])
}
