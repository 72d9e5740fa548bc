package tfidf

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"

	"ncertrag/internal/embedding"
	"ncertrag/internal/textutil"
)

// Embedder implements a TF-IDF vectorizer over stemmed content words.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	mu          sync.RWMutex
	vocabulary  map[string]int
	idf         []float64
	dimension   int
	prepared    bool
	fingerprint string
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder() *Embedder {
	return &Embedder{vocabulary: make(map[string]int)}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; ensure tokenizer supports your language")
	}

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	h := sha1.New()
	N := float64(len(corpus))
	for i, term := range terms {
		vocab[term] = i
		// Smoothed IDF
		idf[i] = math.Log((1+N)/(1+float64(df[term]))) + 1.0
		h.Write([]byte(term + ":" + strconv.Itoa(df[term]) + "\n"))
	}
	h.Write([]byte(strconv.Itoa(len(corpus))))

	e.mu.Lock()
	defer e.mu.Unlock()
	e.vocabulary = vocab
	e.idf = idf
	e.dimension = len(terms)
	e.fingerprint = hex.EncodeToString(h.Sum(nil)[:8])
	e.prepared = true
	return nil
}

// Dimension returns the dimensionality of the produced embedding vectors.
func (e *Embedder) Dimension() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dimension
}

// Fingerprint identifies the prepared vocabulary, so cached vectors from another corpus are not reused.
func (e *Embedder) Fingerprint() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fingerprint
}

// Embed computes the L2-normalised TF-IDF embedding for the given text.
func (e *Embedder) Embed(_ context.Context, text string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.prepared {
		return nil, errors.New("tfidf embedder not prepared")
	}
	vec := make([]float64, e.dimension)
	tf := make(map[int]int)
	total := 0
	for _, tok := range tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	embedding.Normalize(vec)
	return vec, nil
}

// EmbedBatch embeds locally; there is no per-call cost to amortise.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return embedding.EmbedEach(ctx, e, texts)
}

func tokenize(text string) []string {
	toks := textutil.ContentTokens(text)
	for i, t := range toks {
		toks[i] = textutil.Stem(t)
	}
	return toks
}
