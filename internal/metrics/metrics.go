package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ncertrag"

// Section outcome labels.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusEmpty   = "empty"
)

// Pipeline holds the collectors of the chunking pipeline. A nil *Pipeline is valid and records nothing.
type Pipeline struct {
	sections         *prometheus.CounterVec
	chunks           prometheus.Counter
	validationFailed prometheus.Counter
	hintFallbacks    *prometheus.CounterVec
	degraded         prometheus.Counter
	sectionSeconds   prometheus.Histogram
	embedSeconds     prometheus.Histogram
	cacheLookups     *prometheus.CounterVec
}

// New registers the pipeline collectors with reg, or with the default registerer when reg is nil.
func New(reg prometheus.Registerer) *Pipeline {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Pipeline{
		sections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sections_processed_total",
			Help:      "Sections processed, by outcome.",
		}, []string{"status"}),
		chunks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_emitted_total",
			Help:      "Holistic chunks emitted.",
		}),
		validationFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Chunks that did not pass quality validation.",
		}),
		hintFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hint_fallbacks_total",
			Help:      "AI hint calls that failed and fell back to rule-based extraction.",
		}, []string{"provider"}),
		degraded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_degraded_total",
			Help:      "Element boundaries that fell back to the hard length cap.",
		}),
		sectionSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "section_processing_seconds",
			Help:      "Time spent chunking one section.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		embedSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_batch_seconds",
			Help:      "Time spent embedding the chunks of one document.",
			Buckets:   prometheus.DefBuckets,
		}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups, by result.",
		}, []string{"result"}),
	}
}

func (p *Pipeline) SectionProcessed(status string, elapsed time.Duration) {
	if p == nil {
		return
	}
	p.sections.WithLabelValues(status).Inc()
	p.sectionSeconds.Observe(elapsed.Seconds())
}

func (p *Pipeline) ChunksEmitted(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.chunks.Add(float64(n))
}

func (p *Pipeline) ValidationFailed() {
	if p == nil {
		return
	}
	p.validationFailed.Inc()
}

func (p *Pipeline) HintFallback(provider string) {
	if p == nil {
		return
	}
	p.hintFallbacks.WithLabelValues(provider).Inc()
}

func (p *Pipeline) BoundaryDegraded() {
	if p == nil {
		return
	}
	p.degraded.Inc()
}

func (p *Pipeline) EmbeddingBatch(elapsed time.Duration) {
	if p == nil {
		return
	}
	p.embedSeconds.Observe(elapsed.Seconds())
}

// EmbeddingCache counts cache hits and misses.
func (p *Pipeline) EmbeddingCache(hits, misses int) {
	if p == nil {
		return
	}
	if hits > 0 {
		p.cacheLookups.WithLabelValues("hit").Add(float64(hits))
	}
	if misses > 0 {
		p.cacheLookups.WithLabelValues("miss").Add(float64(misses))
	}
}
