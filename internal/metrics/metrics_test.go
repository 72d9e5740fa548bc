package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPipelineCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := New(reg)

	p.SectionProcessed(StatusOK, 10*time.Millisecond)
	p.SectionProcessed(StatusOK, 20*time.Millisecond)
	p.SectionProcessed(StatusSkipped, time.Millisecond)
	p.ChunksEmitted(3)
	p.ChunksEmitted(0)
	p.ValidationFailed()
	p.HintFallback("claude")
	p.BoundaryDegraded()
	p.EmbeddingBatch(time.Second)
	p.EmbeddingCache(4, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.sections.WithLabelValues(StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.sections.WithLabelValues(StatusSkipped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(p.chunks))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.validationFailed))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.hintFallbacks.WithLabelValues("claude")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.degraded))
	assert.Equal(t, 1, testutil.CollectAndCount(p.sectionSeconds))
	assert.Equal(t, 4.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("miss")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestNilPipelineIsNoop(t *testing.T) {
	var p *Pipeline
	assert.NotPanics(t, func() {
		p.SectionProcessed(StatusOK, time.Second)
		p.ChunksEmitted(1)
		p.ValidationFailed()
		p.HintFallback("gemini")
		p.BoundaryDegraded()
		p.EmbeddingBatch(time.Second)
		p.EmbeddingCache(1, 1)
	})
}
