package hints

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
	"ncertrag/internal/metrics"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) complete(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestDecodeReply(t *testing.T) {
	cases := []struct {
		name  string
		reply string
		want  []string
		err   error
	}{
		{"plain", `{"main_concepts":["Force"]}`, []string{"Force"}, nil},
		{"fenced", "Here you go:\n```json\n{\"main_concepts\": [\"Inertia\"]}\n```", []string{"Inertia"}, nil},
		{"no object", "I cannot help with that.", nil, ErrNoJSON},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v struct {
				MainConcepts []string `json:"main_concepts"`
			}
			err := decodeReply(tc.reply, &v)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, v.MainConcepts)
		})
	}
}

func TestExtractConcepts(t *testing.T) {
	llm := &fakeLLM{reply: `{"main_concepts": [" Friction ", ""], "sub_concepts": ["static friction"],
		"concept_relationships": [{"from": "force", "to": "friction", "relation": "prerequisite"}],
		"educational_context": {"examples": ["rubbing hands"], "applications": ["ball bearings"]}}`}
	p := &LLMProvider{name: "fake", llm: llm}

	got, err := p.ExtractConcepts(context.Background(), "Friction opposes motion.", "physics", 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"Friction"}, got.MainConcepts)
	assert.Equal(t, []string{"static friction"}, got.SubConcepts)
	assert.Equal(t, []string{"ball bearings", "rubbing hands"}, got.EducationalContext)
	require.Len(t, got.ConceptRelationships, 1)
	assert.Equal(t, "prerequisite", got.ConceptRelationships[0].Relation)
	assert.Contains(t, llm.prompts[0], "Grade: 9")
}

func TestDetectBoundariesDropsInvalidUnits(t *testing.T) {
	text := strings.Repeat("a", 100)
	llm := &fakeLLM{reply: `{"learning_units": [
		{"start": 50, "end": 100, "type": "example"},
		{"start": 0, "end": 50, "type": "activity"},
		{"start": 90, "end": 400, "type": "bogus"},
		{"start": 30, "end": 30, "type": "empty"}]}`}
	p := &LLMProvider{name: "fake", llm: llm}

	got, err := p.DetectBoundaries(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, got.LearningUnits, 2)
	assert.Equal(t, "activity", got.LearningUnits[0].Type)
	assert.Equal(t, "example", got.LearningUnits[1].Type)
}

func TestClipKeepsRunesWhole(t *testing.T) {
	p := &LLMProvider{maxInput: 4}
	assert.Equal(t, "ab", p.clip("abगति"))
	assert.Equal(t, "abc", (&LLMProvider{}).clip("abc"))
}

func hintFallbacks(t *testing.T, reg *prometheus.Registry, provider string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "ncertrag_hint_fallbacks_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "provider" && l.GetValue() == provider {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestGuardWrapsFailures(t *testing.T) {
	boom := errors.New("boom")
	reg := prometheus.NewRegistry()
	g := NewGuard(&LLMProvider{name: "fake", llm: &fakeLLM{err: boom}}, GuardConfig{Timeout: time.Second}, metrics.New(reg), nil)

	_, err := g.ExtractConcepts(context.Background(), "text", "physics", 9)
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.ErrorIs(t, err, boom)

	_, err = g.DetectBoundaries(context.Background(), "text")
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Equal(t, 2.0, hintFallbacks(t, reg, "fake"))
}

func TestGuardBreakerStopsCallingFailingProvider(t *testing.T) {
	llm := &fakeLLM{err: errors.New("503 overloaded")}
	reg := prometheus.NewRegistry()
	g := NewGuard(&LLMProvider{name: "flaky", llm: llm, maxInput: 100}, GuardConfig{
		Timeout:   time.Second,
		TripAfter: 2,
		Cooldown:  time.Hour,
	}, metrics.New(reg), nil)

	for i := 0; i < 4; i++ {
		_, err := g.ExtractConcepts(context.Background(), "text", "physics", 9)
		assert.ErrorIs(t, err, domain.ErrExternalService)
		if i >= 2 {
			assert.ErrorIs(t, err, gobreaker.ErrOpenState)
		}
	}
	assert.Len(t, llm.prompts, 2)
	assert.Equal(t, 4.0, hintFallbacks(t, reg, "flaky"))
}

type slowProvider struct{ Noop }

func (slowProvider) Name() string { return "slow" }

func (slowProvider) ExtractConcepts(ctx context.Context, _, _ string, _ int) (domain.ConceptHints, error) {
	<-ctx.Done()
	return domain.ConceptHints{}, ctx.Err()
}

func TestGuardTimesOut(t *testing.T) {
	g := NewGuard(slowProvider{}, GuardConfig{Timeout: 20 * time.Millisecond}, nil, nil)
	start := time.Now()
	_, err := g.ExtractConcepts(context.Background(), "text", "physics", 9)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Less(t, time.Since(start), time.Second)
}

func TestGuardRateLimitHonoursContext(t *testing.T) {
	g := NewGuard(Noop{}, GuardConfig{Timeout: 50 * time.Millisecond, RatePerSecond: 0.001, Burst: 1}, nil, nil)
	_, err := g.ExtractConcepts(context.Background(), "a", "physics", 9)
	require.NoError(t, err)
	_, err = g.ExtractConcepts(context.Background(), "b", "physics", 9)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestNoopProposesNothing(t *testing.T) {
	h, err := Noop{}.ExtractConcepts(context.Background(), "Friction.", "physics", 9)
	require.NoError(t, err)
	assert.Empty(t, h.MainConcepts)
	b, err := Noop{}.DetectBoundaries(context.Background(), "Friction.")
	require.NoError(t, err)
	assert.Empty(t, b.LearningUnits)
}

func TestClaudeProviderOverHTTP(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content":     []map[string]any{{"type": "text", "text": `{"main_concepts": ["Inertia"]}`}},
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 5},
		})
	}))
	defer srv.Close()

	p, err := NewClaude(ClaudeConfig{APIKey: "test-key", Model: "claude-test", BaseURL: srv.URL})
	require.NoError(t, err)
	h, err := p.ExtractConcepts(context.Background(), "Inertia is resistance to change.", "physics", 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"Inertia"}, h.MainConcepts)
	assert.Equal(t, "claude-test", got["model"])
	assert.Equal(t, "claude", p.Name())
}

func TestProvidersRequireKeys(t *testing.T) {
	_, err := NewClaude(ClaudeConfig{})
	assert.Error(t, err)
	_, err = NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}
