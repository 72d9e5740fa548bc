package quality

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

const goodContent = "Motion is all around us. A ball rolling down a slope changes its position with time. " +
	"In this section we describe motion using distance and speed.\n\n" +
	"ACTIVITY 7.1\nRoll a ball down a ramp and measure the distance it covers every second. Record the readings in a table.\n" +
	"From this activity, we learn that the ball speeds up as it rolls down.\n\n" +
	"Example 7.1\nA car covers 100 m in 5 s. Find its speed.\nSolution: Speed = 100 m / 5 s = 20 m/s.\n\n" +
	"What you have learnt\n• Motion is a change of position with time.\n• Speed tells us how fast an object moves."

func goodChunk() domain.HolisticChunk {
	return domain.HolisticChunk{
		ChunkID: "contextual_7.1_001",
		Content: goodContent,
		Metadata: domain.Metadata{
			BasicInfo:          domain.BasicInfo{GradeLevel: 9, Subject: "physics", Chapter: 7, Section: "7.1"},
			ContentComposition: domain.ContentComposition{ActivityCount: 1, ExampleCount: 1},
			ConceptsAndSkills: domain.ConceptsAndSkills{
				MainConcepts:    []string{"motion", "speed", "distance"},
				SkillsDeveloped: []string{"observation", "calculation"},
			},
			EducationalContext: domain.EducationalContext{
				RealWorldApplications: []string{"Speedometers in cars display the instantaneous speed."},
			},
		},
	}
}

func TestValidateGoodChunkPasses(t *testing.T) {
	res := NewValidator(DefaultConfig()).Validate(goodChunk())
	assert.True(t, res.Passed, res.Issues)
	assert.Equal(t, 1.0, res.OverallScore)
	assert.Len(t, res.IndividualScores, len(Metrics))
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Recommendations)
}

func fixed(metric string, score float64) Check {
	return Check{Metric: metric, Run: func(domain.HolisticChunk) (float64, []string) { return score, nil }}
}

func TestCriticalMetricsGatePassing(t *testing.T) {
	v := NewValidator(DefaultConfig(),
		fixed(MetricContentCompleteness, 0.5),
		fixed(MetricConceptQuality, 1),
		fixed(MetricApplicationQuality, 1),
		fixed(MetricMetadataRichness, 1),
		fixed(MetricEducationalSoundness, 1),
		fixed(MetricSentenceCompleteness, 0.5),
		fixed(MetricContentCoherence, 1),
	)
	res := v.Validate(goodChunk())
	assert.InDelta(t, 6.0/7.0, res.OverallScore, 0.001)
	assert.GreaterOrEqual(t, res.OverallScore, 0.8)
	assert.False(t, res.Passed)
	assert.Contains(t, res.Recommendations, "Improve boundary detection to prevent content truncation")
}

func TestOverallThresholdGatesPassing(t *testing.T) {
	v := NewValidator(DefaultConfig(),
		fixed(MetricContentCompleteness, 1),
		fixed(MetricSentenceCompleteness, 1),
		fixed(MetricConceptQuality, 0.2),
		fixed(MetricApplicationQuality, 0.2),
	)
	res := v.Validate(goodChunk())
	assert.InDelta(t, 0.6, res.OverallScore, 1e-9)
	assert.False(t, res.Passed)
}

func TestMissingCriticalMetricFails(t *testing.T) {
	v := NewValidator(DefaultConfig(), fixed(MetricConceptQuality, 1))
	assert.False(t, v.Validate(goodChunk()).Passed)

	cfg := DefaultConfig()
	cfg.Critical = []string{}
	assert.True(t, NewValidator(cfg, fixed(MetricConceptQuality, 1)).Validate(goodChunk()).Passed)
}

func TestContentCompleteness(t *testing.T) {
	p := DefaultConfig().Penalties
	cases := []struct {
		name     string
		chunk    domain.HolisticChunk
		want     float64
		truncMsg bool
	}{
		{"complete", goodChunk(), 1, false},
		{"short cut conclusion", domain.HolisticChunk{Content: "From this activity, we learn that"}, 0.4, true},
		{"natural ending heading", domain.HolisticChunk{Content: strings.Repeat("x", 500) + "\n\nQuestions"}, 1, false},
		{"degraded boundary", func() domain.HolisticChunk { c := goodChunk(); c.BoundaryDegraded = true; return c }(), 0.8, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, issues := contentCompleteness(tc.chunk, p, 500)
			assert.InDelta(t, tc.want, score, 1e-9)
			joined := strings.Join(issues, "\n")
			assert.Equal(t, tc.truncMsg, strings.Contains(joined, "truncat"), joined)
		})
	}
}

func TestConceptQuality(t *testing.T) {
	cfg := DefaultConfig()
	chunk := goodChunk()

	chunk.Metadata.ConceptsAndSkills.MainConcepts = nil
	score, issues := conceptQuality(chunk, cfg.Penalties, cfg.SubjectTerms, cfg.MinRelevance)
	assert.Equal(t, 0.0, score)
	assert.Equal(t, []string{"No main concepts extracted"}, issues)

	chunk.Metadata.ConceptsAndSkills.MainConcepts = []string{"the", "motion", "ab"}
	score, _ = conceptQuality(chunk, cfg.Penalties, cfg.SubjectTerms, cfg.MinRelevance)
	assert.InDelta(t, 1-0.2*2.0/3.0, score, 1e-9)

	chunk.Metadata.ConceptsAndSkills.MainConcepts = []string{"Rainbow", "Prism", "Mirror", "Force"}
	score, issues = conceptQuality(chunk, cfg.Penalties, cfg.SubjectTerms, cfg.MinRelevance)
	assert.InDelta(t, 0.7, score, 1e-9)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "Low physics relevance")

	chunk.Metadata.BasicInfo.Subject = "chemistry"
	score, _ = conceptQuality(chunk, cfg.Penalties, cfg.SubjectTerms, cfg.MinRelevance)
	assert.Equal(t, 1.0, score)
}

func TestApplicationQuality(t *testing.T) {
	p := DefaultConfig().Penalties
	chunk := goodChunk()

	chunk.Metadata.EducationalContext.RealWorldApplications = nil
	score, _ := applicationQuality(chunk, p)
	assert.InDelta(t, 0.3, score, 1e-9)

	chunk.Metadata.EducationalContext.RealWorldApplications = []string{
		"d today we use friction in brakes.",
		"short.",
		"Ball bearings reduce friction in machines.",
		"Tyres grip the road because of friction",
	}
	score, issues := applicationQuality(chunk, p)
	assert.InDelta(t, 1-0.3*3.0/4.0, score, 1e-9)
	assert.Equal(t, "Found 3 poor quality applications", issues[0])
	assert.Len(t, issues, 4)
}

func TestMetadataRichness(t *testing.T) {
	p := DefaultConfig().Penalties
	score, issues := metadataRichness(goodChunk(), p)
	assert.Equal(t, 1.0, score)
	assert.Empty(t, issues)

	bare := domain.HolisticChunk{Metadata: domain.Metadata{BasicInfo: domain.BasicInfo{GradeLevel: 9, Subject: "physics", Chapter: 7}}}
	score, issues = metadataRichness(bare, p)
	assert.InDelta(t, 0.3, score, 1e-9)
	assert.Contains(t, issues[0], "content_composition.activity_count")
}

func TestEducationalSoundness(t *testing.T) {
	p := DefaultConfig().Penalties
	cases := map[string]float64{
		goodContent:                              1,
		"Plain prose about motion.":              0.7,
		"ACTIVITY 7.2\nRoll the ball.":           0.7,
		"Activity 7.2\nRoll it and learn why.":   0.9,
		"Example 7.3\nSolve.\n\nSummary\nDone.": 1,
	}
	for content, want := range cases {
		score, _ := educationalSoundness(domain.HolisticChunk{Content: content}, p)
		assert.InDelta(t, want, score, 1e-9, content)
	}
}

func TestSentenceCompleteness(t *testing.T) {
	p := DefaultConfig().Penalties
	score, issues := sentenceCompleteness(domain.HolisticChunk{Content: "The ball rolls. then it stops. and it rests."}, p)
	assert.InDelta(t, 1-0.1/4, score, 1e-9)
	assert.Equal(t, []string{"Found 1 potentially incomplete sentences"}, issues)

	score, issues = sentenceCompleteness(domain.HolisticChunk{Content: goodContent}, p)
	assert.Equal(t, 1.0, score)
	assert.Empty(t, issues)
}

func TestContentCoherence(t *testing.T) {
	p := DefaultConfig().Penalties
	inverted := "Example 7.1\nSolve it.\n\nActivity 7.1\nDo it."
	score, issues := contentCoherence(domain.HolisticChunk{Content: inverted}, p)
	assert.InDelta(t, 0.9, score, 1e-9)
	assert.Equal(t, []string{"Educational flow issue: Example appears before Activity"}, issues)

	repeated := strings.Repeat("The ball rolls down the slope.\n", 3)
	score, _ = contentCoherence(domain.HolisticChunk{Content: repeated}, p)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestRecommendationsForIssues(t *testing.T) {
	chunk := goodChunk()
	chunk.Metadata.ConceptsAndSkills.MainConcepts = []string{"a"}
	chunk.BoundaryDegraded = true
	res := NewValidator(DefaultConfig()).Validate(chunk)
	assert.Contains(t, res.Recommendations, "Review and fix boundary detection algorithms")
	assert.Contains(t, res.Recommendations, "Refine concept extraction with domain-specific patterns")
	assert.Contains(t, res.Recommendations, "Enhance concept extraction with better filtering")
	assert.False(t, res.Passed)
}

func TestThresholdFallsBackToDefault(t *testing.T) {
	v := NewValidator(Config{})
	assert.Equal(t, 0.95, v.Threshold(MetricContentCompleteness))
	assert.Equal(t, 0.8, v.Threshold("custom_metric"))
}

func TestSystemReport(t *testing.T) {
	v := NewValidator(DefaultConfig())
	result := func(score float64, passed bool) domain.ValidationResult {
		return domain.ValidationResult{
			IndividualScores: map[string]float64{MetricContentCompleteness: score, MetricConceptQuality: score},
			Passed:           passed,
		}
	}

	assert.Equal(t, "F", v.SystemReport(nil).Grade)

	cases := []struct {
		name    string
		results []domain.ValidationResult
		grade   string
	}{
		{"excellent", []domain.ValidationResult{result(0.95, true), result(0.95, true)}, "A+"},
		{"good", []domain.ValidationResult{result(0.9, true), result(0.86, true), result(0.85, true), result(0.84, true), result(0.8, false)}, "A"},
		{"half passing", []domain.ValidationResult{result(0.8, true), result(0.7, false)}, "C"},
		{"failing", []domain.ValidationResult{result(0.4, false)}, "F"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.grade, v.SystemReport(tc.results).Grade)
		})
	}

	rep := v.SystemReport([]domain.ValidationResult{result(0.9, true), result(0.5, false)})
	assert.Equal(t, 2, rep.Total)
	assert.Equal(t, 1, rep.Passed)
	assert.Equal(t, 0.5, rep.PassRate)
	assert.Equal(t, 0.7, rep.AverageScores[MetricConceptQuality])
	assert.Equal(t, []string{MetricConceptQuality, MetricContentCompleteness}, rep.Weakest)
}
