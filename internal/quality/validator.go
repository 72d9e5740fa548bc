package quality

import (
	"math"

	"ncertrag/internal/domain"
)

// Metric names reported in ValidationResult.IndividualScores.
const (
	MetricContentCompleteness  = "content_completeness"
	MetricConceptQuality       = "concept_quality"
	MetricApplicationQuality   = "application_quality"
	MetricMetadataRichness     = "metadata_richness"
	MetricEducationalSoundness = "educational_soundness"
	MetricSentenceCompleteness = "sentence_completeness"
	MetricContentCoherence     = "content_coherence"
)

// Metrics lists the built-in metrics in the order they are run.
var Metrics = []string{
	MetricContentCompleteness,
	MetricConceptQuality,
	MetricApplicationQuality,
	MetricMetadataRichness,
	MetricEducationalSoundness,
	MetricSentenceCompleteness,
	MetricContentCoherence,
}

// Config holds thresholds and penalty weights for the validator.
type Config struct {
	Thresholds       map[string]float64 `yaml:"thresholds"`
	Critical         []string           `yaml:"critical"`
	OverallThreshold float64            `yaml:"overall_threshold"`
	// DefaultThreshold applies to metrics missing from Thresholds.
	DefaultThreshold float64   `yaml:"default_threshold"`
	Penalties        Penalties `yaml:"penalties"`
	MinContentLength int       `yaml:"min_content_length"`
	// SubjectTerms maps a subject to the terms a relevant concept should mention.
	SubjectTerms map[string][]string `yaml:"subject_terms"`
	// MinRelevance is the share of concepts that must mention a subject term.
	MinRelevance float64 `yaml:"min_relevance"`
}

// Penalties are the score deductions applied by the built-in checks.
type Penalties struct {
	Truncated        float64 `yaml:"truncated"`
	TruncationPhrase float64 `yaml:"truncation_phrase"`
	ShortContent     float64 `yaml:"short_content"`
	Degraded         float64 `yaml:"degraded"`
	BadConcepts      float64 `yaml:"bad_concepts"`
	LowRelevance     float64 `yaml:"low_relevance"`
	NoApplications   float64 `yaml:"no_applications"`
	BadApplications  float64 `yaml:"bad_applications"`
	MissingField     float64 `yaml:"missing_field"`
	ThinMetadata     float64 `yaml:"thin_metadata"`
	NoElements       float64 `yaml:"no_elements"`
	SingleElement    float64 `yaml:"single_element"`
	NoOutcome        float64 `yaml:"no_outcome"`
	BadSentences     float64 `yaml:"bad_sentences"`
	Repetition       float64 `yaml:"repetition"`
	Disorder         float64 `yaml:"disorder"`
}

func DefaultConfig() Config {
	return Config{
		Thresholds: map[string]float64{
			MetricContentCompleteness:  0.95,
			MetricConceptQuality:       0.85,
			MetricApplicationQuality:   0.80,
			MetricMetadataRichness:     0.90,
			MetricEducationalSoundness: 0.85,
			MetricSentenceCompleteness: 0.95,
			MetricContentCoherence:     0.80,
		},
		Critical:         []string{MetricContentCompleteness, MetricSentenceCompleteness},
		OverallThreshold: 0.8,
		DefaultThreshold: 0.8,
		Penalties: Penalties{
			Truncated:        0.3,
			TruncationPhrase: 0.2,
			ShortContent:     0.1,
			Degraded:         0.2,
			BadConcepts:      0.2,
			LowRelevance:     0.3,
			NoApplications:   0.7,
			BadApplications:  0.3,
			MissingField:     0.1,
			ThinMetadata:     0.1,
			NoElements:       0.3,
			SingleElement:    0.1,
			NoOutcome:        0.2,
			BadSentences:     0.1,
			Repetition:       0.1,
			Disorder:         0.1,
		},
		MinContentLength: 500,
		SubjectTerms: map[string][]string{
			"physics": {
				"motion", "force", "velocity", "acceleration", "distance", "displacement",
				"speed", "time", "mass", "energy", "power", "work", "pressure",
				"scalar", "vector", "position", "rest",
			},
		},
		MinRelevance: 0.3,
	}
}

// CheckFunc scores one aspect of a chunk in 0..1 and explains any deductions.
type CheckFunc func(chunk domain.HolisticChunk) (score float64, issues []string)

// Check binds a CheckFunc to the metric name it reports.
type Check struct {
	Metric string
	Run    CheckFunc
}

// Validator runs a battery of checks over finished chunks.
type Validator struct {
	cfg    Config
	checks []Check
}

// NewValidator creates a validator. When checks is empty the built-in battery is used.
func NewValidator(cfg Config, checks ...Check) *Validator {
	def := DefaultConfig()
	if cfg.Thresholds == nil {
		cfg.Thresholds = def.Thresholds
	}
	if cfg.Critical == nil {
		cfg.Critical = def.Critical
	}
	if cfg.OverallThreshold <= 0 {
		cfg.OverallThreshold = def.OverallThreshold
	}
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = def.DefaultThreshold
	}
	if cfg.Penalties == (Penalties{}) {
		cfg.Penalties = def.Penalties
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = def.MinContentLength
	}
	if cfg.SubjectTerms == nil {
		cfg.SubjectTerms = def.SubjectTerms
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = def.MinRelevance
	}
	v := &Validator{cfg: cfg, checks: checks}
	if len(v.checks) == 0 {
		v.checks = DefaultChecks(cfg)
	}
	return v
}

// Threshold returns the pass threshold of metric.
func (v *Validator) Threshold(metric string) float64 {
	if t, ok := v.cfg.Thresholds[metric]; ok {
		return t
	}
	return v.cfg.DefaultThreshold
}

// Validate scores chunk. A failed validation is a normal result, not an error.
func (v *Validator) Validate(chunk domain.HolisticChunk) domain.ValidationResult {
	res := domain.ValidationResult{IndividualScores: make(map[string]float64, len(v.checks))}
	metrics := make([]string, 0, len(v.checks))
	sum := 0.0
	for _, c := range v.checks {
		score, issues := c.Run(chunk)
		score = clamp01(score)
		res.IndividualScores[c.Metric] = score
		res.Issues = append(res.Issues, issues...)
		metrics = append(metrics, c.Metric)
		sum += score
	}
	if len(v.checks) > 0 {
		res.OverallScore = round3(sum / float64(len(v.checks)))
	}
	res.Recommendations = v.recommendations(metrics, res.IndividualScores, res.Issues)
	res.Passed = v.passed(res)
	return res
}

func (v *Validator) passed(res domain.ValidationResult) bool {
	for _, m := range v.cfg.Critical {
		score, ok := res.IndividualScores[m]
		if !ok || score < v.Threshold(m) {
			return false
		}
	}
	return res.OverallScore >= v.cfg.OverallThreshold
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
