package quality

import (
	"sort"
	"strings"

	"ncertrag/internal/domain"
)

var metricAdvice = map[string]string{
	MetricContentCompleteness:  "Improve boundary detection to prevent content truncation",
	MetricConceptQuality:       "Enhance concept extraction with better filtering",
	MetricApplicationQuality:   "Improve application extraction and cleaning",
	MetricMetadataRichness:     "Increase metadata coverage and depth",
	MetricEducationalSoundness: "Keep activities and examples together with their learning outcome",
	MetricSentenceCompleteness: "Split chunks only at sentence boundaries",
	MetricContentCoherence:     "Remove repeated lines and keep elements in source order",
}

func (v *Validator) recommendations(metrics []string, scores map[string]float64, issues []string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(r string) {
		if _, ok := seen[r]; ok || r == "" {
			return
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, m := range metrics {
		if scores[m] < v.Threshold(m) {
			add(metricAdvice[m])
		}
	}
	var truncated, concept bool
	for _, is := range issues {
		lower := strings.ToLower(is)
		truncated = truncated || strings.Contains(lower, "truncat")
		concept = concept || strings.Contains(lower, "concept")
	}
	if truncated {
		add("Review and fix boundary detection algorithms")
	}
	if concept {
		add("Refine concept extraction with domain-specific patterns")
	}
	return out
}

// Report aggregates validation results over many chunks.
type Report struct {
	Grade         string             `json:"overall_grade"`
	OverallScore  float64            `json:"overall_score"`
	PassRate      float64            `json:"pass_rate"`
	AverageScores map[string]float64 `json:"avg_scores"`
	Total         int                `json:"total"`
	Passed        int                `json:"passed"`
	// Weakest lists metrics whose average is below threshold, lowest first.
	Weakest []string `json:"weakest,omitempty"`
}

// grades are checked in order; the first whose bounds are met wins.
var grades = []struct {
	grade    string
	minScore float64
	minPass  float64
}{
	{"A+", 0.9, 0.9},
	{"A", 0.85, 0.8},
	{"B+", 0.8, 0.7},
	{"B", 0.75, 0.6},
	{"C", 0.7, 0.5},
}

// SystemReport grades the pipeline from a set of validation results.
func (v *Validator) SystemReport(results []domain.ValidationResult) Report {
	if len(results) == 0 {
		return Report{Grade: "F", AverageScores: map[string]float64{}}
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	passed := 0
	for _, r := range results {
		for m, s := range r.IndividualScores {
			sums[m] += s
			counts[m]++
		}
		if r.Passed {
			passed++
		}
	}
	avg := make(map[string]float64, len(sums))
	names := make([]string, 0, len(sums))
	total := 0.0
	for m, s := range sums {
		avg[m] = round3(s / float64(counts[m]))
		names = append(names, m)
		total += avg[m]
	}
	rep := Report{
		AverageScores: avg,
		Total:         len(results),
		Passed:        passed,
		PassRate:      round3(float64(passed) / float64(len(results))),
		Grade:         "F",
	}
	if len(avg) > 0 {
		rep.OverallScore = round3(total / float64(len(avg)))
	}
	for _, g := range grades {
		if rep.OverallScore >= g.minScore && rep.PassRate >= g.minPass {
			rep.Grade = g.grade
			break
		}
	}

	sort.Strings(names)
	for _, m := range names {
		if avg[m] < v.Threshold(m) {
			rep.Weakest = append(rep.Weakest, m)
		}
	}
	sort.SliceStable(rep.Weakest, func(i, j int) bool { return avg[rep.Weakest[i]] < avg[rep.Weakest[j]] })
	return rep
}
