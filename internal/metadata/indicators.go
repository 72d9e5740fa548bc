package metadata

import (
	"regexp"
	"strconv"
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

var (
	outcomePhrase   = regexp.MustCompile(`(?i)\b(?:we (?:learn|learnt|conclude|observe|find) that|from this activity|this shows that|you will be able to|learning (?:objectives?|outcomes?)|what you have learnt|therefore|hence|thus)\b`)
	solutionCue     = regexp.MustCompile(`(?i)\b(?:solution|answer|ans\.)|=`)
	activityMention = regexp.MustCompile(`(?i)\b(?:activit(?:y|ies)|let us (?:do|perform|try))\b`)
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func indicators(unit domain.LearningUnit, content, source string, comp domain.ContentComposition, hasConcepts bool) domain.QualityIndicators {
	return domain.QualityIndicators{
		Completeness:         completeness(unit, content, source),
		Coherence:            coherence(unit, content, comp),
		PedagogicalSoundness: soundness(content, comp, hasConcepts),
	}
}

// completeness penalises signs that the unit was cut short.
func completeness(unit domain.LearningUnit, content, source string) float64 {
	score := 1.0
	if !textutil.EndsComplete(content) && !endsWithHeading(content) {
		score -= 0.3
	}
	if unit.Degraded() {
		score -= 0.2
	}
	if unit.End <= len(source) && textutil.SplitsWord(source, unit.End) {
		score -= 0.3
	}
	for _, seg := range unit.Segments {
		switch seg.Type {
		case domain.ElementExample:
			if !solutionCue.MatchString(seg.Text) {
				score -= 0.1
			}
		case domain.ElementActivity:
			if !strings.Contains(strings.TrimSpace(seg.Text), "\n") && len(textutil.Split(seg.Text)) < 2 {
				score -= 0.1
			}
		}
	}
	return clamp01(score)
}

// endsWithHeading accepts a closing block heading such as "Questions" as a natural end.
func endsWithHeading(content string) bool {
	t := strings.TrimSpace(content)
	i := strings.LastIndexByte(t, '\n')
	last := strings.TrimSpace(t[i+1:])
	switch strings.ToLower(last) {
	case "questions", "exercises", "summary", "key points", "what you have learnt":
		return true
	}
	return false
}

// coherence rewards units that introduce their activities and penalises repetition and disorder.
func coherence(unit domain.LearningUnit, content string, comp domain.ContentComposition) float64 {
	score := 0.85
	if len(unit.Segments) > 0 && unit.Segments[0].Type == domain.ElementProse && comp.ActivityCount > 0 {
		refs := len(activityMention.FindAllStringIndex(unit.Segments[0].Text, -1))
		if refs > 2 {
			refs = 2
		}
		score += 0.05 * float64(refs)
	}
	if comp.ActivityCount > 0 && comp.ExampleCount > 0 {
		score += 0.05
	}
	score -= 0.5 * duplicateLineRatio(content)
	score -= 0.15 * float64(inversions(unit))
	return clamp01(score)
}

func duplicateLineRatio(content string) float64 {
	counts := map[string]int{}
	total := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 {
			continue
		}
		counts[line]++
		total++
	}
	if total == 0 {
		return 0
	}
	dup := 0
	for _, c := range counts {
		if c > 1 {
			dup += c - 1
		}
	}
	return float64(dup) / float64(total)
}

// inversions counts adjacent same-type elements whose numbers run backwards, and
// examples that precede the activity carrying the same number.
func inversions(unit domain.LearningUnit) int {
	n := 0
	last := map[domain.ElementType]string{}
	activities := map[string]int{}
	for i, seg := range unit.Segments {
		if !seg.Type.IsCore() || seg.Identifier == "" {
			continue
		}
		if prev, ok := last[seg.Type]; ok && compareIDs(prev, seg.Identifier) > 0 {
			n++
		}
		last[seg.Type] = seg.Identifier
		if seg.Type == domain.ElementActivity {
			activities[seg.Identifier] = i
		}
	}
	for i, seg := range unit.Segments {
		if seg.Type != domain.ElementExample {
			continue
		}
		if j, ok := activities[seg.Identifier]; ok && j > i {
			n++
		}
	}
	return n
}

// compareIDs orders dotted numbers like "7.10" after "7.9".
func compareIDs(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		x, errx := strconv.Atoi(pa[i])
		y, erry := strconv.Atoi(pb[i])
		if errx != nil || erry != nil {
			return strings.Compare(a, b)
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return len(pa) - len(pb)
}

func soundness(content string, comp domain.ContentComposition, hasConcepts bool) float64 {
	score := 0.6
	core := comp.ActivityCount > 0 || comp.ExampleCount > 0
	if core {
		score += 0.15
	}
	if outcomePhrase.MatchString(content) {
		score += 0.15
	}
	if core && comp.HasIntroduction {
		score += 0.05
	}
	if hasConcepts {
		score += 0.05
	}
	return clamp01(score)
}
