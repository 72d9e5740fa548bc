package metadata

import (
	"math"
	"regexp"
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

var (
	definitionCue = regexp.MustCompile(`(?i)\b(?:is defined as|is called|are called|is known as|means|refers to)\b`)
	higherOrder   = map[string]struct{}{"analyse": {}, "analyze": {}, "evaluate": {}, "create": {}, "design": {}, "critique": {}, "justify": {}, "hypothesise": {}, "hypothesize": {}}
	applied       = map[string]struct{}{"apply": {}, "demonstrate": {}, "solve": {}, "calculate": {}, "compute": {}, "measure": {}, "determine": {}}
)

var difficultyWords = map[string][]string{
	"basic":        {"basic", "simple", "introduction", "elementary", "fundamental", "easy", "observe", "identify", "list"},
	"intermediate": {"calculate", "analyse", "analyze", "compare", "explain", "apply", "demonstrate", "solve", "determine", "interpret"},
	"advanced":     {"evaluate", "synthesise", "synthesize", "design", "create", "critique", "complex", "derive", "prove"},
}

var difficultyOrder = []string{"basic", "intermediate", "advanced"}

func contentTypes(unit domain.LearningUnit, comp domain.ContentComposition, content string, hasApps bool) []domain.ContentType {
	var out []domain.ContentType
	if unit.Has(domain.ElementProse) || definitionCue.MatchString(content) {
		out = append(out, domain.ContentConceptualExplanation)
	}
	if comp.ActivityCount > 0 {
		out = append(out, domain.ContentHandsOnActivity)
	}
	if comp.ExampleCount > 0 {
		out = append(out, domain.ContentWorkedExamples)
	}
	if comp.FigureCount > 0 {
		out = append(out, domain.ContentVisualAids)
	}
	if comp.QuestionCount > 0 {
		out = append(out, domain.ContentAssessmentQuestions)
	}
	if comp.FormulaCount > 0 {
		out = append(out, domain.ContentMathematicalFormulas)
	}
	if comp.SpecialBoxCount > 0 {
		out = append(out, domain.ContentEnrichment)
	}
	if hasApps {
		out = append(out, domain.ContentRealWorldApplications)
	}
	if comp.HasSummary {
		out = append(out, domain.ContentSummary)
	}
	return out
}

func learningStyles(unit domain.LearningUnit, comp domain.ContentComposition) []domain.LearningStyle {
	var out []domain.LearningStyle
	if comp.ActivityCount > 0 {
		out = append(out, domain.StyleKinesthetic)
	}
	if comp.FigureCount > 0 {
		out = append(out, domain.StyleVisual)
	}
	if comp.FormulaCount > 0 || comp.ExampleCount > 0 {
		out = append(out, domain.StyleLogicalMathematical)
	}
	if comp.QuestionCount > 0 {
		out = append(out, domain.StyleAnalytical)
	}
	if unit.Has(domain.ElementProse) || comp.HasSummary {
		out = append(out, domain.StyleVerbalLinguistic)
	}
	if comp.ActivityCount > 0 || comp.SpecialBoxCount > 0 {
		out = append(out, domain.StyleExploratory)
	}
	return out
}

func cognitiveLevel(content string) domain.CognitiveLevel {
	level := domain.CognitiveUnderstanding
	for _, tok := range textutil.Tokens(content) {
		if _, ok := higherOrder[tok]; ok {
			return domain.CognitiveHigherOrder
		}
		if _, ok := applied[tok]; ok {
			level = domain.CognitiveApplication
		}
	}
	return level
}

func difficulty(content string, grade int, comp domain.ContentComposition) string {
	counts := map[string]int{}
	for _, tok := range textutil.Tokens(content) {
		counts[tok]++
	}
	scores := map[string]int{}
	for level, words := range difficultyWords {
		for _, w := range words {
			scores[level] += counts[w]
		}
	}
	switch {
	case grade <= 6:
		scores["basic"] += 10
	case grade <= 8:
		scores["intermediate"] += 10
	default:
		scores["advanced"] += 5
	}
	scores["intermediate"] += 2 * comp.FormulaCount

	best := difficultyOrder[0]
	for _, l := range difficultyOrder[1:] {
		if scores[l] > scores[best] {
			best = l
		}
	}
	return best
}

// readingLevel is the Flesch-Kincaid grade of content, rounded to one decimal.
func readingLevel(content string) float64 {
	words := textutil.Tokens(content)
	sentences := len(textutil.Split(content))
	if len(words) == 0 || sentences == 0 {
		return 0
	}
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}
	g := 0.39*float64(len(words))/float64(sentences) + 11.8*float64(syllables)/float64(len(words)) - 15.59
	if g < 0 {
		g = 0
	}
	return math.Round(g*10) / 10
}

func countSyllables(word string) int {
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		return 1
	}
	return count
}
