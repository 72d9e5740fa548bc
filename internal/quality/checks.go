package quality

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ncertrag/internal/domain"
)

var naturalEndings = []string{"What you have learnt", "Summary", "Questions", "Exercises", "Key Points", "Remember", "Note:"}

var truncationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)the distance covered$`),
	regexp.MustCompile(`(?i)we learn that$`),
	regexp.MustCompile(`(?i)is used in$`),
	regexp.MustCompile(`(?i)helps us$`),
}

var elementPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"Activity", regexp.MustCompile(`(?i)activity\s+\d+`)},
	{"Example", regexp.MustCompile(`(?i)example\s+\d+`)},
	{"Questions", regexp.MustCompile(`(?i)questions?`)},
	{"Summary", regexp.MustCompile(`(?i)what you have learnt|summary`)},
}

var (
	badConceptWords = map[string]struct{}{"the": {}, "new": {}, "example": {}, "given": {}, "which": {}, "a": {}, "an": {}, "this": {}, "that": {}}
	appFragments    = []string{"d today", "nd the", "of the"}
	sentenceSplit   = regexp.MustCompile(`[.!?]+`)
	activityMarker  = regexp.MustCompile(`(?i)\bactivity\s+\d`)
	exampleMarker   = regexp.MustCompile(`(?i)\bexample\s+\d`)
)

// DefaultChecks returns the built-in battery configured by cfg.
func DefaultChecks(cfg Config) []Check {
	p := cfg.Penalties
	return []Check{
		{MetricContentCompleteness, func(c domain.HolisticChunk) (float64, []string) {
			return contentCompleteness(c, p, cfg.MinContentLength)
		}},
		{MetricConceptQuality, func(c domain.HolisticChunk) (float64, []string) {
			return conceptQuality(c, p, cfg.SubjectTerms, cfg.MinRelevance)
		}},
		{MetricApplicationQuality, func(c domain.HolisticChunk) (float64, []string) {
			return applicationQuality(c, p)
		}},
		{MetricMetadataRichness, func(c domain.HolisticChunk) (float64, []string) {
			return metadataRichness(c, p)
		}},
		{MetricEducationalSoundness, func(c domain.HolisticChunk) (float64, []string) {
			return educationalSoundness(c, p)
		}},
		{MetricSentenceCompleteness, func(c domain.HolisticChunk) (float64, []string) {
			return sentenceCompleteness(c, p)
		}},
		{MetricContentCoherence, func(c domain.HolisticChunk) (float64, []string) {
			return contentCoherence(c, p)
		}},
	}
}

func contentCompleteness(c domain.HolisticChunk, p Penalties, minLen int) (float64, []string) {
	var issues []string
	score := 1.0
	content := strings.TrimSpace(c.Content)
	if content != "" {
		last, _ := utf8.DecodeLastRuneInString(content)
		if !strings.ContainsRune(".!?।", last) && !naturalEnding(content) {
			issues = append(issues, "Content appears truncated - incomplete sentence ending")
			score -= p.Truncated
		}
	}
	for _, re := range truncationPatterns {
		if re.MatchString(content) {
			issues = append(issues, "Found truncation pattern: "+re.String())
			score -= p.TruncationPhrase
		}
	}
	if utf8.RuneCountInString(content) < minLen {
		issues = append(issues, "Content too short - may be incomplete")
		score -= p.ShortContent
	}
	if c.BoundaryDegraded {
		issues = append(issues, "Boundary fell back to the length cap - content may be truncated")
		score -= p.Degraded
	}
	return clamp01(score), issues
}

// naturalEnding accepts a closing heading or note within the last 100 characters.
func naturalEnding(content string) bool {
	tail := content
	if r := []rune(tail); len(r) > 100 {
		tail = string(r[len(r)-100:])
	}
	for _, e := range naturalEndings {
		if strings.Contains(tail, e) {
			return true
		}
	}
	return false
}

func conceptQuality(c domain.HolisticChunk, p Penalties, subjectTerms map[string][]string, minRelevance float64) (float64, []string) {
	concepts := c.Metadata.ConceptsAndSkills.MainConcepts
	if len(concepts) == 0 {
		return 0, []string{"No main concepts extracted"}
	}
	var issues []string
	score := 1.0
	var bad []string
	for _, concept := range concepts {
		_, stop := badConceptWords[strings.ToLower(concept)]
		if stop || utf8.RuneCountInString(concept) < 3 || strings.IndexFunc(concept, unicode.IsLetter) < 0 {
			bad = append(bad, concept)
		}
	}
	if len(bad) > 0 {
		issues = append(issues, fmt.Sprintf("Found %d poor quality concepts: %v", len(bad), bad))
		score -= p.BadConcepts * float64(len(bad)) / float64(len(concepts))
	}

	subject := strings.ToLower(c.Metadata.BasicInfo.Subject)
	if terms, ok := subjectTerms[subject]; ok && len(terms) > 0 {
		relevant := 0
		for _, concept := range concepts {
			lower := strings.ToLower(concept)
			for _, t := range terms {
				if strings.Contains(lower, t) {
					relevant++
					break
				}
			}
		}
		ratio := float64(relevant) / float64(len(concepts))
		if ratio < minRelevance {
			issues = append(issues, fmt.Sprintf("Low %s relevance: only %.1f%% of concepts are %s-related", subject, ratio*100, subject))
			score -= p.LowRelevance
		}
	}
	return clamp01(score), issues
}

func applicationQuality(c domain.HolisticChunk, p Penalties) (float64, []string) {
	apps := c.Metadata.EducationalContext.RealWorldApplications
	if len(apps) == 0 {
		return clamp01(1 - p.NoApplications), []string{"No real-world applications found"}
	}
	var bad []string
	for _, app := range apps {
		first, _ := utf8.DecodeRuneInString(app)
		trimmed := strings.TrimSpace(app)
		switch {
		case utf8.RuneCountInString(app) < 20:
			bad = append(bad, fmt.Sprintf("Too short: '%s'", app))
		case unicode.IsLower(first):
			bad = append(bad, fmt.Sprintf("Starts lowercase: '%s'", app))
		case !strings.HasSuffix(trimmed, ".") && !strings.HasSuffix(trimmed, "!") && !strings.HasSuffix(trimmed, "?"):
			bad = append(bad, fmt.Sprintf("No proper ending: '%s'", app))
		case hasFragmentStart(app):
			bad = append(bad, fmt.Sprintf("Fragment pattern: '%s'", app))
		}
	}
	if len(bad) == 0 {
		return 1, nil
	}
	issues := []string{fmt.Sprintf("Found %d poor quality applications", len(bad))}
	if len(bad) > 3 {
		issues = append(issues, bad[:3]...)
	} else {
		issues = append(issues, bad...)
	}
	return clamp01(1 - p.BadApplications*float64(len(bad))/float64(len(apps))), issues
}

func hasFragmentStart(app string) bool {
	lower := strings.ToLower(app)
	for _, f := range appFragments {
		if strings.HasPrefix(lower, f) {
			return true
		}
	}
	return false
}

func metadataRichness(c domain.HolisticChunk, p Penalties) (float64, []string) {
	md := c.Metadata
	var missing []string
	need := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	need("basic_info.grade_level", md.BasicInfo.GradeLevel != 0)
	need("basic_info.subject", md.BasicInfo.Subject != "")
	need("basic_info.chapter", md.BasicInfo.Chapter != 0)
	need("content_composition.activity_count", md.ContentComposition.ActivityCount != 0)
	need("content_composition.example_count", md.ContentComposition.ExampleCount != 0)
	need("concepts_and_skills.main_concepts", len(md.ConceptsAndSkills.MainConcepts) > 0)
	need("concepts_and_skills.skills_developed", len(md.ConceptsAndSkills.SkillsDeveloped) > 0)
	need("educational_context.real_world_applications", len(md.EducationalContext.RealWorldApplications) > 0)

	var issues []string
	score := 1.0
	if len(missing) > 0 {
		issues = append(issues, fmt.Sprintf("Missing metadata fields: %v", missing))
		score -= p.MissingField * float64(len(missing))
	}
	if len(md.ConceptsAndSkills.MainConcepts) < 3 {
		issues = append(issues, "Insufficient main concepts (less than 3)")
		score -= p.ThinMetadata
	}
	if len(md.ConceptsAndSkills.SkillsDeveloped) < 2 {
		issues = append(issues, "Insufficient skills identified (less than 2)")
		score -= p.ThinMetadata
	}
	return clamp01(score), issues
}

func educationalSoundness(c domain.HolisticChunk, p Penalties) (float64, []string) {
	var issues []string
	score := 1.0
	found := 0
	for _, e := range elementPatterns {
		if e.re.MatchString(c.Content) {
			found++
		}
	}
	switch found {
	case 0:
		issues = append(issues, "No clear educational elements identified")
		score -= p.NoElements
	case 1:
		issues = append(issues, "Only one type of educational element found")
		score -= p.SingleElement
	}
	if activityMarker.MatchString(c.Content) && !strings.Contains(strings.ToLower(c.Content), "learn") {
		issues = append(issues, "Activity present but no learning outcome mentioned")
		score -= p.NoOutcome
	}
	return clamp01(score), issues
}

func sentenceCompleteness(c domain.HolisticChunk, p Penalties) (float64, []string) {
	parts := sentenceSplit.Split(c.Content, -1)
	incomplete := 0
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if len(s) <= 5 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s)
		if unicode.IsLower(r) && !strings.HasPrefix(s, "and") && !strings.HasPrefix(s, "or") && !strings.HasPrefix(s, "but") {
			incomplete++
		}
	}
	if incomplete == 0 {
		return 1, nil
	}
	score := 1 - p.BadSentences*float64(incomplete)/float64(len(parts))
	return clamp01(score), []string{fmt.Sprintf("Found %d potentially incomplete sentences", incomplete)}
}

func contentCoherence(c domain.HolisticChunk, p Penalties) (float64, []string) {
	var issues []string
	score := 1.0
	counts := map[string]int{}
	for _, line := range strings.Split(c.Content, "\n") {
		if line = strings.TrimSpace(line); len(line) > 10 {
			counts[line]++
		}
	}
	repeated := 0
	for _, n := range counts {
		if n > 2 {
			repeated++
		}
	}
	if repeated > 0 {
		issues = append(issues, fmt.Sprintf("Found %d excessively repeated lines", repeated))
		score -= p.Repetition
	}
	a := activityMarker.FindStringIndex(c.Content)
	e := exampleMarker.FindStringIndex(c.Content)
	if a != nil && e != nil && e[0] < a[0] {
		issues = append(issues, "Educational flow issue: Example appears before Activity")
		score -= p.Disorder
	}
	return clamp01(score), issues
}
