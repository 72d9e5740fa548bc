package patterns

import "ncertrag/internal/domain"

const lineStart = `(?m)^[ \t]*`

// DefaultNCERT returns the built-in library for NCERT science textbooks (English and Hindi markers).
func DefaultNCERT() *Library {
	l, err := NewLibrary("ncert", ncertPatterns()...)
	if err != nil {
		panic(err)
	}
	return l
}

func ncertPatterns() []Pattern {
	return []Pattern{
		// activities
		{ID: "activity_upper", Type: domain.ElementActivity, Confidence: 0.95, Language: "en",
			Regex: lineStart + `ACTIVITY\s+(\d+\.\d+)`, Examples: []string{"ACTIVITY 7.1"}},
		{ID: "activity_title", Type: domain.ElementActivity, Confidence: 0.9, Language: "en",
			Regex: lineStart + `Activity\s*[_\-–—]?\s*(\d+\.\d+)`, Examples: []string{"Activity 7.2", "Activity_8.1"}},
		{ID: "activity_flexible", Type: domain.ElementActivity, Confidence: 0.85, Language: "en",
			Regex: lineStart + `(?i:activity)\s*[:._\-–—]?\s*(\d+(?:\.\d+)?)\b`, Examples: []string{"activity: 3"}},
		{ID: "activity_hi", Type: domain.ElementActivity, Confidence: 0.9, Language: "hi",
			Regex: lineStart + `गतिविधि\s+(\d+\.\d+)`, Examples: []string{"गतिविधि 7.1"}},

		// examples
		{ID: "example_upper", Type: domain.ElementExample, Confidence: 0.9, Language: "en",
			Regex: lineStart + `EXAMPLE\s+(\d+\.\d+)`, Examples: []string{"EXAMPLE 8.3"}},
		{ID: "example_title", Type: domain.ElementExample, Confidence: 0.9, Language: "en",
			Regex: lineStart + `Example\s+(\d+\.\d+)`, Examples: []string{"Example 7.1"}},
		{ID: "example_hi", Type: domain.ElementExample, Confidence: 0.9, Language: "hi",
			Regex: lineStart + `उदाहरण\s+(\d+\.\d+)`, Examples: []string{"उदाहरण 7.1"}},

		// figures
		{ID: "figure_short", Type: domain.ElementFigure, Confidence: 0.9, Language: "en",
			Regex: lineStart + `Fig\.\s*(\d+\.\d+)`, Examples: []string{"Fig. 7.1: A ball on a slope"}},
		{ID: "figure_long", Type: domain.ElementFigure, Confidence: 0.85, Language: "en",
			Regex: lineStart + `Figure\s+(\d+\.\d+)`, Examples: []string{"Figure 9.2"}},
		{ID: "figure_hi", Type: domain.ElementFigure, Confidence: 0.85, Language: "hi",
			Regex: lineStart + `चित्र\s+(\d+\.\d+)`, Examples: []string{"चित्र 7.1"}},

		// special boxes
		{ID: "box_do_you_know", Type: domain.ElementSpecialBox, Confidence: 0.9, Language: "en",
			Regex: lineStart + `((?:DO|DID) YOU KNOW\??)`, Examples: []string{"DO YOU KNOW?"}},
		{ID: "box_named", Type: domain.ElementSpecialBox, Confidence: 0.9, Language: "en",
			Regex: lineStart + `(THINK AND ACT|MORE TO KNOW|BIOGRAPHY|APPLICATIONS?)\b`, Examples: []string{"THINK AND ACT", "BIOGRAPHY"}},
		{ID: "box_note", Type: domain.ElementSpecialBox, Confidence: 0.8, Language: "en",
			Regex: lineStart + `(Note|Remember)\s*:`, Examples: []string{"Note: the unit of force"}},
		{ID: "box_hi", Type: domain.ElementSpecialBox, Confidence: 0.85, Language: "hi",
			Regex: lineStart + `(क्या आप जानते हैं\??)`, Examples: []string{"क्या आप जानते हैं?"}},

		// formulas
		{ID: "formula_assignment", Type: domain.ElementFormula, Confidence: 0.8, Language: "any",
			Regex: `\b([A-Za-z]{1,3}\s*=\s*[A-Za-z0-9(][^=\n.,;]{0,40})`, Examples: []string{"v = u + at", "Z=5"}},
		{ID: "formula_unit", Type: domain.ElementFormula, Confidence: 0.7, Language: "any",
			Regex: `\b(\d+(?:\.\d+)?\s*(?:m\s*s\s*-\s*[12]|m/s²?|km/h|N\s*m|kg\s*m\s*s-2))`, Examples: []string{"10 m/s"}},

		// question blocks
		{ID: "questions_header", Type: domain.ElementQuestion, Confidence: 0.9, Language: "en",
			Regex: lineStart + `((?i:questions?|exercises?))[ \t]*$`, Examples: []string{"Questions", "EXERCISES"}},
		{ID: "questions_hi", Type: domain.ElementQuestion, Confidence: 0.85, Language: "hi",
			Regex: lineStart + `(प्रश्न|अभ्यास)[ \t]*$`, Examples: []string{"प्रश्न"}},

		// summaries
		{ID: "summary_learnt", Type: domain.ElementSummary, Confidence: 0.95, Language: "en",
			Regex: lineStart + `(What you have learnt)`, Examples: []string{"What you have learnt"}},
		{ID: "summary_plain", Type: domain.ElementSummary, Confidence: 0.8, Language: "en",
			Regex: lineStart + `((?i:summary|key points))[ \t]*:?[ \t]*$`, Examples: []string{"Summary", "Key Points:"}},
		{ID: "summary_hi", Type: domain.ElementSummary, Confidence: 0.9, Language: "hi",
			Regex: lineStart + `(आपने क्या सीखा)`, Examples: []string{"आपने क्या सीखा"}},

		// section headers
		{ID: "section_header", Type: domain.ElementSectionHeader, Confidence: 0.9, Language: "any",
			Regex: lineStart + `(\d{1,2}\.\d{1,2}(?:\.\d{1,2})?)[ \t]+\p{Lu}[^\n]{0,120}$`, Examples: []string{"7.1 Describing Motion"}},
	}
}
