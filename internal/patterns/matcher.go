package patterns

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ncertrag/internal/domain"
)

// contextWindow is how far back the matcher looks for structural words when scoring a match.
const contextWindow = 100

var structuralWords = []string{"chapter", "section", "lesson"}

// Matcher finds educational markers in text using a Library.
type Matcher struct {
	lib *Library
}

// NewMatcher creates a matcher bound to lib. A nil library selects DefaultNCERT.
func NewMatcher(lib *Library) *Matcher {
	if lib == nil {
		lib = DefaultNCERT()
	}
	return &Matcher{lib: lib}
}

// Library returns the library the matcher was built with.
func (m *Matcher) Library() *Library { return m.lib }

type candidate struct {
	match domain.ElementMatch
	order int
}

// FindMatches returns the markers of type t in text, ordered by start position.
// Where several patterns hit the same place the most confident one wins, and the
// earlier pattern in library order breaks ties.
func (m *Matcher) FindMatches(text string, t domain.ElementType) []domain.ElementMatch {
	var cands []candidate
	for order, p := range m.lib.patterns[t] {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[0], loc[1]
			for start < end {
				r, n := utf8.DecodeRuneInString(text[start:])
				if r != ' ' && r != '\t' {
					break
				}
				start += n
			}
			if start >= end {
				continue
			}
			ident := strings.TrimSpace(text[start:end])
			if len(loc) >= 4 && loc[2] >= 0 {
				ident = strings.TrimSpace(text[loc[2]:loc[3]])
			}
			cands = append(cands, candidate{
				order: order,
				match: domain.ElementMatch{
					Type:       t,
					Identifier: ident,
					StartPos:   start,
					MarkerEnd:  end,
					Confidence: Confidence(text, start, p.Confidence),
					PatternID:  p.ID,
				},
			})
		}
	}
	if len(cands) == 0 {
		return nil
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.match.StartPos != b.match.StartPos {
			return a.match.StartPos < b.match.StartPos
		}
		if a.match.Confidence != b.match.Confidence {
			return a.match.Confidence > b.match.Confidence
		}
		return a.order < b.order
	})
	out := make([]domain.ElementMatch, 0, len(cands))
	for _, c := range cands {
		if n := len(out); n > 0 {
			last := out[n-1]
			if c.match.StartPos < last.MarkerEnd {
				if c.match.Confidence > last.Confidence {
					out[n-1] = c.match
				}
				continue
			}
		}
		out = append(out, c.match)
	}
	return out
}

// FindAll returns the markers of every type in types, merged and ordered by start position.
func (m *Matcher) FindAll(text string, types ...domain.ElementType) []domain.ElementMatch {
	if len(types) == 0 {
		types = domain.MarkerTypes
	}
	var out []domain.ElementMatch
	for _, t := range types {
		out = append(out, m.FindMatches(text, t)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartPos < out[j].StartPos })
	return out
}

// Confidence adjusts a base confidence using the text around a match: structural words
// shortly before it raise it, and a marker glued to a preceding word lowers it.
func Confidence(text string, start int, base float64) float64 {
	c := base
	lo := start - contextWindow
	if lo < 0 {
		lo = 0
	}
	ctx := strings.ToLower(text[lo:start])
	for _, w := range structuralWords {
		if strings.Contains(ctx, w) {
			c += 0.1
			break
		}
	}
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			c -= 0.2
		}
	}
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
