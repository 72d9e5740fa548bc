package residual

import (
	"sort"
	"strings"
	"unicode"

	"ncertrag/internal/domain"
)

// Separator joins residual fragments.
const Separator = "\n\n"

// MergeSpans clamps spans to [0, limit], drops empty ones, and merges spans that overlap or touch.
func MergeSpans(spans []domain.Span, limit int) []domain.Span {
	clean := make([]domain.Span, 0, len(spans))
	for _, s := range spans {
		if s.Start < 0 {
			s.Start = 0
		}
		if s.End > limit {
			s.End = limit
		}
		if s.End <= s.Start {
			continue
		}
		clean = append(clean, s)
	}
	sort.Slice(clean, func(i, j int) bool {
		if clean[i].Start != clean[j].Start {
			return clean[i].Start < clean[j].Start
		}
		return clean[i].End < clean[j].End
	})
	var merged []domain.Span
	for _, s := range clean {
		if n := len(merged); n > 0 && s.Start <= merged[n-1].End {
			if s.End > merged[n-1].End {
				merged[n-1].End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Gaps returns the complement of consumed within [0, len(text)).
func Gaps(text string, consumed []domain.Span) []domain.Span {
	var gaps []domain.Span
	pos := 0
	for _, s := range MergeSpans(consumed, len(text)) {
		if s.Start > pos {
			gaps = append(gaps, domain.Span{Start: pos, End: s.Start})
		}
		pos = s.End
	}
	if pos < len(text) {
		gaps = append(gaps, domain.Span{Start: pos, End: len(text)})
	}
	return gaps
}

// Fragments returns the trimmed, non-empty residual pieces with their offsets.
func Fragments(text string, consumed []domain.Span) []domain.Segment {
	var out []domain.Segment
	for _, g := range Gaps(text, consumed) {
		seg, ok := trimSpan(text, g)
		if !ok {
			continue
		}
		seg.Type = domain.ElementProse
		out = append(out, seg)
	}
	return out
}

// Extract returns the text of text not covered by consumed, fragments joined by Separator.
func Extract(text string, consumed []domain.Span) string {
	frags := Fragments(text, consumed)
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, Separator)
}

func trimSpan(text string, s domain.Span) (domain.Segment, bool) {
	raw := text[s.Start:s.End]
	left := strings.TrimLeftFunc(raw, unicode.IsSpace)
	start := s.Start + len(raw) - len(left)
	trimmed := strings.TrimRightFunc(left, unicode.IsSpace)
	if trimmed == "" {
		return domain.Segment{}, false
	}
	return domain.Segment{Text: trimmed, Start: start, End: start + len(trimmed)}, true
}

// Trim returns the segment for span s with surrounding whitespace removed, or false if it is blank.
func Trim(text string, s domain.Span) (domain.Segment, bool) {
	return trimSpan(text, s)
}
