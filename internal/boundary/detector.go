package boundary

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ncertrag/internal/domain"
	"ncertrag/internal/patterns"
	"ncertrag/internal/textutil"
)

// Limits is the character budget for one element type. Counts are in runes.
type Limits struct {
	Min       int `yaml:"min"`
	Preferred int `yaml:"preferred"`
	Max       int `yaml:"max"`
}

// Config holds the tunable constants of the detector.
type Config struct {
	Limits  map[domain.ElementType]Limits `yaml:"limits"`
	Default Limits                        `yaml:"default"`
	// ConclusionWindow is how far past the preferred length a conclusion phrase may still be accepted.
	ConclusionWindow int `yaml:"conclusion_window"`
	// SentenceWindow bounds the backward search for a sentence end, in bytes.
	SentenceWindow int `yaml:"sentence_window"`
}

// DefaultConfig returns starting defaults; they are empirically tuned, not derived.
func DefaultConfig() Config {
	return Config{
		Limits: map[domain.ElementType]Limits{
			domain.ElementActivity:   {Min: 150, Preferred: 1200, Max: 2500},
			domain.ElementExample:    {Min: 100, Preferred: 800, Max: 2000},
			domain.ElementSpecialBox: {Min: 50, Preferred: 600, Max: 1000},
			domain.ElementQuestion:   {Min: 20, Preferred: 400, Max: 800},
			domain.ElementFigure:     {Min: 10, Preferred: 200, Max: 400},
			domain.ElementSummary:    {Min: 50, Preferred: 1500, Max: 4000},
		},
		Default:          Limits{Min: 500, Preferred: 2000, Max: 4000},
		ConclusionWindow: 300,
		SentenceWindow:   1500,
	}
}

func (c Config) limits(t domain.ElementType) Limits {
	if l, ok := c.Limits[t]; ok && l.Max > 0 {
		return l
	}
	return c.Default
}

// Rule names the step of the hierarchy that produced a boundary.
type Rule string

const (
	RuleEmpty      Rule = "empty"
	RuleStopMarker Rule = "stop_marker"
	RuleConclusion Rule = "conclusion"
	RuleLengthCap  Rule = "length_cap"
	RuleEndOfText  Rule = "end_of_text"
)

// Result describes a detected element end.
type Result struct {
	End  int
	Rule Rule
	// Snapped is set when the end was moved back to a sentence boundary.
	Snapped bool
	// Degraded is set when no sentence boundary could be found and the hard cap was kept.
	Degraded bool
}

var stopTypes = map[domain.ElementType][]domain.ElementType{
	domain.ElementActivity:   {domain.ElementActivity, domain.ElementExample, domain.ElementSpecialBox, domain.ElementQuestion, domain.ElementSummary, domain.ElementSectionHeader},
	domain.ElementExample:    {domain.ElementActivity, domain.ElementExample, domain.ElementSpecialBox, domain.ElementQuestion, domain.ElementSummary, domain.ElementSectionHeader},
	domain.ElementSpecialBox: {domain.ElementActivity, domain.ElementExample, domain.ElementSpecialBox, domain.ElementQuestion, domain.ElementSummary, domain.ElementSectionHeader},
	domain.ElementFigure:     {domain.ElementActivity, domain.ElementExample, domain.ElementFigure, domain.ElementSpecialBox, domain.ElementQuestion, domain.ElementSummary, domain.ElementSectionHeader},
	domain.ElementQuestion:   {domain.ElementActivity, domain.ElementExample, domain.ElementSummary, domain.ElementSectionHeader},
	domain.ElementSummary:    {domain.ElementQuestion, domain.ElementSectionHeader},
}

var defaultStopTypes = []domain.ElementType{
	domain.ElementActivity, domain.ElementExample, domain.ElementSpecialBox,
	domain.ElementQuestion, domain.ElementSummary, domain.ElementSectionHeader,
}

var conclusionPhrases = map[domain.ElementType][]*regexp.Regexp{
	domain.ElementActivity: {
		regexp.MustCompile(`(?i)\bfrom this activity\b`),
		regexp.MustCompile(`(?i)\bwe (?:learn|conclude|observe|find) that\b`),
		regexp.MustCompile(`(?i)\bthis (?:activity )?shows that\b`),
	},
	domain.ElementExample: {
		regexp.MustCompile(`(?i)\bsolution\s*:[^.!?\n]*=`),
		regexp.MustCompile(`(?m)^[ \t]*(?:Therefore|Hence|Thus),?\s`),
		regexp.MustCompile(`(?i)\bthe (?:answer|required value) is\b`),
	},
	domain.ElementSpecialBox: {
		regexp.MustCompile(`(?i)\b(?:therefore|thus),?\s`),
	},
}

// Detector finds where the content of an element ends.
type Detector struct {
	matcher *patterns.Matcher
	cfg     Config
}

func NewDetector(matcher *patterns.Matcher, cfg Config) *Detector {
	if matcher == nil {
		matcher = patterns.NewMatcher(nil)
	}
	if cfg.Default.Max <= 0 {
		cfg = DefaultConfig()
	}
	if cfg.SentenceWindow <= 0 {
		cfg.SentenceWindow = DefaultConfig().SentenceWindow
	}
	return &Detector{matcher: matcher, cfg: cfg}
}

// FindElementEnd returns the end offset of the element of type t whose marker starts at start.
// The result always satisfies start <= end <= len(text).
func (d *Detector) FindElementEnd(text string, start int, t domain.ElementType) int {
	return d.Detect(text, start, t, nil).End
}

// Detect is FindElementEnd with diagnostics. Markers that fall inside inner spans
// (elements already registered inside this one) are skipped rather than treated as stops.
func (d *Detector) Detect(text string, start int, t domain.ElementType, inner []domain.Span) Result {
	if start < 0 {
		start = 0
	}
	if start >= len(text) {
		return Result{End: len(text), Rule: RuleEmpty}
	}
	lim := d.cfg.limits(t)
	bodyStart := d.markerEnd(text, start, t)
	maxEnd := advanceRunes(text, start, lim.Max)

	candidate, rule := maxEnd, RuleLengthCap
	if maxEnd == len(text) {
		rule = RuleEndOfText
	}
	if stop, ok := d.nextStop(text, bodyStart, t, inner); ok && stop <= maxEnd {
		candidate, rule = stop, RuleStopMarker
	} else if end, ok := d.conclusion(text, bodyStart, t, lim); ok && end <= maxEnd {
		candidate, rule = end, RuleConclusion
	}

	if bodyStart >= candidate || strings.TrimSpace(text[bodyStart:candidate]) == "" {
		return Result{End: start, Rule: RuleEmpty}
	}
	res := Result{End: candidate, Rule: rule}
	if d.acceptable(text, start, candidate) {
		return res
	}

	floor := bodyStart
	if rule == RuleLengthCap {
		// a capped element should not shrink below its soft minimum
		if minEnd := advanceRunes(text, start, lim.Min); minEnd > floor && minEnd < candidate {
			floor = minEnd
		}
	}
	if lo := candidate - d.cfg.SentenceWindow; lo > floor {
		floor = lo
	}
	if b := textutil.LastBoundary(text, floor, candidate); b > bodyStart {
		res.End, res.Snapped = b, true
		return res
	}

	// No sentence end in reach: keep the cap but never leave half a word behind.
	res.Degraded = true
	if textutil.SplitsWord(text, candidate) {
		if ws := lastSpace(text, bodyStart, candidate); ws > bodyStart {
			res.End = ws
		}
	}
	return res
}

// acceptable reports whether ending at end needs no retraction.
func (d *Detector) acceptable(text string, start, end int) bool {
	if textutil.SplitsWord(text, end) {
		return false
	}
	slice := text[start:end]
	if textutil.EndsWithHyphenation(slice) {
		return false
	}
	if textutil.EndsComplete(slice) {
		return true
	}
	// a marker or heading line on its own (e.g. "Questions") is a complete block
	trimmed := strings.TrimRightFunc(slice, unicode.IsSpace)
	return !strings.ContainsRune(trimmed, '\n') && followedByLineBreak(text, start+len(trimmed))
}

func (d *Detector) markerEnd(text string, start int, t domain.ElementType) int {
	for _, m := range d.matcher.FindMatches(text[start:], t) {
		if m.StartPos == 0 {
			return start + m.MarkerEnd
		}
		break
	}
	return start
}

func (d *Detector) nextStop(text string, from int, t domain.ElementType, inner []domain.Span) (int, bool) {
	types, ok := stopTypes[t]
	if !ok {
		types = defaultStopTypes
	}
	tail := text[from:]
	best := -1
	for _, st := range types {
		for _, m := range d.matcher.FindMatches(tail, st) {
			pos := from + m.StartPos
			if pos <= from || insideAny(pos, inner) {
				continue
			}
			if best < 0 || pos < best {
				best = pos
			}
			break
		}
	}
	if t == domain.ElementFigure {
		if i := strings.Index(tail, "\n\n"); i > 0 && (best < 0 || from+i < best) {
			best = from + i
		}
	}
	return best, best >= 0
}

func (d *Detector) conclusion(text string, from int, t domain.ElementType, lim Limits) (int, bool) {
	phrases := conclusionPhrases[t]
	if len(phrases) == 0 {
		return 0, false
	}
	window := advanceRunes(text, from, lim.Preferred+d.cfg.ConclusionWindow)
	region := text[from:window]
	first := -1
	for _, re := range phrases {
		if loc := re.FindStringIndex(region); loc != nil && (first < 0 || loc[0] < first) {
			first = loc[0]
		}
	}
	if first < 0 {
		return 0, false
	}
	end := textutil.NextBoundary(text, from+first, len(text))
	if end < 0 {
		return 0, false
	}
	return end, true
}

func insideAny(pos int, spans []domain.Span) bool {
	for _, s := range spans {
		if s.Contains(pos) {
			return true
		}
	}
	return false
}

func followedByLineBreak(text string, i int) bool {
	for i < len(text) {
		switch text[i] {
		case ' ', '\t', '\r':
			i++
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func lastSpace(text string, lo, hi int) int {
	for i := hi; i > lo; {
		r, n := utf8.DecodeLastRuneInString(text[:i])
		if unicode.IsSpace(r) {
			return i - n
		}
		i -= n
	}
	return -1
}

// advanceRunes returns the byte offset n runes after start, clamped to len(text).
func advanceRunes(text string, start, n int) int {
	i := start
	for k := 0; k < n && i < len(text); k++ {
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}
