package metadata

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"ncertrag/internal/textutil"
)

// Candidate scores.
const (
	scoreDefinition = 3
	scoreBold       = 2
	scoreDomain     = 2
	scoreCapital    = 1
	scoreFirst      = 1
	scoreRepeated   = 1
)

var (
	definitionBefore = regexp.MustCompile(`\b([A-Za-z][a-z]+(?: [a-z]+){0,2}) (?:is|are) (?:defined as|said to be)\b`)
	definitionAfter  = regexp.MustCompile(`\b(?:is|are) (?:called|known as|termed) (?:the |an? )?([a-z][a-z\-]+(?: [a-z][a-z\-]+){0,2})`)
	definitionOf     = regexp.MustCompile(`(?i)\b(?:concept|definition) of ([a-z]+(?: [a-z]+){0,2})`)
	boldTerm         = regexp.MustCompile(`\*\*([^*\n]{3,40})\*\*`)
	capitalTerm      = regexp.MustCompile(`\b\p{Lu}\p{Ll}+(?:[ \-]\p{Lu}\p{Ll}+){0,2}\b`)
	conceptText      = regexp.MustCompile(`^[\p{L}][\p{L}\p{M} \-]*$`)
)

var genericTerms = map[string]struct{}{
	"activity": {}, "activities": {}, "example": {}, "examples": {}, "figure": {}, "fig": {}, "table": {},
	"question": {}, "questions": {}, "answer": {}, "solution": {}, "chapter": {}, "section": {},
	"summary": {}, "exercise": {}, "exercises": {}, "note": {}, "remember": {}, "take": {}, "find": {},
	"compute": {}, "calculate": {}, "observe": {}, "repeat": {}, "what": {}, "learnt": {},
}

// domainTerms is the subject allowlist for concept validation.
var domainTerms = map[string][]string{
	"physics": {
		"motion", "rest", "position", "displacement", "distance", "speed", "velocity", "acceleration",
		"uniform motion", "non-uniform motion", "reference point", "force", "mass", "weight", "gravity",
		"gravitation", "friction", "pressure", "energy", "kinetic energy", "potential energy", "power",
		"work done", "momentum", "inertia", "density", "temperature", "heat", "electric current",
		"voltage", "resistance", "circuit", "magnetic field", "wave", "frequency", "amplitude", "sound",
		"reflection", "refraction", "atom", "electron", "proton", "neutron", "nucleus", "scalar", "vector",
		"magnitude", "buoyancy",
	},
	"chemistry": {
		"element", "compound", "mixture", "chemical reaction", "reaction", "catalyst", "acid", "salt",
		"oxidation", "reduction", "ionic bond", "covalent bond", "periodic table", "molecule", "atom",
		"valency", "isotope", "evaporation", "condensation", "sublimation", "diffusion",
	},
	"biology": {
		"cell", "tissue", "organ", "organism", "species", "dna", "gene", "chromosome", "heredity",
		"evolution", "natural selection", "photosynthesis", "respiration", "digestion", "circulation",
		"ecosystem", "biodiversity", "conservation", "nutrition", "reproduction",
	},
	"mathematics": {
		"equation", "algebra", "geometry", "trigonometry", "graph", "coordinate", "angle",
		"probability", "statistics", "median", "polynomial", "triangle",
	},
}

func subjectTerms(subject string) []string {
	s := strings.ToLower(strings.TrimSpace(subject))
	switch s {
	case "physics", "chemistry", "biology":
		return domainTerms[s]
	case "mathematics", "maths", "math":
		return domainTerms["mathematics"]
	}
	var all []string
	for _, k := range []string{"physics", "chemistry", "biology"} {
		all = append(all, domainTerms[k]...)
	}
	return all
}

type conceptCandidate struct {
	text  string
	score int
	first int
	order int
}

// concepts ranks candidate phrases and returns at most MaxConcepts of them.
// Hinted concepts come first when they pass the same validity filter.
func (e *Engine) concepts(content, subject string, hinted []string) []string {
	cands := map[string]*conceptCandidate{}
	var order int
	add := func(term string, pos, score int) {
		term = cleanConcept(term)
		if !validConcept(term) {
			return
		}
		key := textutil.StemKey(term)
		c, ok := cands[key]
		if !ok {
			c = &conceptCandidate{text: term, first: pos, order: order}
			order++
			cands[key] = c
		}
		c.score += score
		if pos < c.first {
			c.first, c.text = pos, term
		}
	}

	for _, re := range []*regexp.Regexp{definitionBefore, definitionAfter, definitionOf} {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			add(content[m[2]:m[3]], m[2], scoreDefinition)
		}
	}
	for _, m := range boldTerm.FindAllStringSubmatchIndex(content, -1) {
		add(content[m[2]:m[3]], m[2], scoreBold)
	}
	lower := strings.ToLower(content)
	for _, term := range subjectTerms(subject) {
		pos := wordIndex(lower, term)
		if pos < 0 {
			continue
		}
		if len(lower) == len(content) {
			add(content[pos:pos+len(term)], pos, scoreDomain)
		} else {
			add(term, pos, scoreDomain)
		}
	}
	for _, m := range capitalTerm.FindAllStringIndex(content, -1) {
		if sentenceInitial(content, m[0]) && !strings.ContainsAny(content[m[0]:m[1]], " -") {
			continue
		}
		add(content[m[0]:m[1]], m[0], scoreCapital)
	}

	firstEnd := len(content)
	if ss := textutil.Split(content); len(ss) > 0 {
		firstEnd = ss[0].End
	}
	for _, c := range cands {
		if c.first < firstEnd {
			c.score += scoreFirst
		}
		if strings.Count(lower, strings.ToLower(c.text)) > 1 {
			c.score += scoreRepeated
		}
	}

	ranked := make([]*conceptCandidate, 0, len(cands))
	for _, c := range cands {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].first != ranked[j].first {
			return ranked[i].first < ranked[j].first
		}
		return ranked[i].order < ranked[j].order
	})

	out := make([]string, 0, e.cfg.MaxConcepts)
	seen := map[string]struct{}{}
	push := func(term string) {
		if len(out) >= e.cfg.MaxConcepts {
			return
		}
		key := textutil.StemKey(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, term)
	}
	for _, h := range hinted {
		if h = cleanConcept(h); validConcept(h) {
			push(h)
		}
	}
	for _, c := range ranked {
		push(c.text)
	}
	return out
}

// cleanConcept trims whitespace and leading articles.
func cleanConcept(term string) string {
	term = textutil.CollapseSpace(term)
	for {
		lower := strings.ToLower(term)
		trimmed := false
		for _, art := range []string{"the ", "a ", "an ", "this ", "that "} {
			if strings.HasPrefix(lower, art) {
				term = term[len(art):]
				trimmed = true
				break
			}
		}
		if !trimmed {
			return term
		}
	}
}

func validConcept(term string) bool {
	if utf8.RuneCountInString(term) < 3 || !conceptText.MatchString(term) {
		return false
	}
	lower := strings.ToLower(term)
	if _, ok := genericTerms[lower]; ok {
		return false
	}
	for _, w := range strings.Fields(lower) {
		if utf8.RuneCountInString(w) > 3 && !textutil.IsStopword(w) {
			if _, generic := genericTerms[w]; !generic {
				return true
			}
		}
	}
	return false
}

// sentenceInitial reports whether pos starts a sentence or a line.
func sentenceInitial(text string, pos int) bool {
	i := pos
	for i > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:i])
		if r == '\n' {
			return true
		}
		if !unicode.IsSpace(r) {
			return r == '.' || r == '!' || r == '?' || r == '।' || r == ':' || r == '•'
		}
		i -= n
	}
	return true
}

// wordIndex finds term as a whole word (allowing a plural suffix) in lower-cased text.
func wordIndex(lower, term string) int {
	from := 0
	for {
		i := strings.Index(lower[from:], term)
		if i < 0 {
			return -1
		}
		i += from
		end := i + len(term)
		for _, suf := range []string{"es", "s"} {
			if strings.HasPrefix(lower[end:], suf) {
				end += len(suf)
				break
			}
		}
		if !textutil.SplitsWord(lower, i) && !textutil.SplitsWord(lower, end) {
			return i
		}
		from = i + len(term)
	}
}
