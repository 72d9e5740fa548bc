package metadata

import (
	"regexp"
	"sort"
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

var (
	explicitObjective = regexp.MustCompile(`(?im)(?:after this (?:activity|section|chapter),? you will be able to|you will be able to|students will be able to|learning (?:objectives?|outcomes?)\s*:|by the end of this (?:chapter|section|lesson),?(?: (?:students|you) will(?: be able to)?)?)\s*([^\n]+)`)
	misconceptionCue  = regexp.MustCompile(`(?i)\b(?:contrary to popular belief|contrary to|a common misconception is that|misconception\s*:|remember that|note that|it is wrong to think that|does not mean that)\s*,?\s*([^.!?\n]+)`)
	sectionRef        = regexp.MustCompile(`\b(Section|Activity|Example|Fig\.|Figure|Table)\s+(\d+\.\d+)`)
	domainSuffix      = regexp.MustCompile(`(?i)\b([a-z]+(?:-[a-z]+)? (?:force|motion|energy|speed|velocity|acceleration|pressure|current|reaction))\b`)
)

var prerequisiteMap = map[string][]string{
	"force":        {"motion", "mass", "acceleration"},
	"energy":       {"work", "force", "motion"},
	"power":        {"energy", "work", "time"},
	"velocity":     {"speed", "direction", "displacement"},
	"acceleration": {"velocity", "time", "change"},
	"pressure":     {"force", "area", "surface"},
	"density":      {"mass", "volume", "substance"},
	"momentum":     {"mass", "velocity"},
	"friction":     {"force", "motion", "surface"},
}

var knownMisconceptions = map[string][]string{
	"physics": {
		"heavier objects fall faster",
		"force is needed to maintain motion",
		"heat and temperature are the same",
		"current is consumed in a circuit",
		"friction always opposes motion",
	},
	"chemistry": {
		"atoms are indivisible",
		"acids are always dangerous",
		"all chemical reactions release energy",
	},
	"biology": {
		"acquired characteristics are inherited",
		"photosynthesis only occurs in leaves",
		"antibiotics kill viruses",
	},
}

var careerMap = map[string]map[string][]string{
	"physics": {
		"force":       {"mechanical engineer", "aerospace engineer", "robotics engineer"},
		"energy":      {"renewable energy specialist", "power plant engineer", "energy analyst"},
		"motion":      {"automotive engineer", "sports analyst", "animation specialist"},
		"electricity": {"electrical engineer", "electronics technician", "power systems engineer"},
	},
	"chemistry": {
		"reaction": {"chemical engineer", "pharmaceutical researcher", "materials scientist"},
		"compound": {"drug developer", "cosmetics chemist", "food scientist"},
	},
	"biology": {
		"cell":      {"medical researcher", "biotechnologist", "genetic counselor"},
		"ecosystem": {"environmental scientist", "conservation biologist", "park ranger"},
		"evolution": {"evolutionary biologist", "paleontologist", "museum curator"},
	},
}

func subjectKeys(subject string) []string {
	s := strings.ToLower(strings.TrimSpace(subject))
	if _, ok := careerMap[s]; ok {
		return []string{s}
	}
	return []string{"physics", "chemistry", "biology"}
}

type orderedSet struct {
	items []string
	seen  map[string]struct{}
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = map[string]struct{}{}
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.items = append(s.items, v)
}

func skills(unit domain.LearningUnit, comp domain.ContentComposition, content string) []string {
	var s orderedSet
	lower := strings.ToLower(content)
	if comp.ActivityCount > 0 {
		s.add("observation")
		s.add("experimentation")
		s.add("data_collection")
		for _, seg := range unit.Segments {
			if seg.Type != domain.ElementActivity {
				continue
			}
			if strings.Contains(strings.ToLower(seg.Text), "measure") {
				s.add("measurement")
			}
		}
	}
	if comp.ExampleCount > 0 {
		s.add("problem_solving")
		s.add("calculation")
		s.add("application")
	}
	if comp.QuestionCount > 0 {
		s.add("analytical_thinking")
		s.add("critical_thinking")
	}
	if comp.FormulaCount > 0 {
		s.add("mathematical_reasoning")
	}
	if strings.Contains(lower, "graph") || strings.Contains(lower, "plot") {
		s.add("data_visualization")
	}
	return s.items
}

func objectives(unit domain.LearningUnit, content string) []string {
	var s orderedSet
	for _, m := range explicitObjective.FindAllStringSubmatch(content, -1) {
		if obj := strings.TrimSpace(m[1]); len(obj) > 10 {
			s.add(obj)
		}
	}
	for _, seg := range unit.Segments {
		switch seg.Type {
		case domain.ElementActivity:
			s.add(activityObjective(seg.Text))
		case domain.ElementExample:
			s.add(exampleObjective(seg.Text))
		}
	}
	return s.items
}

func activityObjective(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "observe"):
		return "Develop observation skills through hands-on investigation"
	case strings.Contains(lower, "measure"):
		return "Learn measurement techniques and data collection"
	case strings.Contains(lower, "calculate"):
		return "Apply mathematical concepts to solve problems"
	case strings.Contains(lower, "experiment"):
		return "Understand scientific method through experimentation"
	case strings.Contains(lower, "compare"):
		return "Develop analytical thinking through comparison"
	default:
		return "Apply theoretical concepts through practical activity"
	}
}

func exampleObjective(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "solution") || strings.Contains(lower, "solve"):
		return "Solve problems using learned concepts and formulas"
	case strings.Contains(lower, "calculate"):
		return "Apply mathematical relationships to numerical problems"
	case strings.Contains(lower, "given") && strings.Contains(lower, "find"):
		return "Analyze given information to find unknown quantities"
	default:
		return "Understand concept application through worked examples"
	}
}

func prerequisites(concepts []string, grade int, subject string) []string {
	var s orderedSet
	for _, c := range concepts {
		for _, r := range prerequisiteByStem[textutil.StemKey(c)] {
			s.add(r)
		}
	}
	subj := strings.ToLower(subject)
	if grade >= 9 && (subj == "physics" || subj == "science") {
		s.add("basic mathematics")
		s.add("algebra")
		s.add("geometry")
	}
	return s.items
}

var prerequisiteByStem = func() map[string][]string {
	m := make(map[string][]string, len(prerequisiteMap))
	for k, v := range prerequisiteMap {
		m[textutil.StemKey(k)] = v
	}
	return m
}()

func misconceptions(content string, concepts []string) []string {
	var s orderedSet
	for _, m := range misconceptionCue.FindAllStringSubmatch(content, -1) {
		if c := strings.TrimSpace(m[1]); len(c) >= 20 {
			s.add(c)
		}
	}
	for _, subj := range []string{"physics", "chemistry", "biology"} {
		for _, known := range knownMisconceptions[subj] {
			for _, c := range concepts {
				if textutil.ContainsPhrase(known, c) {
					s.add(known)
					break
				}
			}
		}
	}
	if len(s.items) > 5 {
		return s.items[:5]
	}
	return s.items
}

func careers(concepts []string, subject string) []string {
	var s orderedSet
	for _, subj := range subjectKeys(subject) {
		m := careerMap[subj]
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, c := range concepts {
			for _, k := range keys {
				if textutil.ContainsPhrase(c, k) {
					for _, career := range m[k] {
						s.add(career)
					}
				}
			}
		}
	}
	return s.items
}

// sectionReferences lists mentions of other sections and elements, skipping the unit's own markers.
func sectionReferences(content, section string, comp domain.ContentComposition) []string {
	own := map[string]struct{}{"Section " + section: {}}
	for _, id := range comp.Activities {
		own["Activity "+id] = struct{}{}
	}
	for _, id := range comp.Examples {
		own["Example "+id] = struct{}{}
	}
	for _, id := range comp.Figures {
		own["Fig. "+id] = struct{}{}
		own["Figure "+id] = struct{}{}
	}
	var s orderedSet
	for _, m := range sectionRef.FindAllStringSubmatch(content, -1) {
		ref := m[1] + " " + m[2]
		if _, ok := own[ref]; ok {
			continue
		}
		s.add(ref)
	}
	return s.items
}

// keywords collects domain compound terms, then concepts, then frequent content words.
func (e *Engine) keywords(content string, concepts []string) []string {
	var out []string
	seen := map[string]struct{}{}
	push := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if len(out) >= e.cfg.MaxKeywords || k == "" {
			return
		}
		key := textutil.StemKey(k)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, k)
	}
	for _, m := range domainSuffix.FindAllStringSubmatch(content, -1) {
		if first := strings.Fields(m[1])[0]; !textutil.IsStopword(strings.ToLower(first)) {
			push(m[1])
		}
	}
	for _, c := range concepts {
		push(c)
	}

	type freq struct {
		word  string
		count int
		first int
	}
	counts := map[string]*freq{}
	for i, tok := range textutil.ContentTokens(content) {
		if len([]rune(tok)) < 4 {
			continue
		}
		if _, generic := genericTerms[tok]; generic {
			continue
		}
		if f, ok := counts[tok]; ok {
			f.count++
		} else {
			counts[tok] = &freq{word: tok, count: 1, first: i}
		}
	}
	list := make([]*freq, 0, len(counts))
	for _, f := range counts {
		if f.count >= 2 {
			list = append(list, f)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].count != list[j].count {
			return list[i].count > list[j].count
		}
		return list[i].first < list[j].first
	})
	for _, f := range list {
		push(f.word)
	}
	return out
}
