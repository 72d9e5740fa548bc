package metadata

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"ncertrag/internal/textutil"
)

var (
	// applicationBlocks are headed blocks whose sentences are all candidate applications.
	applicationBlocks = regexp.MustCompile(`(?im)^[ \t]*(?:real[- ]world applications?|applications?|do you know\??|did you know\??)[ \t]*:?[ \t]*\n?`)
	// applicationLeadIns capture the statement that follows a lead-in phrase.
	applicationLeadIns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:this is used in|applications? include)\s*([^.!?\n]+[.!?])`),
		regexp.MustCompile(`(?i)\bin (?:real|everyday|daily) life,?\s*([^.!?\n]+[.!?])`),
		regexp.MustCompile(`(?i)\bin (?:technology|industry|medicine|engineering|agriculture),?\s*([^.!?\n]+[.!?])`),
		regexp.MustCompile(`(?i)\b(?:practical|real-world) (?:applications?|uses?) (?:include|are)\s*:?\s*([^.!?\n]+[.!?])`),
	}
	applicationIndicators = []string{
		"used in", "helps us", "allows us", "enables us", "makes it possible", "is essential for",
		"is important for", "is used to", "examples include", "such as in", "for instance in",
		"in everyday life", "in daily life", "in real life",
	}
	fragmentStarts   = []string{"d today", "nd the", "of the", "e the", "s the"}
	spaceBeforePunct = regexp.MustCompile(`\s+([,.!?])`)
	repeatedPunct    = regexp.MustCompile(`([.!?])[.!?]+`)
)

// conjunctions cannot open an application; a lower-case candidate starting with one is a fragment.
var conjunctions = map[string]struct{}{
	"and": {}, "or": {}, "but": {}, "so": {}, "which": {},
}

// applications returns cleaned real-world application sentences in order of appearance.
func (e *Engine) applications(content string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(raw string) {
		if len(out) >= e.cfg.MaxApplications {
			return
		}
		app, ok := CleanApplication(raw)
		if !ok {
			return
		}
		if _, dup := seen[app]; dup {
			return
		}
		seen[app] = struct{}{}
		out = append(out, app)
	}

	for _, loc := range applicationBlocks.FindAllStringIndex(content, -1) {
		block := content[loc[1]:]
		if i := strings.Index(block, "\n\n"); i >= 0 {
			block = block[:i]
		}
		for _, s := range textutil.Split(block) {
			add(s.Text)
		}
	}
	for _, re := range applicationLeadIns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			add(m[1])
		}
	}
	for _, s := range textutil.Split(content) {
		lower := strings.ToLower(s.Text)
		for _, ind := range applicationIndicators {
			if strings.Contains(lower, ind) {
				add(s.Text)
				break
			}
		}
	}
	return out
}

// CleanApplication repairs a candidate application sentence and reports whether it is usable:
// a leading word fragment is dropped, the first letter is capitalised and a period appended.
// The result starts upper-case, ends with terminal punctuation and has at least 3 words and 20 characters.
func CleanApplication(raw string) (string, bool) {
	text := textutil.CollapseSpace(raw)
	lower := strings.ToLower(text)
	for _, frag := range fragmentStarts {
		if strings.HasPrefix(lower, frag+" ") || lower == frag {
			text = strings.TrimSpace(text[len(frag):])
			break
		}
	}
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = repeatedPunct.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	if last, _ := utf8.DecodeLastRuneInString(text); !strings.ContainsRune(".!?", last) {
		text = strings.TrimRight(text, ",;: ") + "."
	}
	r, n := utf8.DecodeRuneInString(text)
	if !unicode.IsLetter(r) {
		return "", false
	}
	words := strings.Fields(text)
	if _, bad := conjunctions[words[0]]; bad {
		return "", false
	}
	text = string(unicode.ToUpper(r)) + text[n:]
	if len(words) < 3 || utf8.RuneCountInString(text) < 20 {
		return "", false
	}
	return text, true
}
