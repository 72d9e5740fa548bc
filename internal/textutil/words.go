package textutil

import (
	"regexp"
	"strings"

	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

var wordRe = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*(?:['’]\p{L}+)*`)

// NFC returns the canonical composed form of s. Devanagari markers only match reliably in NFC.
func NFC(s string) string {
	return norm.NFC.String(s)
}

// CollapseSpace replaces every whitespace run with a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Tokens returns the lower-cased word tokens of s.
func Tokens(s string) []string {
	return wordRe.FindAllString(strings.ToLower(s), -1)
}

// ContentTokens returns Tokens with stopwords removed.
func ContentTokens(s string) []string {
	raw := Tokens(s)
	out := raw[:0]
	for _, t := range raw {
		if IsStopword(t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Stem returns the English snowball stem of a lower-cased word; non-English words are returned unchanged.
func Stem(word string) string {
	w := strings.ToLower(word)
	s, err := snowball.Stem(w, "english", true)
	if err != nil || s == "" {
		return w
	}
	return s
}

// StemKey reduces a phrase to a space-joined sequence of stems, for case- and inflection-insensitive comparison.
func StemKey(phrase string) string {
	toks := Tokens(phrase)
	for i, t := range toks {
		toks[i] = Stem(t)
	}
	return strings.Join(toks, " ")
}

// ContainsPhrase reports whether the stemmed form of phrase occurs as a whole-word run inside the stemmed text.
func ContainsPhrase(text, phrase string) bool {
	p := StemKey(phrase)
	if p == "" {
		return false
	}
	t := " " + StemKey(text) + " "
	return strings.Contains(t, " "+p+" ")
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
