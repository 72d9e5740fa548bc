package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentence is a trimmed sentence with its byte offsets in the source text.
type Sentence struct {
	Text  string
	Start int
	End   int
}

var (
	abbreviations = map[string]struct{}{
		"fig": {}, "figs": {}, "eq": {}, "eqs": {}, "e.g": {}, "i.e": {}, "etc": {},
		"vs": {}, "dr": {}, "mr": {}, "mrs": {}, "ms": {}, "st": {}, "approx": {}, "viz": {},
	}
	listItemRe = regexp.MustCompile(`^(?:[•◦▪●\-*–]\s*|\(?[0-9]{1,2}[.)]\s+|\(?[a-h][.)]\s+|\(?(?:i|ii|iii|iv|v|vi|vii|viii|ix|x)[.)]\s+)`)
)

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '।'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

// SentenceEnd reports whether the terminator rune at byte offset i closes a sentence.
// It returns the offset just past the terminator and any closing quotes or brackets.
func SentenceEnd(text string, i int) (int, bool) {
	r, size := utf8.DecodeRuneInString(text[i:])
	if !isTerminator(r) {
		return 0, false
	}
	j := i + size
	for j < len(text) {
		c, n := utf8.DecodeRuneInString(text[j:])
		if !isCloser(c) {
			break
		}
		j += n
	}
	if j < len(text) {
		c, _ := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(c) {
			return 0, false
		}
	}
	if r == '.' && isAbbreviation(text, i) {
		return 0, false
	}
	return j, true
}

func isAbbreviation(text string, dot int) bool {
	k := dot
	for k > 0 {
		r, n := utf8.DecodeLastRuneInString(text[:k])
		if !unicode.IsLetter(r) && r != '.' {
			break
		}
		k -= n
	}
	word := strings.ToLower(strings.Trim(text[k:dot], "."))
	if word == "" {
		return false
	}
	_, ok := abbreviations[word]
	return ok
}

// Split breaks text into sentences. Paragraph breaks also end a sentence.
func Split(text string) []Sentence {
	var out []Sentence
	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		seg := text[start:end]
		trimmed := strings.TrimRightFunc(seg, unicode.IsSpace)
		if trimmed != "" {
			out = append(out, Sentence{Text: trimmed, Start: start, End: start + len(trimmed)})
		}
		start = -1
	}
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if start < 0 && !unicode.IsSpace(r) {
			start = i
		}
		if r == '\n' && isParagraphBreak(text, i) {
			emit(i)
			i += size
			continue
		}
		if start >= 0 && isTerminator(r) {
			if end, ok := SentenceEnd(text, i); ok {
				emit(end)
				i = end
				continue
			}
		}
		i += size
	}
	emit(len(text))
	return out
}

func isParagraphBreak(text string, i int) bool {
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case ' ', '\t', '\r':
			continue
		case '\n':
			return true
		default:
			return false
		}
	}
	return false
}

// LastBoundary returns the end offset of the last sentence that closes inside text[lo:hi], or -1.
func LastBoundary(text string, lo, hi int) int {
	if lo < 0 {
		lo = 0
	}
	if hi > len(text) {
		hi = len(text)
	}
	last := -1
	for i := lo; i < hi; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isTerminator(r) {
			if end, ok := SentenceEnd(text, i); ok && end <= hi {
				last = end
			}
		}
		i += size
	}
	return last
}

// NextBoundary returns the end offset of the first sentence that closes at or after from, or -1.
func NextBoundary(text string, from, limit int) int {
	if limit > len(text) {
		limit = len(text)
	}
	for i := from; i < limit; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if isTerminator(r) {
			if end, ok := SentenceEnd(text, i); ok {
				return end
			}
		}
		if r == '\n' && isParagraphBreak(text, i) {
			return i
		}
		i += size
	}
	return -1
}

// IsListLine reports whether the line looks like a bullet or enumerated list item.
func IsListLine(line string) bool {
	return listItemRe.MatchString(strings.TrimSpace(line))
}

// EndsComplete reports whether text ends with terminal punctuation or inside a list block.
func EndsComplete(text string) bool {
	t := strings.TrimRightFunc(text, unicode.IsSpace)
	if t == "" {
		return false
	}
	for {
		r, n := utf8.DecodeLastRuneInString(t)
		if !isCloser(r) {
			break
		}
		t = t[:len(t)-n]
		if t == "" {
			return false
		}
	}
	r, _ := utf8.DecodeLastRuneInString(t)
	if isTerminator(r) {
		return true
	}
	lastLine := t
	if i := strings.LastIndexByte(t, '\n'); i >= 0 {
		lastLine = t[i+1:]
	}
	return IsListLine(lastLine)
}

// IsWordRune reports whether r can be part of a word token.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

// SplitsWord reports whether cutting text at offset would split a token.
func SplitsWord(text string, offset int) bool {
	if offset <= 0 || offset >= len(text) {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(text[:offset])
	after, _ := utf8.DecodeRuneInString(text[offset:])
	return IsWordRune(before) && IsWordRune(after)
}

// EndsWithHyphenation reports whether text ends with a word broken across a line ("accele-").
func EndsWithHyphenation(text string) bool {
	t := strings.TrimRightFunc(text, unicode.IsSpace)
	if !strings.HasSuffix(t, "-") || len(t) < 2 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(t[:len(t)-1])
	return unicode.IsLetter(r)
}
