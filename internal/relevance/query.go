package relevance

import (
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

// ParseQuery reads a query line such as "friction section:9.2 type:experiment".
// Recognised filters are section:, type: and concept: (repeatable). Without concept:
// filters the concepts are the content words of the remaining text.
func ParseQuery(line string) domain.Query {
	var q domain.Query
	var words, explicit []string
	for _, f := range strings.Fields(line) {
		key, val, ok := strings.Cut(f, ":")
		if !ok || val == "" {
			words = append(words, f)
			continue
		}
		switch strings.ToLower(key) {
		case "section", "sec":
			q.ExpectedSection = val
		case "type":
			q.ExpectedType = domain.QueryType(strings.ToLower(val))
		case "concept":
			explicit = append(explicit, strings.ReplaceAll(val, "_", " "))
		default:
			words = append(words, f)
		}
	}
	q.Text = strings.Join(words, " ")
	if len(explicit) > 0 {
		q.Concepts = explicit
		return q
	}
	seen := map[string]struct{}{}
	for _, tok := range textutil.ContentTokens(q.Text) {
		if len([]rune(tok)) < 3 {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		q.Concepts = append(q.Concepts, tok)
	}
	return q
}
