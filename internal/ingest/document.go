package ingest

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/patterns"
)

// Load reads a .txt or .pdf file into a document with its page map.
func Load(path string, opts Options) (domain.Document, error) {
	var (
		pages []Page
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		pages, err = ReadText(path)
	case ".pdf":
		pages, err = ReadPDF(path)
	default:
		return domain.Document{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	if err != nil {
		return domain.Document{}, err
	}
	doc := FromPages(DocumentID(path), pages, opts)
	doc.Path = path
	doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return doc, nil
}

// FromPages joins cleaned pages into one text stream, recording where each page starts.
func FromPages(id string, pages []Page, opts Options) domain.Document {
	var b strings.Builder
	var pm domain.PageMap
	for _, p := range pages {
		text := Clean(p.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		pm = append(pm, domain.PageStart{Offset: b.Len(), Page: p.Number})
		b.WriteString(text)
	}
	return domain.Document{
		ID:         id,
		Text:       b.String(),
		Pages:      pm,
		GradeLevel: opts.GradeLevel,
		Subject:    opts.Subject,
		Chapter:    opts.Chapter,
	}
}

// DetectSections splits a document at its numbered section headers ("7.1 Describing Motion").
// Text before the first header is not part of any section. A document without headers becomes
// a single section "0". Repeated section numbers keep their first occurrence, and when the
// chapter is known, headers of other chapters are taken to be cross references and skipped.
func DetectSections(doc domain.Document, matcher *patterns.Matcher) []domain.RawSection {
	if strings.TrimSpace(doc.Text) == "" {
		return nil
	}
	if matcher == nil {
		matcher = patterns.NewMatcher(patterns.DefaultNCERT())
	}
	chapter := doc.Chapter

	type header struct {
		number string
		title  string
		start  int
	}
	var headers []header
	seen := map[string]struct{}{}
	for _, m := range matcher.FindMatches(doc.Text, domain.ElementSectionHeader) {
		major := majorOf(m.Identifier)
		if chapter == 0 {
			chapter = major
		}
		if major != chapter {
			continue
		}
		if _, ok := seen[m.Identifier]; ok {
			continue
		}
		seen[m.Identifier] = struct{}{}
		headers = append(headers, header{number: m.Identifier, title: titleAt(doc.Text, m), start: m.StartPos})
	}

	if len(headers) == 0 {
		return []domain.RawSection{{
			SectionNumber: "0",
			Title:         doc.Title,
			StartPos:      0,
			EndPos:        len(doc.Text),
			Subject:       doc.Subject,
			GradeLevel:    doc.GradeLevel,
			Chapter:       chapter,
		}}
	}
	out := make([]domain.RawSection, len(headers))
	for i, h := range headers {
		end := len(doc.Text)
		if i+1 < len(headers) {
			end = headers[i+1].start
		}
		out[i] = domain.RawSection{
			SectionNumber: h.number,
			Title:         h.title,
			StartPos:      h.start,
			EndPos:        end,
			Subject:       doc.Subject,
			GradeLevel:    doc.GradeLevel,
			Chapter:       chapter,
		}
	}
	return out
}

func majorOf(number string) int {
	major, _, _ := strings.Cut(number, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return 0
	}
	return n
}

// titleAt returns the rest of the header line after the section number.
func titleAt(text string, m domain.ElementMatch) string {
	line := text[m.StartPos:m.MarkerEnd]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	return strings.TrimSpace(strings.TrimPrefix(line, m.Identifier))
}
