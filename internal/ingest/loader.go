package ingest

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"ncertrag/internal/textutil"
)

// ErrUnsupported is returned for files that are neither .txt nor .pdf.
var ErrUnsupported = errors.New("unsupported document type")

// Options describe the book a document belongs to.
type Options struct {
	GradeLevel int
	Subject    string
	// Chapter of zero is inferred from the first section header.
	Chapter int
}

// Page is the extracted text of one source page.
type Page struct {
	Number int
	Text   string
}

var (
	blankRuns = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceRuns = regexp.MustCompile(`[ \t]+`)
	reprint   = regexp.MustCompile(`Reprint\s+\d{4}-\d{2}`)
)

// Expand resolves globs and directories and keeps supported files, sorted and without duplicates.
func Expand(paths []string) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(p string) {
		if !Supported(p) {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, p := range paths {
		matches, _ := filepath.Glob(p)
		if matches == nil {
			matches = []string{p}
		}
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				_ = filepath.WalkDir(m, func(path string, d os.DirEntry, err error) error {
					if err == nil && !d.IsDir() {
						add(path)
					}
					return nil
				})
				continue
			}
			add(m)
		}
	}
	sort.Strings(out)
	return out
}

// Supported reports whether path has a loadable extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// DocumentID derives a stable id from the document path.
func DocumentID(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}

// Clean normalises extracted page text: NFC, single spaces, at most one blank line, no reprint stamps.
func Clean(text string) string {
	text = textutil.NFC(strings.ReplaceAll(text, "\r\n", "\n"))
	text = reprint.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// ReadText loads a plain text file. Form feeds separate pages.
func ReadText(path string) ([]Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	raw := strings.Split(string(data), "\f")
	pages := make([]Page, 0, len(raw))
	for i, p := range raw {
		pages = append(pages, Page{Number: i + 1, Text: p})
	}
	return pages, nil
}

// ReadPDF extracts the plain text of every page of a PDF file.
func ReadPDF(path string) ([]Page, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf %s page %d: %w", path, i, err)
		}
		pages = append(pages, Page{Number: i, Text: text})
	}
	return pages, nil
}
