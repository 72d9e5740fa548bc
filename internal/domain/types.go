package domain

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ElementType tags a recognised educational marker or a segment of a learning unit.
type ElementType string

const (
	ElementActivity      ElementType = "ACTIVITY"
	ElementExample       ElementType = "EXAMPLE"
	ElementFigure        ElementType = "FIGURE"
	ElementSpecialBox    ElementType = "SPECIAL_BOX"
	ElementFormula       ElementType = "FORMULA"
	ElementQuestion      ElementType = "QUESTION"
	ElementSummary       ElementType = "SUMMARY"
	ElementSectionHeader ElementType = "SECTION_HEADER"
	// ElementProse marks residual text that no typed element captured.
	ElementProse ElementType = "PROSE"
)

// MarkerTypes lists the element types a PatternMatcher reports on, in reporting order.
var MarkerTypes = []ElementType{
	ElementActivity,
	ElementExample,
	ElementFigure,
	ElementSpecialBox,
	ElementFormula,
	ElementQuestion,
	ElementSummary,
}

// IsCore reports whether the type is a concrete learning element (activity or example).
func (t ElementType) IsCore() bool {
	return t == ElementActivity || t == ElementExample
}

// Document is a loaded source file: a single linear text stream plus its page mapping.
type Document struct {
	ID         string
	Path       string
	Title      string
	Text       string
	Pages      PageMap
	GradeLevel int
	Subject    string
	Chapter    int
}

// PageStart records that the page begins at the given byte offset.
type PageStart struct {
	Offset int
	Page   int
}

// PageMap maps text offsets to page numbers. Entries are sorted by Offset.
type PageMap []PageStart

// PageAt returns the page containing offset, or 0 when the map is empty.
func (m PageMap) PageAt(offset int) int {
	if len(m) == 0 {
		return 0
	}
	i := sort.Search(len(m), func(i int) bool { return m[i].Offset > offset })
	if i == 0 {
		return m[0].Page
	}
	return m[i-1].Page
}

// RawSection is one numbered section of a document. Offsets are byte offsets into Document.Text.
type RawSection struct {
	SectionNumber string `validate:"required"`
	Title         string
	StartPos      int    `validate:"gte=0"`
	EndPos        int    `validate:"gte=0"`
	Subject       string `validate:"required"`
	GradeLevel    int    `validate:"required,gte=1,lte=12"`
	Chapter       int    `validate:"gte=0"`
}

// ElementMatch is a marker found by the pattern matcher. Positions are relative to the searched text.
type ElementMatch struct {
	Type       ElementType
	Identifier string
	StartPos   int
	// MarkerEnd is the end of the marker text itself, not of the element content.
	MarkerEnd  int
	Confidence float64
	PatternID  string
}

// Span is a half-open [Start, End) interval.
type Span struct {
	Start int
	End   int
}

func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Overlaps reports whether the two spans share at least one offset.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Contains reports whether offset lies inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Segment is one typed piece of text inside a learning unit.
type Segment struct {
	Type       ElementType
	Identifier string
	Text       string
	Start      int
	End        int
	// Degraded is set when the segment end fell back to the hard length cap.
	Degraded bool
}

func (s Segment) Span() Span { return Span{Start: s.Start, End: s.End} }

// LearningUnit is an ordered run of segments that will become one chunk.
type LearningUnit struct {
	ID       string
	Segments []Segment
	Start    int
	End      int
	// ContextPoor is set when the unit is a bare activity or example without surrounding prose.
	ContextPoor bool
}

// Content joins the segment texts with paragraph breaks.
func (u LearningUnit) Content() string {
	parts := make([]string, 0, len(u.Segments))
	for _, s := range u.Segments {
		t := strings.TrimSpace(s.Text)
		if t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Size is the length of Content in characters without building it.
func (u LearningUnit) Size() int {
	n := 0
	for _, s := range u.Segments {
		t := strings.TrimSpace(s.Text)
		if t == "" {
			continue
		}
		if n > 0 {
			n += 2
		}
		n += utf8.RuneCountInString(t)
	}
	return n
}

func (u LearningUnit) Has(t ElementType) bool {
	for _, s := range u.Segments {
		if s.Type == t {
			return true
		}
	}
	return false
}

// HasCore reports whether the unit contains an activity or an example.
func (u LearningUnit) HasCore() bool {
	return u.Has(ElementActivity) || u.Has(ElementExample)
}

// Identifiers returns the distinct identifiers of segments of type t in order of appearance.
func (u LearningUnit) Identifiers(t ElementType) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, s := range u.Segments {
		if s.Type != t || s.Identifier == "" {
			continue
		}
		if _, ok := seen[s.Identifier]; ok {
			continue
		}
		seen[s.Identifier] = struct{}{}
		out = append(out, s.Identifier)
	}
	return out
}

// Degraded reports whether any segment ended on a fallback boundary.
func (u LearningUnit) Degraded() bool {
	for _, s := range u.Segments {
		if s.Degraded {
			return true
		}
	}
	return false
}

// Spans returns the segment spans in order.
func (u LearningUnit) Spans() []Span {
	out := make([]Span, 0, len(u.Segments))
	for _, s := range u.Segments {
		out = append(out, s.Span())
	}
	return out
}

// PedagogicalContext summarises a chunk for quick filtering.
type PedagogicalContext struct {
	HasActivities      bool     `json:"has_activities"`
	HasExamples        bool     `json:"has_examples"`
	IsCompleteUnit     bool     `json:"is_complete_unit"`
	LearningObjectives []string `json:"learning_objectives,omitempty"`
}

// HolisticChunk is the final retrieval unit.
type HolisticChunk struct {
	ChunkID            string             `json:"chunk_id"`
	Version            int                `json:"version"`
	DocumentID         string             `json:"document_id"`
	SectionNumber      string             `json:"section_number"`
	Sequence           int                `json:"sequence"`
	Content            string             `json:"content"`
	QualityScore       float64            `json:"quality_score"`
	Metadata           Metadata           `json:"metadata"`
	PedagogicalContext PedagogicalContext `json:"pedagogical_context"`
	// Spans are document-level offsets of the source text the chunk was assembled from.
	Spans            []Span           `json:"spans"`
	BoundaryDegraded bool             `json:"boundary_degraded,omitempty"`
	ContextPoor      bool             `json:"context_poor,omitempty"`
	Validation       ValidationResult `json:"validation"`
}

// ValidationResult is the structured outcome of a quality validation run.
type ValidationResult struct {
	OverallScore     float64            `json:"overall_score"`
	IndividualScores map[string]float64 `json:"individual_scores"`
	Issues           []string           `json:"issues,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
	Passed           bool               `json:"passed"`
}

// QueryType is the category a retrieval query expects.
type QueryType string

const (
	QueryAny         QueryType = ""
	QueryDefinition  QueryType = "definition"
	QueryExperiment  QueryType = "experiment"
	QueryCalculation QueryType = "calculation"
	QueryApplication QueryType = "application"
)

// Query is a parsed retrieval request.
type Query struct {
	Text            string
	Concepts        []string
	ExpectedSection string
	ExpectedType    QueryType
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk HolisticChunk
	Score float64
}

// VectorHit is a vector store match. ChunkID is the id the vector was upserted under.
type VectorHit struct {
	ChunkID string
	Score   float64
}

// ChunkRecord is the persisted form of a chunk.
type ChunkRecord struct {
	Key           string
	ChunkID       string
	Version       int
	DocumentID    string
	SectionNumber string
	Sequence      int
	Content       string
	MetadataJSON  string
	QualityScore  float64
	Passed        bool
}
