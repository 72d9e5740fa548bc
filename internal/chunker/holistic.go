package chunker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"ncertrag/internal/assembler"
	"ncertrag/internal/boundary"
	"ncertrag/internal/domain"
	"ncertrag/internal/logger"
	"ncertrag/internal/metadata"
	"ncertrag/internal/metrics"
	"ncertrag/internal/patterns"
	"ncertrag/internal/quality"
	"ncertrag/internal/residual"
)

// spanTypes are the marker types whose content is captured as a span. Formulas are inline
// and stay inside whatever segment contains them.
var spanTypes = []domain.ElementType{
	domain.ElementActivity,
	domain.ElementExample,
	domain.ElementSpecialBox,
	domain.ElementQuestion,
	domain.ElementSummary,
}

// Deps are the collaborators of a Chunker. Nil fields get rule-based defaults.
type Deps struct {
	Matcher       *patterns.Matcher
	Detector      *boundary.Detector
	Assembler     *assembler.Assembler
	Metadata      *metadata.Engine
	Validator     *quality.Validator
	BoundaryHints domain.BoundaryHintProvider
	Metrics       *metrics.Pipeline
	Log           *logger.Logger
}

// Chunker turns one section of a document into holistic chunks.
type Chunker struct {
	matcher   *patterns.Matcher
	detector  *boundary.Detector
	assembler *assembler.Assembler
	metadata  *metadata.Engine
	validator *quality.Validator
	hints     domain.BoundaryHintProvider
	validate  *validator.Validate
	metrics   *metrics.Pipeline
	log       *logger.Logger
}

func New(d Deps) *Chunker {
	if d.Matcher == nil {
		d.Matcher = patterns.NewMatcher(patterns.DefaultNCERT())
	}
	if d.Detector == nil {
		d.Detector = boundary.NewDetector(d.Matcher, boundary.DefaultConfig())
	}
	if d.Assembler == nil {
		d.Assembler = assembler.New(assembler.DefaultConfig())
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Metadata == nil {
		d.Metadata = metadata.NewEngine(d.Matcher, nil, metadata.DefaultConfig(), d.Log)
	}
	if d.Validator == nil {
		d.Validator = quality.NewValidator(quality.DefaultConfig())
	}
	return &Chunker{
		matcher:   d.Matcher,
		detector:  d.Detector,
		assembler: d.Assembler,
		metadata:  d.Metadata,
		validator: d.Validator,
		hints:     d.BoundaryHints,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		metrics:   d.Metrics,
		log:       d.Log,
	}
}

// Result is the outcome of chunking one section.
type Result struct {
	Section domain.RawSection
	Chunks  []domain.HolisticChunk
	// NoElements is set when the section held no educational markers at all.
	NoElements bool
	Degraded   int
	Failed     int
}

// Check validates a section descriptor against the document it points into.
// Missing fields yield ErrInvalidSection; bounds that do not fit the text yield ErrMalformedInput.
func (c *Chunker) Check(doc domain.Document, sec domain.RawSection) error {
	if err := c.validate.Struct(sec); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSection, err)
	}
	if sec.StartPos > sec.EndPos || sec.EndPos > len(doc.Text) {
		return fmt.Errorf("%w: section %s bounds [%d,%d) outside text of length %d",
			domain.ErrMalformedInput, sec.SectionNumber, sec.StartPos, sec.EndPos, len(doc.Text))
	}
	return nil
}

// ChunkSection runs the full pipeline over one section. Chunk spans are document offsets.
func (c *Chunker) ChunkSection(ctx context.Context, doc domain.Document, sec domain.RawSection) (Result, error) {
	start := time.Now()
	res := Result{Section: sec}
	if err := c.Check(doc, sec); err != nil {
		c.metrics.SectionProcessed(metrics.StatusSkipped, time.Since(start))
		return res, err
	}
	log := c.log.With("document", doc.ID, "section", sec.SectionNumber)
	text := doc.Text[sec.StartPos:sec.EndPos]

	units, noElements := c.units(ctx, text, log)
	res.NoElements = noElements
	if noElements {
		log.Info("no educational elements found, section kept as prose")
	}
	c.finish(ctx, doc, sec, text, units, &res, log, c.metrics)

	status := metrics.StatusOK
	if len(res.Chunks) == 0 {
		status = metrics.StatusEmpty
	}
	c.metrics.SectionProcessed(status, time.Since(start))
	c.metrics.ChunksEmitted(len(res.Chunks))
	log.Debug("section chunked", "chunks", len(res.Chunks), "degraded", res.Degraded, "elapsed", time.Since(start))
	return res, nil
}

// ChunkSectionBaseline scores the sentence-window baseline of a section with the same metadata
// and validation as ChunkSection. Nothing is recorded in the pipeline metrics.
func (c *Chunker) ChunkSectionBaseline(ctx context.Context, doc domain.Document, sec domain.RawSection, b *SentenceChunker) (Result, error) {
	res := Result{Section: sec}
	if err := c.Check(doc, sec); err != nil {
		return res, err
	}
	text := doc.Text[sec.StartPos:sec.EndPos]
	c.finish(ctx, doc, sec, text, b.Units(text), &res, logger.NewNop(), nil)
	return res, nil
}

func (c *Chunker) finish(ctx context.Context, doc domain.Document, sec domain.RawSection, text string, units []domain.LearningUnit, res *Result, log *logger.Logger, m *metrics.Pipeline) {
	for i, u := range units {
		chunk := c.chunk(ctx, doc, sec, text, u, i+1)
		if chunk.BoundaryDegraded {
			res.Degraded++
			m.BoundaryDegraded()
			log.Warn("no sentence boundary in reach, kept length cap", "chunk_id", chunk.ChunkID)
		}
		if !chunk.Validation.Passed {
			res.Failed++
			m.ValidationFailed()
			log.Info("chunk failed validation", "chunk_id", chunk.ChunkID,
				"overall", chunk.Validation.OverallScore, "issues", len(chunk.Validation.Issues))
		}
		res.Chunks = append(res.Chunks, chunk)
	}
}

// Units exposes the assembled learning units of a section text without metadata.
func (c *Chunker) Units(ctx context.Context, text string) []domain.LearningUnit {
	units, _ := c.units(ctx, text, c.log)
	return units
}

func (c *Chunker) units(ctx context.Context, text string, log *logger.Logger) ([]domain.LearningUnit, bool) {
	in, found := c.segments(text)
	return c.assembler.AssembleHinted(in, c.splits(ctx, text, log)), !found
}

// segments detects every element span, figures first so that enclosing elements can skip them,
// and fills the rest of the text with residual prose.
func (c *Chunker) segments(text string) (assembler.Input, bool) {
	var in assembler.Input
	figures := c.spansOf(text, c.matcher.FindMatches(text, domain.ElementFigure), nil)
	inner := make([]domain.Span, len(figures))
	for i, f := range figures {
		inner[i] = f.Span()
	}
	elements := c.spansOf(text, c.matcher.FindAll(text, spanTypes...), inner)

	var taken []domain.Span
	for _, e := range elements {
		taken = append(taken, e.Span())
		switch e.Type {
		case domain.ElementActivity:
			in.Activities = append(in.Activities, e)
		case domain.ElementExample:
			in.Examples = append(in.Examples, e)
		case domain.ElementSpecialBox:
			in.SpecialBoxes = append(in.SpecialBoxes, e)
		default:
			in.Other = append(in.Other, e)
		}
	}
	// a figure inside an element belongs to that element
	for _, f := range figures {
		f, ok := clipOutside(text, f, taken)
		if !ok {
			continue
		}
		taken = append(taken, f.Span())
		in.Figures = append(in.Figures, f)
	}
	in.Residual = residual.Fragments(text, taken)
	return in, len(c.matcher.FindAll(text)) > 0
}

// spansOf runs the boundary detector for each match. A match starting inside an earlier
// element is part of that element and is not captured again.
func (c *Chunker) spansOf(text string, matches []domain.ElementMatch, inner []domain.Span) []domain.Segment {
	var out []domain.Segment
	var last domain.Span
	for _, m := range matches {
		if last.Contains(m.StartPos) {
			continue
		}
		r := c.detector.Detect(text, m.StartPos, m.Type, inner)
		if r.End <= m.StartPos {
			continue
		}
		span := domain.Span{Start: m.StartPos, End: r.End}
		seg, ok := residual.Trim(text, span)
		if !ok {
			continue
		}
		seg.Type = m.Type
		seg.Identifier = m.Identifier
		seg.Degraded = r.Degraded
		out = append(out, seg)
		last = span
	}
	return out
}

// clipOutside shortens f so that it does not overlap any taken span, dropping it when nothing is left.
func clipOutside(text string, f domain.Segment, taken []domain.Span) (domain.Segment, bool) {
	span := f.Span()
	for _, t := range taken {
		if !span.Overlaps(t) {
			continue
		}
		switch {
		case t.Start <= span.Start && t.End >= span.End:
			return domain.Segment{}, false
		case t.Start <= span.Start:
			span.Start = t.End
		default:
			span.End = t.Start
		}
	}
	seg, ok := residual.Trim(text, span)
	if !ok {
		return domain.Segment{}, false
	}
	seg.Type, seg.Identifier, seg.Degraded = f.Type, f.Identifier, f.Degraded
	return seg, true
}

// splits asks the boundary hint provider for unit starts. Failures fall back to rules only.
func (c *Chunker) splits(ctx context.Context, text string, log *logger.Logger) []int {
	if c.hints == nil {
		return nil
	}
	h, err := c.hints.DetectBoundaries(ctx, text)
	if err != nil {
		log.Warn("boundary hints unavailable, using rule-based boundaries", "provider", c.hints.Name(), "error", err)
		return nil
	}
	var out []int
	for _, u := range h.LearningUnits {
		if u.Start > 0 && u.Start < len(text) {
			out = append(out, u.Start)
		}
	}
	return out
}

func (c *Chunker) chunk(ctx context.Context, doc domain.Document, sec domain.RawSection, text string, u domain.LearningUnit, seq int) domain.HolisticChunk {
	md := c.metadata.Extract(ctx, u, text, sec)
	base := sec.StartPos
	if len(doc.Pages) > 0 {
		md.BasicInfo.PageStart = doc.Pages.PageAt(base + u.Start)
		md.BasicInfo.PageEnd = doc.Pages.PageAt(base + u.End - 1)
	}
	spans := u.Spans()
	for i := range spans {
		spans[i].Start += base
		spans[i].End += base
	}
	chunk := domain.HolisticChunk{
		ChunkID:       ChunkID(sec.SectionNumber, seq),
		Version:       1,
		DocumentID:    doc.ID,
		SectionNumber: sec.SectionNumber,
		Sequence:      seq,
		Content:       u.Content(),
		QualityScore:  metadata.QualityScore(md.QualityIndicators),
		Metadata:      md,
		PedagogicalContext: domain.PedagogicalContext{
			HasActivities:      u.Has(domain.ElementActivity),
			HasExamples:        u.Has(domain.ElementExample),
			IsCompleteUnit:     !u.ContextPoor && !u.Degraded(),
			LearningObjectives: md.ConceptsAndSkills.LearningObjectives,
		},
		Spans:            spans,
		BoundaryDegraded: u.Degraded(),
		ContextPoor:      u.ContextPoor,
	}
	chunk.Validation = c.validator.Validate(chunk)
	return chunk
}

// ChunkID is the stable identifier of the seq-th chunk of a section.
func ChunkID(section string, seq int) string {
	return fmt.Sprintf("contextual_%s_%03d", section, seq)
}
