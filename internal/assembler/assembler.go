package assembler

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

// Config controls how segments are grouped. Sizes count characters, not bytes.
type Config struct {
	// GlueThreshold is the residual length at which prose stops gluing to the preceding unit.
	GlueThreshold int `yaml:"glue_threshold"`
	MaxUnitSize   int `yaml:"max_unit_size"`
	// MinUnitSize is the size below which a trailing prose-only unit is folded into its predecessor.
	MinUnitSize int `yaml:"min_unit_size"`
}

func DefaultConfig() Config {
	return Config{GlueThreshold: 300, MaxUnitSize: 4000, MinUnitSize: 200}
}

// Input carries the segments of one section. Positions are in the same coordinate space.
type Input struct {
	Residual     []domain.Segment
	Activities   []domain.Segment
	Examples     []domain.Segment
	Figures      []domain.Segment
	SpecialBoxes []domain.Segment
	// Other holds typed segments outside the four core kinds, such as summaries and question blocks.
	Other []domain.Segment
}

func (in Input) all() []domain.Segment {
	var segs []domain.Segment
	for _, group := range [][]domain.Segment{in.Residual, in.Activities, in.Examples, in.Figures, in.SpecialBoxes, in.Other} {
		for _, s := range group {
			if s.End > s.Start && s.Text != "" {
				segs = append(segs, s)
			}
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
	return segs
}

// Assembler groups typed segments into learning units.
type Assembler struct {
	cfg Config
}

func New(cfg Config) *Assembler {
	def := DefaultConfig()
	if cfg.GlueThreshold <= 0 {
		cfg.GlueThreshold = def.GlueThreshold
	}
	if cfg.MaxUnitSize <= 0 {
		cfg.MaxUnitSize = def.MaxUnitSize
	}
	if cfg.MinUnitSize < 0 || cfg.MinUnitSize >= cfg.MaxUnitSize {
		cfg.MinUnitSize = def.MinUnitSize
	}
	return &Assembler{cfg: cfg}
}

// Assemble groups the input into learning units in source order.
func (a *Assembler) Assemble(in Input) []domain.LearningUnit {
	return a.AssembleHinted(in, nil)
}

// AssembleHinted is Assemble with extra split offsets proposed by a hint provider.
// A hint only takes effect when it falls between two segments; segments are never cut.
func (a *Assembler) AssembleHinted(in Input, splits []int) []domain.LearningUnit {
	segs := a.presplit(in.all())
	if len(segs) == 0 {
		return nil
	}

	var units []domain.LearningUnit
	var cur domain.LearningUnit
	for _, s := range segs {
		if len(cur.Segments) > 0 && a.breakBefore(cur, s, splits) {
			units = append(units, cur)
			cur = domain.LearningUnit{}
		}
		cur = appendSegment(cur, s)
	}
	units = append(units, cur)

	units = a.mergeBare(units)
	units = a.foldTail(units)
	for i := range units {
		units[i].ID = fmt.Sprintf("unit_%03d", i+1)
		units[i].ContextPoor = bare(units[i])
	}
	return units
}

func (a *Assembler) breakBefore(cur domain.LearningUnit, s domain.Segment, splits []int) bool {
	if cur.Size()+2+runes(s.Text) > a.cfg.MaxUnitSize {
		return true
	}
	for _, h := range splits {
		if h >= cur.End && h <= s.Start {
			return true
		}
	}
	// long prose after a finished activity or example introduces the next unit
	return s.Type == domain.ElementProse && runes(s.Text) >= a.cfg.GlueThreshold && cur.HasCore()
}

// presplit cuts prose segments longer than the unit cap at sentence ends.
func (a *Assembler) presplit(segs []domain.Segment) []domain.Segment {
	out := make([]domain.Segment, 0, len(segs))
	for _, s := range segs {
		if s.Type != domain.ElementProse || runes(s.Text) <= a.cfg.MaxUnitSize {
			out = append(out, s)
			continue
		}
		out = append(out, splitProse(s, a.cfg.MaxUnitSize)...)
	}
	return out
}

func splitProse(s domain.Segment, limit int) []domain.Segment {
	sentences := textutil.Split(s.Text)
	var out []domain.Segment
	first := -1
	flush := func(lastEnd int) {
		if first < 0 {
			return
		}
		out = append(out, domain.Segment{
			Type:  s.Type,
			Text:  s.Text[first:lastEnd],
			Start: s.Start + first,
			End:   s.Start + lastEnd,
		})
		first = -1
	}
	prevEnd := 0
	for _, sent := range sentences {
		if first >= 0 && runes(s.Text[first:sent.End]) > limit {
			flush(prevEnd)
		}
		if first < 0 {
			first = sent.Start
		}
		prevEnd = sent.End
	}
	flush(prevEnd)
	return out
}

// mergeBare joins a unit holding only activities or examples with a neighbour when the result fits.
func (a *Assembler) mergeBare(units []domain.LearningUnit) []domain.LearningUnit {
	out := make([]domain.LearningUnit, 0, len(units))
	for _, u := range units {
		if n := len(out); n > 0 && (bare(u) || bare(out[n-1])) && a.fits(out[n-1], u) {
			out[n-1] = join(out[n-1], u)
			continue
		}
		out = append(out, u)
	}
	return out
}

// foldTail merges a short prose-only closing unit into the unit before it.
func (a *Assembler) foldTail(units []domain.LearningUnit) []domain.LearningUnit {
	n := len(units)
	if n < 2 {
		return units
	}
	last := units[n-1]
	if last.HasCore() || last.Size() >= a.cfg.MinUnitSize || !a.fits(units[n-2], last) {
		return units
	}
	units[n-2] = join(units[n-2], last)
	return units[:n-1]
}

func (a *Assembler) fits(x, y domain.LearningUnit) bool {
	return x.Size()+2+y.Size() <= a.cfg.MaxUnitSize
}

func runes(s string) int { return utf8.RuneCountInString(s) }

// bare reports a unit with activities or examples but no explanatory prose.
func bare(u domain.LearningUnit) bool {
	return u.HasCore() && !u.Has(domain.ElementProse)
}

func appendSegment(u domain.LearningUnit, s domain.Segment) domain.LearningUnit {
	if len(u.Segments) == 0 {
		u.Start = s.Start
	}
	u.Segments = append(u.Segments, s)
	if s.End > u.End {
		u.End = s.End
	}
	return u
}

func join(x, y domain.LearningUnit) domain.LearningUnit {
	for _, s := range y.Segments {
		x = appendSegment(x, s)
	}
	return x
}
