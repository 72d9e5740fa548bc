package assembler

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

// seg builds a segment for text positioned at start.
func seg(t domain.ElementType, start int, text string) domain.Segment {
	return domain.Segment{Type: t, Text: text, Start: start, End: start + len(text)}
}

func TestIntroActivityExampleSummaryFormOneUnit(t *testing.T) {
	in := Input{
		Residual:   []domain.Segment{seg(domain.ElementProse, 0, "7.1 Title\n\nIntro text.")},
		Activities: []domain.Segment{seg(domain.ElementActivity, 24, "ACTIVITY 7.1\nDo X.\nFrom this activity, we learn Y.")},
		Examples:   []domain.Segment{seg(domain.ElementExample, 77, "Example 7.1\nCompute Z.\nSolution: Z=5.")},
		Other:      []domain.Segment{seg(domain.ElementSummary, 116, "What you have learnt\n• Y\n• Z")},
	}
	units := New(DefaultConfig()).Assemble(in)
	require.Len(t, units, 1)
	u := units[0]
	assert.True(t, u.Has(domain.ElementProse))
	assert.True(t, u.Has(domain.ElementActivity))
	assert.True(t, u.Has(domain.ElementExample))
	assert.True(t, u.Has(domain.ElementSummary))
	assert.False(t, u.ContextPoor)
	assert.True(t, strings.HasSuffix(u.Content(), "• Z"))
	assert.Equal(t, "unit_001", u.ID)
}

func TestPlainParagraphIsOneUnit(t *testing.T) {
	para := "Motion is everywhere around us. A bird flies and a river flows."
	units := New(DefaultConfig()).Assemble(Input{Residual: []domain.Segment{seg(domain.ElementProse, 0, para)}})
	require.Len(t, units, 1)
	assert.Equal(t, para, units[0].Content())
	assert.False(t, units[0].ContextPoor)
}

func TestDevanagariSizesCountCharacters(t *testing.T) {
	intro := strings.TrimSpace(strings.Repeat("बल एक धक्का या खिंचाव है। ", 37))
	activity := "गतिविधि 8.1\n" + strings.TrimSpace(strings.Repeat("एक गेंद को मेज़ पर रखिए और उसे धीरे से धकेलिए। ", 40))
	in := Input{
		Residual:   []domain.Segment{seg(domain.ElementProse, 0, intro)},
		Activities: []domain.Segment{seg(domain.ElementActivity, len(intro)+2, activity)},
	}
	units := New(DefaultConfig()).Assemble(in)
	require.Len(t, units, 1)
	u := units[0]
	assert.True(t, u.Has(domain.ElementProse))
	assert.True(t, u.Has(domain.ElementActivity))
	assert.False(t, u.ContextPoor)
	assert.Equal(t, utf8.RuneCountInString(u.Content()), u.Size())
	assert.LessOrEqual(t, u.Size(), DefaultConfig().MaxUnitSize)
	assert.Greater(t, len(u.Content()), DefaultConfig().MaxUnitSize)
}

func TestDevanagariProseSplitsByCharacters(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("बल एक धक्का या खिंचाव है। ", 200))
	units := New(DefaultConfig()).Assemble(Input{Residual: []domain.Segment{seg(domain.ElementProse, 0, text)}})
	require.Len(t, units, 2)
	for _, u := range units {
		assert.LessOrEqual(t, u.Size(), DefaultConfig().MaxUnitSize)
		assert.True(t, strings.HasSuffix(u.Content(), "।"))
	}
}

func TestEmptyInput(t *testing.T) {
	assert.Empty(t, New(DefaultConfig()).Assemble(Input{}))
}

func TestLongProseStartsNewUnit(t *testing.T) {
	intro := "Friction opposes motion. " + strings.Repeat("It acts between surfaces. ", 4)
	long := strings.Repeat("Sliding friction is smaller than static friction. ", 8)
	in := Input{
		Residual: []domain.Segment{
			seg(domain.ElementProse, 0, intro),
			seg(domain.ElementProse, 300, long),
		},
		Activities: []domain.Segment{seg(domain.ElementActivity, 150, "ACTIVITY 9.1\nPull a brick across the floor.")},
		Examples:   []domain.Segment{seg(domain.ElementExample, 800, "Example 9.1\nFind the force. Solution: F = 5 N.")},
	}
	units := New(DefaultConfig()).Assemble(in)
	require.Len(t, units, 2)
	assert.True(t, units[0].Has(domain.ElementActivity))
	assert.False(t, units[0].Has(domain.ElementExample))
	assert.True(t, units[1].Has(domain.ElementExample))
	assert.True(t, strings.HasPrefix(units[1].Content(), "Sliding friction"))
}

func TestShortConnectiveProseGlues(t *testing.T) {
	in := Input{
		Residual: []domain.Segment{
			seg(domain.ElementProse, 0, "Let us see how friction works."),
			seg(domain.ElementProse, 80, "Now try a calculation."),
		},
		Activities: []domain.Segment{seg(domain.ElementActivity, 40, "ACTIVITY 9.1\nRub your palms.")},
		Examples:   []domain.Segment{seg(domain.ElementExample, 110, "Example 9.1\nCompute it.")},
	}
	units := New(DefaultConfig()).Assemble(in)
	require.Len(t, units, 1)
	assert.Len(t, units[0].Segments, 4)
}

func TestMaxUnitSizeSplitsBeforeElement(t *testing.T) {
	cfg := Config{GlueThreshold: 300, MaxUnitSize: 120, MinUnitSize: 10}
	in := Input{
		Residual:   []domain.Segment{seg(domain.ElementProse, 0, strings.Repeat("a", 50)+".")},
		Activities: []domain.Segment{seg(domain.ElementActivity, 60, "ACTIVITY 1.1\n"+strings.Repeat("b", 40)+".")},
		Examples:   []domain.Segment{seg(domain.ElementExample, 120, "Example 1.1\n"+strings.Repeat("c", 60)+".")},
	}
	units := New(cfg).Assemble(in)
	require.Len(t, units, 2)
	for _, u := range units {
		assert.LessOrEqual(t, u.Size(), 120)
	}
	assert.True(t, units[1].Has(domain.ElementExample))
	assert.True(t, units[1].ContextPoor)
}

func TestOversizedProseSplitsAtSentences(t *testing.T) {
	cfg := Config{GlueThreshold: 300, MaxUnitSize: 100, MinUnitSize: 10}
	text := strings.Repeat("Energy can change form. ", 12)
	text = strings.TrimSpace(text)
	units := New(cfg).Assemble(Input{Residual: []domain.Segment{seg(domain.ElementProse, 0, text)}})
	require.Greater(t, len(units), 1)
	prev := 0
	for _, u := range units {
		assert.LessOrEqual(t, u.Size(), 100)
		assert.True(t, strings.HasSuffix(u.Content(), "form."))
		assert.GreaterOrEqual(t, u.Start, prev)
		prev = u.End
	}
}

func TestBareActivitiesWithoutProseAreContextPoor(t *testing.T) {
	in := Input{
		Activities: []domain.Segment{
			seg(domain.ElementActivity, 0, "ACTIVITY 7.1\nTake a ball."),
			seg(domain.ElementActivity, 30, "ACTIVITY 7.2\nRoll it."),
		},
	}
	units := New(DefaultConfig()).Assemble(in)
	require.Len(t, units, 1)
	assert.True(t, units[0].ContextPoor)
	assert.Equal(t, []string{"7.1", "7.2"}, identifiers(units[0]))
}

func identifiers(u domain.LearningUnit) []string {
	var out []string
	for _, s := range u.Segments {
		out = append(out, strings.Fields(strings.SplitN(s.Text, "\n", 2)[0])[1])
	}
	return out
}

func TestHintsSplitBetweenSegments(t *testing.T) {
	in := Input{
		Residual: []domain.Segment{
			seg(domain.ElementProse, 0, "First idea about motion."),
			seg(domain.ElementProse, 100, "Second idea about force."),
		},
		Activities: []domain.Segment{
			seg(domain.ElementActivity, 30, "ACTIVITY 7.1\nTake a ball."),
			seg(domain.ElementActivity, 130, "ACTIVITY 7.2\nPush a box."),
		},
	}
	a := New(DefaultConfig())
	require.Len(t, a.Assemble(in), 1)

	units := a.AssembleHinted(in, []int{90})
	require.Len(t, units, 2)
	assert.Equal(t, 0, units[0].Start)
	assert.Equal(t, 100, units[1].Start)

	// a hint inside a segment is ignored
	assert.Len(t, a.AssembleHinted(in, []int{35}), 1)
}

func TestUnitsAreDisjointAndOrdered(t *testing.T) {
	in := Input{
		Residual: []domain.Segment{
			seg(domain.ElementProse, 0, strings.Repeat("Intro sentence here. ", 20)),
			seg(domain.ElementProse, 900, strings.Repeat("Later prose here. ", 20)),
		},
		Activities: []domain.Segment{seg(domain.ElementActivity, 500, "ACTIVITY 2.1\nMeasure it.")},
		Figures:    []domain.Segment{seg(domain.ElementFigure, 600, "Fig. 2.1 A scale")},
		SpecialBoxes: []domain.Segment{
			seg(domain.ElementSpecialBox, 700, "DO YOU KNOW?\nRulers were once made of wood."),
		},
	}
	units := New(DefaultConfig()).Assemble(in)
	var spans []domain.Span
	for _, u := range units {
		spans = append(spans, u.Spans()...)
	}
	for i := 1; i < len(spans); i++ {
		assert.LessOrEqual(t, spans[i-1].End, spans[i].Start)
	}
	assert.Len(t, spans, 5)
}
