package boundary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

const fullSection = "7.1 Title\n\nIntro text.\n\nACTIVITY 7.1\nDo X.\nFrom this activity, we learn Y.\n\nExample 7.1\nCompute Z.\nSolution: Z=5.\n\nWhat you have learnt\n• Y\n• Z"

func newDetector() *Detector {
	return NewDetector(nil, DefaultConfig())
}

func TestConsecutiveActivitiesStopAtNextMarker(t *testing.T) {
	text := "ACTIVITY 7.1\nTake a ball and roll it on the floor.\nNote how far it goes.\n\nACTIVITY 7.2\nRoll the ball on sand and compare."
	d := newDetector()

	res := d.Detect(text, 0, domain.ElementActivity, nil)
	next := strings.Index(text, "ACTIVITY 7.2")
	assert.Equal(t, next, res.End)
	assert.Equal(t, RuleStopMarker, res.Rule)
	assert.NotContains(t, text[:res.End], "7.2")
	assert.NotContains(t, text[:res.End], "sand")

	second := d.FindElementEnd(text, next, domain.ElementActivity)
	assert.Equal(t, len(text), second)
}

func TestElementEndsInFullSection(t *testing.T) {
	d := newDetector()
	act := strings.Index(fullSection, "ACTIVITY")
	ex := strings.Index(fullSection, "Example 7.1")
	sum := strings.Index(fullSection, "What you have learnt")

	assert.Equal(t, ex, d.FindElementEnd(fullSection, act, domain.ElementActivity))
	assert.Equal(t, sum, d.FindElementEnd(fullSection, ex, domain.ElementExample))
	assert.Equal(t, len(fullSection), d.FindElementEnd(fullSection, sum, domain.ElementSummary))
}

func TestConclusionPhraseEndsActivity(t *testing.T) {
	text := "ACTIVITY 7.1\nTake a ball. Roll it. From this activity, we learn that balls roll on smooth floors. " +
		strings.Repeat("Motion is common in daily life. ", 100)
	res := newDetector().Detect(text, 0, domain.ElementActivity, nil)
	assert.Equal(t, RuleConclusion, res.Rule)
	assert.True(t, strings.HasSuffix(text[:res.End], "smooth floors."))
}

func TestLengthCapSnapsToSentence(t *testing.T) {
	text := "ACTIVITY 7.1\n" + strings.Repeat("The ball keeps rolling on the floor. ", 100)
	res := newDetector().Detect(text, 0, domain.ElementActivity, nil)
	assert.Equal(t, RuleLengthCap, res.Rule)
	assert.True(t, res.Snapped)
	assert.False(t, res.Degraded)
	assert.LessOrEqual(t, res.End, 2500)
	assert.True(t, strings.HasSuffix(text[:res.End], "floor."))
}

func TestNoPunctuationIsDegradedButWordSafe(t *testing.T) {
	text := "ACTIVITY 7.1\n" + strings.Repeat("word ", 1000)
	res := newDetector().Detect(text, 0, domain.ElementActivity, nil)
	assert.True(t, res.Degraded)
	assert.LessOrEqual(t, res.End, 2500)
	assert.False(t, textutil.SplitsWord(text, res.End))
}

func TestStopMarkerTailIsRetractedToSentence(t *testing.T) {
	text := "ACTIVITY 7.1\nTake a ball. Roll it\nACTIVITY 7.2\nDo Y."
	res := newDetector().Detect(text, 0, domain.ElementActivity, nil)
	assert.True(t, res.Snapped)
	assert.Equal(t, "ACTIVITY 7.1\nTake a ball.", text[:res.End])
}

func TestEmptyBodyCollapses(t *testing.T) {
	text := "ACTIVITY 7.1\n   \nACTIVITY 7.2\nDo Y."
	res := newDetector().Detect(text, 0, domain.ElementActivity, nil)
	assert.Equal(t, 0, res.End)
	assert.Equal(t, RuleEmpty, res.Rule)
}

func TestInnerSpansAreSkipped(t *testing.T) {
	text := "ACTIVITY 7.1\nDo X.\nExample 7.1\nCompute it.\nACTIVITY 7.2\nDo Y."
	exStart := strings.Index(text, "Example 7.1")
	next := strings.Index(text, "ACTIVITY 7.2")
	d := newDetector()

	assert.Equal(t, exStart, d.FindElementEnd(text, 0, domain.ElementActivity))

	res := d.Detect(text, 0, domain.ElementActivity, []domain.Span{{Start: exStart, End: next}})
	assert.Equal(t, next, res.End)
}

func TestFigureCaptionEndsAtParagraph(t *testing.T) {
	text := "Fig. 7.1: A ball rolling down a slope\n\nThe ball speeds up."
	end := newDetector().FindElementEnd(text, 0, domain.ElementFigure)
	assert.Equal(t, strings.Index(text, "\n\n"), end)
}

func TestBoundaryStaysInsideText(t *testing.T) {
	d := newDetector()
	types := []domain.ElementType{domain.ElementActivity, domain.ElementExample, domain.ElementFigure, domain.ElementSpecialBox}
	for _, typ := range types {
		for start := 0; start <= len(fullSection); start++ {
			end := d.FindElementEnd(fullSection, start, typ)
			require.GreaterOrEqual(t, end, min(start, len(fullSection)), "type %s start %d", typ, start)
			require.LessOrEqual(t, end, len(fullSection), "type %s start %d", typ, start)
		}
	}
}

func TestCustomLimits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits[domain.ElementActivity] = Limits{Min: 10, Preferred: 40, Max: 60}
	d := NewDetector(nil, cfg)
	text := "ACTIVITY 7.1\n" + strings.Repeat("Roll it. ", 40)
	end := d.FindElementEnd(text, 0, domain.ElementActivity)
	assert.LessOrEqual(t, end, 60)
	assert.True(t, strings.HasSuffix(text[:end], "it."))
}
