package residual

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

const section = "7.1 Motion\n\nWe see objects moving around us every day, from birds to buses and rivers.\n\n" +
	"ACTIVITY 7.1\nTake a ball and roll it gently across the classroom floor and watch it slow down.\n\n" +
	"The ball stops because the floor opposes its motion through a force called friction.\n\n" +
	"Example 7.1\nA car covers 100 m in 5 s. Find its average speed. Solution: speed = 100/5 = 20 m/s.\n\n" +
	"Speed tells us how fast something moves."

func spanOf(t *testing.T, text, from, to string) domain.Span {
	t.Helper()
	s := strings.Index(text, from)
	require.GreaterOrEqual(t, s, 0)
	e := len(text)
	if to != "" {
		e = strings.Index(text, to)
		require.Greater(t, e, s)
	}
	return domain.Span{Start: s, End: e}
}

func TestMergeSpans(t *testing.T) {
	cases := []struct {
		name string
		in   []domain.Span
		want []domain.Span
	}{
		{"empty", nil, nil},
		{"disjoint unsorted", []domain.Span{{Start: 10, End: 20}, {Start: 0, End: 5}}, []domain.Span{{Start: 0, End: 5}, {Start: 10, End: 20}}},
		{"overlap", []domain.Span{{Start: 0, End: 10}, {Start: 5, End: 15}}, []domain.Span{{Start: 0, End: 15}}},
		{"touching", []domain.Span{{Start: 0, End: 10}, {Start: 10, End: 12}}, []domain.Span{{Start: 0, End: 12}}},
		{"nested", []domain.Span{{Start: 0, End: 30}, {Start: 5, End: 10}}, []domain.Span{{Start: 0, End: 30}}},
		{"clamped and empty dropped", []domain.Span{{Start: -5, End: 3}, {Start: 7, End: 7}, {Start: 40, End: 99}}, []domain.Span{{Start: 0, End: 3}, {Start: 40, End: 50}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MergeSpans(tc.in, 50))
		})
	}
}

func TestExtractIsStrictComplement(t *testing.T) {
	act := spanOf(t, section, "ACTIVITY 7.1", "The ball stops")
	ex := spanOf(t, section, "Example 7.1", "Speed tells")
	consumed := []domain.Span{act, ex}

	got := Extract(section, consumed)
	require.NotEqual(t, strings.TrimSpace(section), got)
	assert.LessOrEqual(t, len(got), len(section)-act.Len()-ex.Len()+2*len(Separator))

	assert.NotContains(t, got, "ACTIVITY 7.1")
	assert.NotContains(t, got, "Example 7.1")
	assert.Contains(t, got, "We see objects moving")
	assert.Contains(t, got, "force called friction.")
	assert.True(t, strings.HasSuffix(got, "how fast something moves."))
}

func TestExtractSharesNoLongSubstringWithConsumed(t *testing.T) {
	const n = 40
	consumed := []domain.Span{
		spanOf(t, section, "ACTIVITY 7.1", "The ball stops"),
		spanOf(t, section, "Example 7.1", "Speed tells"),
		{Start: 5, End: 30},
	}
	got := Extract(section, consumed)
	for _, s := range consumed {
		src := section[s.Start:s.End]
		for i := 0; i+n <= len(src); i++ {
			require.NotContains(t, got, src[i:i+n])
		}
	}
}

func TestExtractNoSpansReturnsWholeText(t *testing.T) {
	text := "  A single unmarked paragraph about motion.  "
	assert.Equal(t, strings.TrimSpace(text), Extract(text, nil))
}

func TestExtractEverythingConsumed(t *testing.T) {
	assert.Equal(t, "", Extract(section, []domain.Span{{Start: 0, End: len(section)}}))
}

func TestFragmentsCarryOffsets(t *testing.T) {
	consumed := []domain.Span{spanOf(t, section, "ACTIVITY 7.1", "The ball stops")}
	frags := Fragments(section, consumed)
	require.Len(t, frags, 2)
	for _, f := range frags {
		assert.Equal(t, domain.ElementProse, f.Type)
		assert.Equal(t, f.Text, section[f.Start:f.End])
		for _, c := range consumed {
			assert.False(t, f.Span().Overlaps(c))
		}
	}
}
