package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

func chunk(id, section, content string, concepts []string, types ...domain.ContentType) domain.HolisticChunk {
	return domain.HolisticChunk{
		ChunkID:       id,
		SectionNumber: section,
		Content:       content,
		Metadata: domain.Metadata{
			BasicInfo:           domain.BasicInfo{Section: section},
			ConceptsAndSkills:   domain.ConceptsAndSkills{MainConcepts: concepts},
			PedagogicalElements: domain.PedagogicalElements{ContentTypes: types},
		},
	}
}

func TestParseQuery(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Query
	}{
		{
			"What is friction section:9.2 type:definition",
			domain.Query{Text: "What is friction", Concepts: []string{"friction"}, ExpectedSection: "9.2", ExpectedType: domain.QueryDefinition},
		},
		{
			"measure speed of a ball type:Experiment",
			domain.Query{Text: "measure speed of a ball", Concepts: []string{"measure", "speed", "ball"}, ExpectedType: domain.QueryExperiment},
		},
		{
			"tell me concept:uniform_motion concept:speed",
			domain.Query{Text: "tell me", Concepts: []string{"uniform motion", "speed"}},
		},
		{
			"ratio 2:1",
			domain.Query{Text: "ratio 2:1", Concepts: []string{"ratio"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseQuery(tc.in))
		})
	}
}

func TestScoreWeights(t *testing.T) {
	s := NewScorer(DefaultWeights())
	ch := chunk("c1", "9.2", "Friction opposes motion between surfaces.", []string{"Friction", "static friction", "motion"},
		domain.ContentConceptualExplanation)
	ch.Metadata.ConceptsAndSkills.LearningObjectives = []string{"Explain friction"}
	ch.Metadata.ConceptsAndSkills.Keywords = []string{"friction", "rolling friction"}
	ch.QualityScore = 0.9

	q := domain.Query{Concepts: []string{"friction"}, ExpectedSection: "9.2", ExpectedType: domain.QueryDefinition}
	b := s.Explain(ch, q, 0)
	assert.Equal(t, 2.0, b.Literal)
	assert.Equal(t, 6.0, b.MainConcept)
	assert.Equal(t, 2.0, b.Objective)
	assert.Equal(t, 2.0, b.Keyword)
	assert.Equal(t, 5.0, b.Section)
	assert.Equal(t, 2.0, b.ContentType)
	assert.InDelta(t, 0.9, b.Quality, 1e-9)
	assert.InDelta(t, 19.9, s.Score(ch, q), 1e-9)
}

func TestContentTypeMapping(t *testing.T) {
	s := NewScorer(Weights{ContentType: 1})
	cases := []struct {
		qt   domain.QueryType
		ct   domain.ContentType
		want float64
	}{
		{domain.QueryDefinition, domain.ContentConceptualExplanation, 1},
		{domain.QueryExperiment, domain.ContentHandsOnActivity, 1},
		{domain.QueryCalculation, domain.ContentMathematicalFormulas, 1},
		{domain.QueryApplication, domain.ContentRealWorldApplications, 1},
		{domain.QueryExperiment, domain.ContentWorkedExamples, 0},
		{domain.QueryAny, domain.ContentHandsOnActivity, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.qt)+"/"+string(tc.ct), func(t *testing.T) {
			got := s.Score(chunk("c", "1.1", "", nil, tc.ct), domain.Query{ExpectedType: tc.qt})
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStemmedConceptMatch(t *testing.T) {
	s := NewScorer(Weights{MainConcept: 1})
	ch := chunk("c", "1.1", "", []string{"Accelerations of bodies"})
	assert.Equal(t, 1.0, s.Score(ch, domain.Query{Concepts: []string{"acceleration"}}))
	assert.Equal(t, 0.0, s.Score(ch, domain.Query{Concepts: []string{"velocity"}}))
}

func TestRankIsStableAndTruncates(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunks := []domain.HolisticChunk{
		chunk("a", "9.1", "Speed is distance over time.", nil),
		chunk("b", "9.2", "Friction acts between surfaces.", []string{"friction"}),
		chunk("c", "9.3", "Speed of sound.", nil),
		chunk("d", "9.4", "Pressure and area.", nil),
	}
	q := ParseQuery("speed")
	res := s.Rank(q, chunks, nil, 0)
	require.Len(t, res, 4)
	ids := []string{res[0].Chunk.ChunkID, res[1].Chunk.ChunkID, res[2].Chunk.ChunkID, res[3].Chunk.ChunkID}
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids)

	assert.Len(t, s.Rank(q, chunks, nil, 2), 2)
}

func TestRankUsesSimilarity(t *testing.T) {
	s := NewScorer(DefaultWeights())
	chunks := []domain.HolisticChunk{
		chunk("a", "9.1", "Unrelated.", nil),
		chunk("b", "9.2", "Also unrelated.", nil),
	}
	res := s.Rank(domain.Query{}, chunks, []float64{0.1, 0.8}, 0)
	assert.Equal(t, "b", res[0].Chunk.ChunkID)
	assert.InDelta(t, 3.2, res[0].Score, 1e-9)
}

func TestSectionFallsBackToChunkField(t *testing.T) {
	s := NewScorer(Weights{Section: 5})
	ch := domain.HolisticChunk{SectionNumber: "7.3"}
	assert.Equal(t, 5.0, s.Score(ch, domain.Query{ExpectedSection: "7.3"}))
	assert.Equal(t, 0.0, s.Score(ch, domain.Query{}))
}
