package relevance

import (
	"sort"
	"strings"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

// Weights is the scoring table. Every term is additive.
type Weights struct {
	Literal     float64 `yaml:"literal"`
	MainConcept float64 `yaml:"main_concept"`
	Objective   float64 `yaml:"objective"`
	Keyword     float64 `yaml:"keyword"`
	Section     float64 `yaml:"section"`
	ContentType float64 `yaml:"content_type"`
	// Quality multiplies the chunk quality score, which acts as a tie breaker.
	Quality float64 `yaml:"quality"`
	// Similarity multiplies an optional vector similarity supplied by the caller.
	Similarity float64 `yaml:"similarity"`
}

func DefaultWeights() Weights {
	return Weights{
		Literal:     2,
		MainConcept: 3,
		Objective:   2,
		Keyword:     1,
		Section:     5,
		ContentType: 2,
		Quality:     1,
		Similarity:  4,
	}
}

// TypeContent maps a query category to the content type that satisfies it.
var TypeContent = map[domain.QueryType]domain.ContentType{
	domain.QueryDefinition:  domain.ContentConceptualExplanation,
	domain.QueryExperiment:  domain.ContentHandsOnActivity,
	domain.QueryCalculation: domain.ContentMathematicalFormulas,
	domain.QueryApplication: domain.ContentRealWorldApplications,
}

// Breakdown itemises a score so a ranking can be audited.
type Breakdown struct {
	Literal     float64 `json:"literal"`
	MainConcept float64 `json:"main_concept"`
	Objective   float64 `json:"objective"`
	Keyword     float64 `json:"keyword"`
	Section     float64 `json:"section"`
	ContentType float64 `json:"content_type"`
	Quality     float64 `json:"quality"`
	Similarity  float64 `json:"similarity"`
}

func (b Breakdown) Total() float64 {
	return b.Literal + b.MainConcept + b.Objective + b.Keyword + b.Section + b.ContentType + b.Quality + b.Similarity
}

// Scorer ranks chunks against a query with a weighted keyword and metadata match.
type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Scorer{w: w}
}

func (s *Scorer) Weights() Weights { return s.w }

// Score returns the relevance of chunk to q.
func (s *Scorer) Score(chunk domain.HolisticChunk, q domain.Query) float64 {
	return s.Explain(chunk, q, 0).Total()
}

// Explain scores chunk against q, adding similarity (0 when unknown) with its weight.
func (s *Scorer) Explain(chunk domain.HolisticChunk, q domain.Query, similarity float64) Breakdown {
	var b Breakdown
	content := strings.ToLower(chunk.Content)
	cs := chunk.Metadata.ConceptsAndSkills
	for _, c := range q.Concepts {
		lc := strings.ToLower(strings.TrimSpace(c))
		if lc == "" {
			continue
		}
		if strings.Contains(content, lc) {
			b.Literal += s.w.Literal
		}
		b.MainConcept += s.w.MainConcept * float64(countMatches(cs.MainConcepts, lc))
		b.Objective += s.w.Objective * float64(countMatches(cs.LearningObjectives, lc))
		b.Keyword += s.w.Keyword * float64(countMatches(cs.Keywords, lc))
	}
	if q.ExpectedSection != "" && sectionOf(chunk) == q.ExpectedSection {
		b.Section = s.w.Section
	}
	if ct, ok := TypeContent[q.ExpectedType]; ok && chunk.Metadata.HasContentType(ct) {
		b.ContentType = s.w.ContentType
	}
	b.Quality = s.w.Quality * chunk.QualityScore
	b.Similarity = s.w.Similarity * similarity
	return b
}

func sectionOf(chunk domain.HolisticChunk) string {
	if sec := chunk.Metadata.BasicInfo.Section; sec != "" {
		return sec
	}
	return chunk.SectionNumber
}

// countMatches counts fields containing concept, literally or after stemming.
func countMatches(fields []string, concept string) int {
	n := 0
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), concept) || textutil.ContainsPhrase(f, concept) {
			n++
		}
	}
	return n
}

// Rank scores chunks and returns the best topK. similarity may be nil or hold one
// value per chunk. Equal scores keep the input order. topK <= 0 returns every chunk.
func (s *Scorer) Rank(q domain.Query, chunks []domain.HolisticChunk, similarity []float64, topK int) []domain.SearchResult {
	out := make([]domain.SearchResult, len(chunks))
	for i, ch := range chunks {
		sim := 0.0
		if i < len(similarity) {
			sim = similarity[i]
		}
		out[i] = domain.SearchResult{Chunk: ch, Score: s.Explain(ch, q, sim).Total()}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if topK > 0 && topK < len(out) {
		out = out[:topK]
	}
	return out
}
