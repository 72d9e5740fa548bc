package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	// EmbedBatch embeds all texts, ideally in one remote call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// VectorStore persists chunk vectors and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(ids []string, vectors [][]float64) error
	Search(vector []float64, topK int) ([]VectorHit, error)
	Clear() error
}

// ChunkStore persists chunk records. Records are never overwritten; a new version gets a new key.
// Chunk IDs repeat across documents, so versions are tracked per (document, chunk ID) pair.
type ChunkStore interface {
	Create(ctx context.Context, records []ChunkRecord) error
	Get(ctx context.Context, documentID, chunkID string, version int) (ChunkRecord, error)
	// Latest returns the highest version stored for chunkID within documentID, or ErrNotFound.
	Latest(ctx context.Context, documentID, chunkID string) (ChunkRecord, error)
	List(ctx context.Context) ([]ChunkRecord, error)
	Close() error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// HintedUnit is one learning unit proposed by a boundary hint provider.
type HintedUnit struct {
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	EducationalElements []string `json:"educational_elements"`
	Start               int      `json:"start"`
	End                 int      `json:"end"`
}

type BoundaryHints struct {
	LearningUnits []HintedUnit `json:"learning_units"`
}

type ConceptRelation struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Relation string `json:"relation"`
}

type ConceptHints struct {
	MainConcepts         []string          `json:"main_concepts"`
	SubConcepts          []string          `json:"sub_concepts"`
	ConceptRelationships []ConceptRelation `json:"concept_relationships"`
	EducationalContext   []string          `json:"educational_context"`
}

// BoundaryHintProvider proposes learning-unit boundaries. Advisory only.
type BoundaryHintProvider interface {
	Name() string
	DetectBoundaries(ctx context.Context, text string) (BoundaryHints, error)
}

// ConceptHintProvider proposes concepts for a piece of text. Advisory only.
type ConceptHintProvider interface {
	Name() string
	ExtractConcepts(ctx context.Context, text, subject string, gradeLevel int) (ConceptHints, error)
}
