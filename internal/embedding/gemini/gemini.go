package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"ncertrag/internal/domain"
	"ncertrag/internal/embedding"
)

// Config configures the Gemini embedder.
type Config struct {
	APIKey    string
	Model     string
	Dimension int
	// BatchSize caps the contents sent per EmbedContent call.
	BatchSize int
}

// Embedder produces embeddings through the Gemini EmbedContent API.
type Embedder struct {
	client    *genai.Client
	model     string
	dimension int
	batchSize int
}

// New creates a Gemini embedder. The output dimensionality is fixed by configuration.
func New(ctx context.Context, cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-embedding-001"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 768
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	return &Embedder{client: client, model: cfg.Model, dimension: cfg.Dimension, batchSize: cfg.BatchSize}, nil
}

func (e *Embedder) Name() string { return "gemini:" + e.model }

// Prepare is a no-op for remote embedders.
func (e *Embedder) Prepare(corpus []string) error { return nil }

func (e *Embedder) Dimension() int { return e.dimension }

// Embed returns the embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	out, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// EmbedBatch embeds texts with one EmbedContent call per batch.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))
		vecs, err := e.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: gemini embeddings: %w", domain.ErrExternalService, err)
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float64, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	dim := int32(e.dimension)
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: &dim,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings from API", len(texts))
	}
	out := make([][]float64, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch at %d: expected %d", i, e.dimension)
		}
		// gemini-embedding-001 only normalises its full-size output
		out[i] = embedding.Float64s(emb.Values)
		embedding.Normalize(out[i])
	}
	return out, nil
}
