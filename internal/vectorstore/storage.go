package vectorstore

import (
	"fmt"

	"ncertrag/internal/domain"
	"ncertrag/internal/vectorstore/memory"
	"ncertrag/internal/vectorstore/qdrant"
)

// Config selects and configures a vector store backend.
type Config struct {
	// Type is "memory" or "qdrant".
	Type   string
	Qdrant qdrant.Config
}

// New returns the configured vector store. Init must still be called with the embedding dimension.
func New(cfg Config) (domain.VectorStore, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant.URL == "" {
			return nil, fmt.Errorf("qdrant vector store needs a url")
		}
		if cfg.Qdrant.Collection == "" {
			cfg.Qdrant.Collection = "ncert_chunks"
		}
		return qdrant.NewStorage(cfg.Qdrant), nil
	default:
		return nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}
