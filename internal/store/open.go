package store

import (
	"fmt"
	"os"
	"path/filepath"

	"ncertrag/internal/domain"
	"ncertrag/internal/store/badger"
	"ncertrag/internal/store/memory"
	"ncertrag/internal/store/sqlite"
)

// Config selects a chunk store backend.
type Config struct {
	// Type is "memory", "sqlite" or "badger".
	Type string
	// Path is the sqlite file or the badger directory.
	Path string
}

// Open returns the configured chunk store, creating parent directories as needed.
func Open(cfg Config) (domain.ChunkStore, error) {
	switch cfg.Type {
	case "", "memory":
		return memory.New(), nil
	case "sqlite":
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.Path)
	case "badger":
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		return badger.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown chunk store type %q", cfg.Type)
	}
}

func ensureDir(dir string) error {
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return nil
}
