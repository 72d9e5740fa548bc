package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ncertrag/internal/domain"
)

// Store keeps chunk records in process memory.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.ChunkRecord
}

func New() *Store {
	return &Store{records: make(map[string]domain.ChunkRecord)}
}

// Create inserts all records or none. An existing key fails the whole batch with ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, records []domain.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		_, dup := seen[r.Key]
		if _, ok := s.records[r.Key]; ok || dup {
			return fmt.Errorf("%w: chunk %s version %d", domain.ErrAlreadyExists, r.ChunkID, r.Version)
		}
		seen[r.Key] = struct{}{}
	}
	for _, r := range records {
		s.records[r.Key] = r
	}
	return nil
}

func (s *Store) Get(_ context.Context, documentID, chunkID string, version int) (domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.DocumentID == documentID && r.ChunkID == chunkID && r.Version == version {
			return r, nil
		}
	}
	return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s version %d", domain.ErrNotFound, documentID, chunkID, version)
}

func (s *Store) Latest(_ context.Context, documentID, chunkID string) (domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		best  domain.ChunkRecord
		found bool
	)
	for _, r := range s.records {
		if r.DocumentID == documentID && r.ChunkID == chunkID && (!found || r.Version > best.Version) {
			best, found = r, true
		}
	}
	if !found {
		return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s", domain.ErrNotFound, documentID, chunkID)
	}
	return best, nil
}

// List returns every stored version ordered by document, chunk ID and version.
func (s *Store) List(_ context.Context) ([]domain.ChunkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ChunkRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DocumentID != out[j].DocumentID {
			return out[i].DocumentID < out[j].DocumentID
		}
		if out[i].ChunkID != out[j].ChunkID {
			return out[i].ChunkID < out[j].ChunkID
		}
		return out[i].Version < out[j].Version
	})
	return out, nil
}

func (s *Store) Close() error { return nil }
