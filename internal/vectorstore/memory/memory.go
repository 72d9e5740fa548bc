package memory

import (
	"errors"
	"sort"
	"sync"

	"ncertrag/internal/domain"
	"ncertrag/internal/embedding"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
// Upserting an existing chunk ID replaces its vector.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	vectors   [][]float64
	index     map[string]int
}

func NewStorage() *Storage { return &Storage{index: make(map[string]int)} }

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.ids = nil
	s.vectors = nil
	s.index = make(map[string]int)
	return nil
}

func (s *Storage) Upsert(chunkIDs []string, vectors [][]float64) error {
	if len(chunkIDs) != len(vectors) {
		return errors.New("chunk ids and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, id := range chunkIDs {
		vec := append([]float64(nil), vectors[i]...)
		if j, ok := s.index[id]; ok {
			s.vectors[j] = vec
			continue
		}
		s.index[id] = len(s.ids)
		s.ids = append(s.ids, id)
		s.vectors = append(s.vectors, vec)
	}
	return nil
}

// Search returns the topK most similar chunks. Equal scores keep insertion order.
func (s *Storage) Search(vector []float64, topK int) ([]domain.VectorHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	hits := make([]domain.VectorHit, len(s.vectors))
	for i := range s.vectors {
		hits[i] = domain.VectorHit{ChunkID: s.ids[i], Score: embedding.Cosine(s.vectors[i], vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > len(hits) {
		topK = len(hits)
	}
	return hits[:topK], nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = nil
	s.vectors = nil
	s.index = make(map[string]int)
	return nil
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
