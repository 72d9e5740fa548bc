package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ncertrag/internal/domain"
)

// pointNamespace derives stable point IDs from chunk IDs; qdrant accepts only UUIDs or integers.
var pointNamespace = uuid.MustParse("6f1c52a0-3b8e-5d55-9a0e-4c1f2b7d9e31")

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection if missing.
type Storage struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Storage{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// PointID returns the qdrant point ID for a chunk.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.dimension = dimension
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	var existing struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	found, err := s.doJSON(http.MethodGet, s.collectionURL(""), nil, &existing)
	if err != nil {
		return err
	}
	if found {
		if size := existing.Result.Config.Params.Vectors.Size; size != dimension {
			return fmt.Errorf("qdrant collection %s has dimension %d, want %d", s.collection, size, dimension)
		}
		return nil
	}
	_, err = s.doJSON(http.MethodPut, s.collectionURL(""), body, nil)
	return err
}

func (s *Storage) Upsert(chunkIDs []string, vectors [][]float64) error {
	if len(chunkIDs) != len(vectors) {
		return errors.New("chunk ids and vectors length mismatch")
	}
	points := make([]map[string]any, len(chunkIDs))
	for i, id := range chunkIDs {
		if s.dimension > 0 && len(vectors[i]) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
		points[i] = map[string]any{
			"id":      PointID(id),
			"vector":  vectors[i],
			"payload": map[string]any{"chunk_id": id},
		}
	}
	_, err := s.doJSON(http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
	return err
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.VectorHit, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if _, err := s.doJSON(http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	hits := make([]domain.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		id, ok := r.Payload["chunk_id"].(string)
		if !ok {
			continue
		}
		hits = append(hits, domain.VectorHit{ChunkID: id, Score: r.Score})
	}
	return hits, nil
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear() error {
	_, err := s.doJSON(http.MethodDelete, s.collectionURL(""), nil, nil)
	return err
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

// doJSON sends body and decodes the response into out. It reports false for a 404.
func (s *Storage) doJSON(method, url string, body, out any) (bool, error) {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return false, err
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, payload)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: qdrant %s: %w", domain.ErrExternalService, method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: qdrant %s %s failed: %s", domain.ErrExternalService, method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return true, fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return true, nil
}
