package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

func TestSearchRanksByCosine(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert(
		[]string{"a", "b", "c"},
		[][]float64{{1, 0}, {0, 1}, {1, 1}},
	))

	hits, err := s.Search([]float64{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ChunkID)
	assert.Equal(t, "c", hits[1].ChunkID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestUpsertReplacesExisting(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]string{"a"}, [][]float64{{1, 0}}))
	require.NoError(t, s.Upsert([]string{"a"}, [][]float64{{0, 1}}))
	assert.Equal(t, 1, s.Len())

	hits, err := s.Search([]float64{0, 1}, 5)
	require.NoError(t, err)
	assert.Equal(t, []domain.VectorHit{{ChunkID: "a", Score: 1}}, hits)
}

func TestUpsertErrors(t *testing.T) {
	s := NewStorage()
	assert.Error(t, s.Init(0))
	require.NoError(t, s.Init(2))
	assert.Error(t, s.Upsert([]string{"a", "b"}, [][]float64{{1, 0}}))
	assert.Error(t, s.Upsert([]string{"a"}, [][]float64{{1, 0, 0}}))
	assert.Equal(t, 0, s.Len())
}

func TestClear(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]string{"a"}, [][]float64{{1}}))
	require.NoError(t, s.Clear())
	hits, err := s.Search([]float64{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
