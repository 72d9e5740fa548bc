// Package storetest holds the behaviour every domain.ChunkStore must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
)

func record(chunkID string, version int) domain.ChunkRecord {
	return recordIn("doc", chunkID, version)
}

func recordIn(documentID, chunkID string, version int) domain.ChunkRecord {
	return domain.ChunkRecord{
		Key:           documentID + "/" + chunkID + "@" + string(rune('0'+version)),
		ChunkID:       chunkID,
		Version:       version,
		DocumentID:    documentID,
		SectionNumber: "8.1",
		Sequence:      1,
		Content:       "ACTIVITY 8.1 Push a ball.",
		MetadataJSON:  `{"metadata":{}}`,
		QualityScore:  0.8,
		Passed:        true,
	}
}

// Run exercises open() against the shared chunk store contract.
func Run(t *testing.T, open func(t *testing.T) domain.ChunkStore) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		s := open(t)
		want := record("contextual_8.1_001", 1)
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{want}))
		got, err := s.Get(ctx, "doc", want.ChunkID, 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("records are never overwritten", func(t *testing.T) {
		s := open(t)
		first := record("contextual_8.1_001", 1)
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{first}))

		changed := first
		changed.Content = "rewritten"
		err := s.Create(ctx, []domain.ChunkRecord{record("contextual_8.1_002", 1), changed})
		assert.ErrorIs(t, err, domain.ErrAlreadyExists)

		got, err := s.Get(ctx, "doc", first.ChunkID, 1)
		require.NoError(t, err)
		assert.Equal(t, first.Content, got.Content)
		// the batch is all or nothing
		_, err = s.Get(ctx, "doc", "contextual_8.1_002", 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("latest picks the highest version", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{record("c", 1)}))
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{record("c", 3), record("c", 2)}))
		got, err := s.Latest(ctx, "doc", "c")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Version)

		_, err = s.Latest(ctx, "doc", "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = s.Get(ctx, "doc", "c", 9)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("versions are tracked per document", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{
			recordIn("iesc108", "contextual_8.1_001", 1),
			recordIn("iesc108", "contextual_8.1_001", 2),
			recordIn("iesc109", "contextual_8.1_001", 1),
		}))
		got, err := s.Latest(ctx, "iesc109", "contextual_8.1_001")
		require.NoError(t, err)
		assert.Equal(t, 1, got.Version)
		assert.Equal(t, "iesc109", got.DocumentID)

		got, err = s.Latest(ctx, "iesc108", "contextual_8.1_001")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)

		_, err = s.Get(ctx, "iesc109", "contextual_8.1_001", 2)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("list is ordered", func(t *testing.T) {
		s := open(t)
		require.NoError(t, s.Create(ctx, []domain.ChunkRecord{record("b", 1), record("a", 2), record("a", 1)}))
		recs, err := s.List(ctx)
		require.NoError(t, err)
		var ids []string
		for _, r := range recs {
			ids = append(ids, r.ChunkID+"@"+string(rune('0'+r.Version)))
		}
		assert.Equal(t, []string{"a@1", "a@2", "b@1"}, ids)
	})
}
