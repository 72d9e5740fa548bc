package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
	"ncertrag/internal/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.ChunkStore {
		s, err := Open(filepath.Join(t.TempDir(), "chunks.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
