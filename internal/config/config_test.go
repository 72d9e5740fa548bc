package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/assembler"
	"ncertrag/internal/boundary"
	"ncertrag/internal/domain"
	"ncertrag/internal/relevance"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "holistic", cfg.Chunker.Type)
	assert.Equal(t, assembler.DefaultConfig(), cfg.Assembler)
	assert.Equal(t, boundary.DefaultConfig(), cfg.Boundary)
	assert.Equal(t, relevance.DefaultWeights(), cfg.Relevance.Weights)
	assert.Equal(t, 9, cfg.Defaults.GradeLevel)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
embedder:
  type: openai
cache:
  type: redis
hints:
  provider: claude
  rate_per_second: 0.5
assembler:
  glue_threshold: 150
boundary:
  limits:
    ACTIVITY: {min: 100, preferred: 900, max: 1800}
  default: {min: 500, preferred: 2000, max: 4000}
store:
  type: sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.OpenAI.Model)
	require.NotNil(t, cfg.Cache.Redis)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Positive(t, cfg.Cache.Redis.TTL())
	assert.Equal(t, "ANTHROPIC_API_KEY", cfg.Hints.APIKeyEnv)
	assert.Equal(t, 20, cfg.Hints.TimeoutSecs)
	assert.Equal(t, 150, cfg.Assembler.GlueThreshold)
	assert.Equal(t, boundary.Limits{Min: 100, Preferred: 900, Max: 1800}, cfg.Boundary.Limits[domain.ElementActivity])
	assert.Equal(t, "chunks.db", filepath.Base(cfg.Store.Path))
	assert.Equal(t, 4, cfg.Chunker.Workers)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Metrics.Listen = ":9090"
	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadDefaultWritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "ncertrag", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "memory", cfg.Store.Type)
}
