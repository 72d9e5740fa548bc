package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ncertrag/internal/assembler"
	"ncertrag/internal/boundary"
	"ncertrag/internal/chunker"
	"ncertrag/internal/config"
	"ncertrag/internal/domain"
	"ncertrag/internal/embedding/cache"
	"ncertrag/internal/embedding/gemini"
	"ncertrag/internal/embedding/openai"
	"ncertrag/internal/embedding/tfidf"
	"ncertrag/internal/hints"
	"ncertrag/internal/logger"
	"ncertrag/internal/metadata"
	"ncertrag/internal/metrics"
	"ncertrag/internal/patterns"
	"ncertrag/internal/quality"
	"ncertrag/internal/summarizer"
)

// closers are released in reverse order on shutdown.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll(log *logger.Logger) {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Warn("close failed", "error", err)
		}
	}
}

func buildPatterns(files []string) (*patterns.Matcher, error) {
	lib := patterns.DefaultNCERT()
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		extra, err := patterns.Import(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("pattern file %s: %w", path, err)
		}
		if lib, err = lib.Merge(extra); err != nil {
			return nil, fmt.Errorf("pattern file %s: %w", path, err)
		}
	}
	return patterns.NewMatcher(lib), nil
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig, m *metrics.Pipeline, log *logger.Logger, cl *closers) (domain.Embedder, error) {
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "tfidf", "":
		emb = tfidf.NewEmbedder()
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		c := cfg.Embedder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:    c.BaseURL,
			APIKeyEnv:  c.APIKeyEnv,
			Model:      c.Model,
			Timeout:    secs(c.TimeoutSecs),
			BatchSize:  c.BatchSize,
			MaxRetries: c.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		emb = client
	case "gemini":
		if cfg.Embedder.Gemini == nil {
			return nil, fmt.Errorf("gemini embedder config missing")
		}
		c := cfg.Embedder.Gemini
		g, err := gemini.New(ctx, gemini.Config{
			APIKey:    os.Getenv(c.APIKeyEnv),
			Model:     c.Model,
			Dimension: c.Dimension,
			BatchSize: c.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder init failed: %w", err)
		}
		emb = g
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}

	switch cfg.Cache.Type {
	case "none", "":
		return emb, nil
	case "memory":
		return cache.Wrap(emb, cache.NewMemory(), cfg.Cache.Prefix, log, m), nil
	case "redis":
		if cfg.Cache.Redis == nil {
			return nil, fmt.Errorf("redis cache config missing")
		}
		r := cfg.Cache.Redis
		store, err := cache.NewRedis(ctx, cache.RedisConfig{
			Addr:     r.Addr,
			Password: os.Getenv(r.PasswordEnv),
			DB:       r.DB,
			TTL:      r.TTL(),
		})
		if err != nil {
			return nil, err
		}
		cl.add(store.Close)
		return cache.Wrap(emb, store, cfg.Cache.Prefix, log, m), nil
	default:
		return nil, fmt.Errorf("unknown embedding cache: %s", cfg.Cache.Type)
	}
}

// buildHints returns the guarded hint provider, or hints.Noop when none is configured.
func buildHints(ctx context.Context, cfg config.HintsConfig, m *metrics.Pipeline, log *logger.Logger) (hints.Provider, error) {
	var inner hints.Provider
	switch cfg.Provider {
	case "none", "":
		return hints.Noop{}, nil
	case "claude":
		p, err := hints.NewClaude(hints.ClaudeConfig{
			APIKey:   os.Getenv(cfg.APIKeyEnv),
			Model:    cfg.Model,
			MaxInput: cfg.MaxInput,
		})
		if err != nil {
			return nil, err
		}
		inner = p
	case "gemini":
		p, err := hints.NewGemini(ctx, hints.GeminiConfig{
			APIKey:   os.Getenv(cfg.APIKeyEnv),
			Model:    cfg.Model,
			MaxInput: cfg.MaxInput,
		})
		if err != nil {
			return nil, err
		}
		inner = p
	default:
		return nil, fmt.Errorf("unknown hint provider: %s", cfg.Provider)
	}
	return hints.NewGuard(inner, hints.GuardConfig{
		Timeout:       cfg.HintTimeout(),
		RatePerSecond: cfg.RatePerSecond,
		Burst:         cfg.Burst,
		TripAfter:     cfg.TripAfter,
		Cooldown:      secs(cfg.CooldownSecs),
	}, m, log), nil
}

func buildChunker(cfg *config.AppConfig, matcher *patterns.Matcher, provider hints.Provider, validator *quality.Validator, m *metrics.Pipeline, log *logger.Logger) *chunker.Chunker {
	d := chunker.Deps{
		Matcher:   matcher,
		Detector:  boundary.NewDetector(matcher, cfg.Boundary),
		Assembler: assembler.New(cfg.Assembler),
		Metadata:  metadata.NewEngine(matcher, provider, cfg.Metadata, log),
		Validator: validator,
		Metrics:   m,
		Log:       log,
	}
	if cfg.Hints.Boundaries {
		d.BoundaryHints = provider
	}
	return chunker.New(d)
}

func buildSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(), nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
