package hints

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"ncertrag/internal/domain"
	"ncertrag/internal/logger"
	"ncertrag/internal/metrics"
)

// Provider offers both kinds of advisory hints.
type Provider interface {
	domain.BoundaryHintProvider
	domain.ConceptHintProvider
}

// Noop is the rule-based default: it never proposes anything.
type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) DetectBoundaries(context.Context, string) (domain.BoundaryHints, error) {
	return domain.BoundaryHints{}, nil
}

func (Noop) ExtractConcepts(context.Context, string, string, int) (domain.ConceptHints, error) {
	return domain.ConceptHints{}, nil
}

// GuardConfig bounds calls to a remote provider.
type GuardConfig struct {
	Timeout time.Duration
	// RatePerSecond of zero or less disables rate limiting.
	RatePerSecond float64
	Burst         int
	// TripAfter consecutive failures open the breaker for Cooldown. Zero disables the breaker.
	TripAfter int
	Cooldown  time.Duration
}

// Guard wraps a provider with a per-call timeout, a shared rate limit and a circuit breaker.
// Every failure, including a call refused by the open breaker, is reported as
// domain.ErrExternalService and counted as a fallback.
type Guard struct {
	inner   Provider
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Pipeline
	log     *logger.Logger
}

func NewGuard(inner Provider, cfg GuardConfig, m *metrics.Pipeline, log *logger.Logger) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if log == nil {
		log = logger.NewNop()
	}
	g := &Guard{inner: inner, timeout: cfg.Timeout, metrics: m, log: log}
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	if cfg.TripAfter > 0 {
		if cfg.Cooldown <= 0 {
			cfg.Cooldown = 30 * time.Second
		}
		trip := uint32(cfg.TripAfter)
		g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        inner.Name(),
			MaxRequests: 1,
			Timeout:     cfg.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= trip
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("hint provider breaker changed state", "provider", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return g
}

func (g *Guard) Name() string { return g.inner.Name() }

func (g *Guard) DetectBoundaries(ctx context.Context, text string) (domain.BoundaryHints, error) {
	var out domain.BoundaryHints
	err := g.call(ctx, "detect_boundaries", func(ctx context.Context) error {
		var err error
		out, err = g.inner.DetectBoundaries(ctx, text)
		return err
	})
	if err != nil {
		return domain.BoundaryHints{}, err
	}
	return out, nil
}

func (g *Guard) ExtractConcepts(ctx context.Context, text, subject string, gradeLevel int) (domain.ConceptHints, error) {
	var out domain.ConceptHints
	err := g.call(ctx, "extract_concepts", func(ctx context.Context) error {
		var err error
		out, err = g.inner.ExtractConcepts(ctx, text, subject, gradeLevel)
		return err
	})
	if err != nil {
		return domain.ConceptHints{}, err
	}
	return out, nil
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	err := g.wait(ctx)
	if err == nil {
		err = g.run(ctx, fn)
	}
	if err != nil {
		g.metrics.HintFallback(g.inner.Name())
		g.log.Warn("hint call failed",
			"provider", g.inner.Name(), "op", op, "elapsed", time.Since(start), "error", err)
		return fmt.Errorf("%w: %s %s: %w", domain.ErrExternalService, g.inner.Name(), op, err)
	}
	g.log.Debug("hint call done", "provider", g.inner.Name(), "op", op, "elapsed", time.Since(start))
	return nil
}

func (g *Guard) run(ctx context.Context, fn func(context.Context) error) error {
	if g.breaker == nil {
		return fn(ctx)
	}
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	return err
}

func (g *Guard) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	return g.limiter.Wait(ctx)
}
