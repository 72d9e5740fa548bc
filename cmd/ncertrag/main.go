package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ncertrag/internal/chunker"
	"ncertrag/internal/config"
	"ncertrag/internal/ingest"
	"ncertrag/internal/logger"
	"ncertrag/internal/metrics"
	"ncertrag/internal/quality"
	"ncertrag/internal/relevance"
	"ncertrag/internal/service"
	"ncertrag/internal/store"
	"ncertrag/internal/tui"
	"ncertrag/internal/vectorstore"
	"ncertrag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath   string
		report    bool
		reprocess bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/ncertrag/config.yaml if not provided)")
	flag.BoolVar(&report, "report", false, "Print the quality report comparing holistic and sentence chunking instead of opening the TUI")
	flag.BoolVar(&reprocess, "reprocess", false, "Store the given documents as new chunk versions")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, lg, flag.Args(), report, reprocess, os.Stdout); err != nil {
		lg.Error("ncertrag failed", "error", err)
		lg.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AppConfig, lg *logger.Logger, inputs []string, report, reprocess bool, out io.Writer) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, reg, lg)
		defer srv.Close()
	}

	var cl closers
	defer func() { cl.closeAll(lg) }()

	matcher, err := buildPatterns(cfg.Patterns.Files)
	if err != nil {
		return err
	}
	emb, err := buildEmbedder(ctx, cfg, m, lg, &cl)
	if err != nil {
		return err
	}
	provider, err := buildHints(ctx, cfg.Hints, m, lg)
	if err != nil {
		return err
	}
	sum, err := buildSummarizer(cfg.Summarizer)
	if err != nil {
		return err
	}

	vcfg := vectorstore.Config{Type: cfg.VectorStore.Type}
	if q := cfg.VectorStore.Qdrant; q != nil {
		vcfg.Qdrant = qdrant.Config{URL: q.URL, APIKey: q.APIKey, Collection: q.Collection, Timeout: secs(q.TimeoutSecs)}
	}
	vectors, err := vectorstore.New(vcfg)
	if err != nil {
		return err
	}
	chunks, err := store.Open(store.Config{Type: cfg.Store.Type, Path: cfg.Store.Path})
	if err != nil {
		return err
	}
	cl.add(chunks.Close)

	validator := quality.NewValidator(cfg.Quality)
	svc := service.NewRAGService(service.Deps{
		Chunker:             buildChunker(cfg, matcher, provider, validator, m, lg),
		Baseline:            chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences),
		Strategy:            cfg.Chunker.Type,
		Matcher:             matcher,
		Validator:           validator,
		Scorer:              relevance.NewScorer(cfg.Relevance.Weights),
		Embedder:            emb,
		Vectors:             vectors,
		Store:               chunks,
		Summarizer:          sum,
		SummaryMaxSentences: cfg.Summarizer.MaxSentences,
		Workers:             cfg.Chunker.Workers,
		Options:             ingest.Options{GradeLevel: cfg.Defaults.GradeLevel, Subject: cfg.Defaults.Subject},
		Metrics:             m,
		Log:                 lg,
	})

	summary := ""
	switch {
	case len(inputs) == 0:
		n, err := svc.Restore(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			fmt.Fprintln(out, "Usage: ncertrag [--config=config.yaml] [--report] [--reprocess] chapter.pdf [chapter.txt ...]")
			return errors.New("no documents given and the chunk store is empty")
		}
		summary = fmt.Sprintf("Restored %d chunks from the %s store.", n, cfg.Store.Type)
	case reprocess:
		total := 0
		for _, path := range ingest.Expand(inputs) {
			res, err := svc.Reprocess(ctx, path)
			if err != nil {
				return err
			}
			total += len(res.Chunks)
		}
		summary = fmt.Sprintf("Reprocessed %d chunks.", total)
	default:
		rep, err := svc.IngestDocuments(ctx, inputs)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		summary = rep.Summary
	}

	if report {
		return writeReport(ctx, svc, out)
	}
	_, err = tea.NewProgram(tui.New(svc, summary, cfg.Relevance.TopK), tea.WithContext(ctx)).Run()
	return err
}

// writeReport prints the grade of the stored chunks and, for documents loaded in this run,
// the comparison with the sentence-window baseline.
func writeReport(ctx context.Context, svc *service.RAGServiceImpl, out io.Writer) error {
	cmp, err := svc.Compare(ctx)
	if err != nil {
		return err
	}
	doc := struct {
		Stored   quality.Report  `json:"stored"`
		Holistic *quality.Report `json:"holistic,omitempty"`
		Baseline *quality.Report `json:"baseline,omitempty"`
	}{Stored: svc.Report()}
	if cmp.HolisticChunks > 0 || cmp.BaselineChunks > 0 {
		doc.Holistic, doc.Baseline = &cmp.Holistic, &cmp.Baseline
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func serveMetrics(addr string, reg *prometheus.Registry, lg *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Warn("metrics endpoint stopped", "addr", addr, "error", err)
		}
	}()
	lg.Info("serving metrics", "addr", addr)
	return srv
}
