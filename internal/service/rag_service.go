package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ncertrag/internal/chunker"
	"ncertrag/internal/domain"
	"ncertrag/internal/embedding"
	"ncertrag/internal/ingest"
	"ncertrag/internal/logger"
	"ncertrag/internal/metrics"
	"ncertrag/internal/patterns"
	"ncertrag/internal/quality"
	"ncertrag/internal/relevance"
	"ncertrag/internal/store"
	"ncertrag/internal/textutil"
)

// Deps are the collaborators of the service. Chunker, Embedder, Vectors and Store are required.
// Strategy "sentence" stores the sentence-window baseline instead of holistic chunks.
// SummaryMaxSentences bounds the overview returned by IngestDocuments and Workers bounds
// concurrent sections per document.
type Deps struct {
	Chunker             *chunker.Chunker
	Baseline            *chunker.SentenceChunker
	Strategy            string
	Matcher             *patterns.Matcher
	Validator           *quality.Validator
	Scorer              *relevance.Scorer
	Embedder            domain.Embedder
	Vectors             domain.VectorStore
	Store               domain.ChunkStore
	Summarizer          domain.Summarizer
	SummaryMaxSentences int
	Workers             int
	Options             ingest.Options
	Metrics             *metrics.Pipeline
	Log                 *logger.Logger
}

// RAGServiceImpl ingests NCERT chapters into versioned holistic chunks and answers ranked queries.
type RAGServiceImpl struct {
	chunker             *chunker.Chunker
	baseline            *chunker.SentenceChunker
	strategy            string
	matcher             *patterns.Matcher
	validator           *quality.Validator
	scorer              *relevance.Scorer
	embedder            domain.Embedder
	vectors             domain.VectorStore
	store               domain.ChunkStore
	summarizer          domain.Summarizer
	summaryMaxSentences int
	workers             int
	opts                ingest.Options
	metrics             *metrics.Pipeline
	log                 *logger.Logger

	mu     sync.RWMutex
	docs   map[string]domain.Document
	chunks []domain.HolisticChunk
	// indexed is set once the vector store holds the current chunks.
	indexed bool
}

func NewRAGService(d Deps) *RAGServiceImpl {
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	if d.Matcher == nil {
		d.Matcher = patterns.NewMatcher(patterns.DefaultNCERT())
	}
	if d.Validator == nil {
		d.Validator = quality.NewValidator(quality.DefaultConfig())
	}
	if d.Scorer == nil {
		d.Scorer = relevance.NewScorer(relevance.DefaultWeights())
	}
	if d.Baseline == nil {
		d.Baseline = chunker.NewSentenceChunker(5, 1)
	}
	if d.Workers <= 0 {
		d.Workers = 4
	}
	if d.SummaryMaxSentences <= 0 {
		d.SummaryMaxSentences = 5
	}
	return &RAGServiceImpl{
		chunker:             d.Chunker,
		baseline:            d.Baseline,
		strategy:            d.Strategy,
		matcher:             d.Matcher,
		validator:           d.Validator,
		scorer:              d.Scorer,
		embedder:            d.Embedder,
		vectors:             d.Vectors,
		store:               d.Store,
		summarizer:          d.Summarizer,
		summaryMaxSentences: d.SummaryMaxSentences,
		workers:             d.Workers,
		opts:                d.Options,
		metrics:             d.Metrics,
		log:                 d.Log,
		docs:                make(map[string]domain.Document),
	}
}

// DocumentResult summarises the processing of one document.
type DocumentResult struct {
	Document   domain.Document
	Sections   int
	Skipped    int
	NoElements int
	Chunks     []domain.HolisticChunk
	Degraded   int
	Failed     int
}

// IngestReport is returned by IngestDocuments.
type IngestReport struct {
	RunID     string
	Documents []DocumentResult
	Summary   string
}

// Chunks counts the chunks written across all documents.
func (r IngestReport) Chunks() int {
	n := 0
	for _, d := range r.Documents {
		n += len(d.Chunks)
	}
	return n
}

// IngestDocuments loads every .txt and .pdf matched by paths, chunks and persists them,
// rebuilds the vector index and returns an overview summary of the loaded text.
func (s *RAGServiceImpl) IngestDocuments(ctx context.Context, paths []string) (IngestReport, error) {
	files := ingest.Expand(paths)
	if len(files) == 0 {
		return IngestReport{}, fmt.Errorf("no .txt or .pdf documents found")
	}
	rep := IngestReport{RunID: uuid.NewString()}
	log := s.log.With("run", rep.RunID)
	var allText strings.Builder
	for _, f := range files {
		doc, err := ingest.Load(f, s.opts)
		if err != nil {
			return rep, err
		}
		res, err := s.processDocument(ctx, doc, log)
		if err != nil {
			return rep, err
		}
		rep.Documents = append(rep.Documents, res)
		allText.WriteString("\n")
		allText.WriteString(doc.Text)
	}
	if err := s.Reindex(ctx); err != nil {
		return rep, err
	}
	log.Info("ingest finished", "documents", len(rep.Documents), "chunks", rep.Chunks())
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(allText.String(), s.summaryMaxSentences)
		if err != nil {
			return rep, err
		}
		rep.Summary = summary
	}
	return rep, nil
}

// Reprocess reloads a document and stores its chunks as a new version. Earlier versions are kept.
func (s *RAGServiceImpl) Reprocess(ctx context.Context, path string) (DocumentResult, error) {
	doc, err := ingest.Load(path, s.opts)
	if err != nil {
		return DocumentResult{}, err
	}
	res, err := s.ProcessDocument(ctx, doc)
	if err != nil {
		return res, err
	}
	return res, s.Reindex(ctx)
}

// ProcessDocument chunks every section of doc concurrently and persists the chunks.
// An invalid section descriptor aborts the document; malformed sections are skipped.
// Chunks that already exist are stored as the next version. The vector index is not updated.
func (s *RAGServiceImpl) ProcessDocument(ctx context.Context, doc domain.Document) (DocumentResult, error) {
	return s.processDocument(ctx, doc, s.log)
}

func (s *RAGServiceImpl) processDocument(ctx context.Context, doc domain.Document, log *logger.Logger) (DocumentResult, error) {
	log = log.With("document", doc.ID)
	res := DocumentResult{Document: doc}
	sections := ingest.DetectSections(doc, s.matcher)
	res.Sections = len(sections)
	results := make([]*chunker.Result, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, sec := range sections {
		g.Go(func() error {
			r, err := s.chunkSection(gctx, doc, sec)
			if errors.Is(err, domain.ErrMalformedInput) {
				log.Error("skipping malformed section", "section", sec.SectionNumber, "error", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("section %s: %w", sec.SectionNumber, err)
			}
			results[i] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	for _, r := range results {
		if r == nil {
			res.Skipped++
			continue
		}
		if r.NoElements {
			res.NoElements++
		}
		res.Degraded += r.Degraded
		res.Failed += r.Failed
		res.Chunks = append(res.Chunks, r.Chunks...)
	}
	if err := s.persist(ctx, res.Chunks, log); err != nil {
		return res, err
	}

	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
	log.Info("document processed", "sections", res.Sections, "skipped", res.Skipped,
		"chunks", len(res.Chunks), "failed", res.Failed)
	return res, nil
}

func (s *RAGServiceImpl) chunkSection(ctx context.Context, doc domain.Document, sec domain.RawSection) (chunker.Result, error) {
	if s.strategy == "sentence" {
		return s.chunker.ChunkSectionBaseline(ctx, doc, sec, s.baseline)
	}
	return s.chunker.ChunkSection(ctx, doc, sec)
}

// persist assigns versions within the chunk's document and writes the chunks in one batch.
func (s *RAGServiceImpl) persist(ctx context.Context, chunks []domain.HolisticChunk, log *logger.Logger) error {
	for i := range chunks {
		prev, err := s.store.Latest(ctx, chunks[i].DocumentID, chunks[i].ChunkID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			chunks[i].Version = 1
		case err != nil:
			return err
		default:
			chunks[i].Version = prev.Version + 1
			log.Debug("storing new chunk version", "chunk_id", chunks[i].ChunkID, "version", chunks[i].Version)
		}
	}
	records, err := store.ToRecords(chunks)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, records)
}

// Restore loads the latest chunk versions from the store and rebuilds the vector index.
func (s *RAGServiceImpl) Restore(ctx context.Context) (int, error) {
	if err := s.Reindex(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Reindex prepares the embedder on the latest chunks and replaces the vector index,
// embedding each document's chunks in one batch.
func (s *RAGServiceImpl) Reindex(ctx context.Context) error {
	records, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	latest := store.LatestVersions(records)
	chunks := make([]domain.HolisticChunk, 0, len(latest))
	for _, r := range latest {
		ch, err := store.FromRecord(r)
		if err != nil {
			return err
		}
		chunks = append(chunks, ch)
	}

	s.mu.Lock()
	s.chunks = chunks
	s.indexed = false
	s.mu.Unlock()
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Content
	}
	if err := s.embedder.Prepare(texts); err != nil {
		return err
	}

	vectors := make([][]float64, 0, len(chunks))
	for _, group := range byDocument(chunks) {
		batch := make([]string, len(group))
		for i, idx := range group {
			batch[i] = texts[idx]
		}
		start := time.Now()
		vecs, err := s.embedder.EmbedBatch(ctx, batch)
		s.metrics.EmbeddingBatch(time.Since(start))
		if err != nil {
			return fmt.Errorf("embed document %s: %w", chunks[group[0]].DocumentID, err)
		}
		vectors = append(vectors, vecs...)
	}

	dim := s.embedder.Dimension()
	if dim == 0 && len(vectors) > 0 {
		dim = len(vectors[0])
	}
	if err := s.vectors.Clear(); err != nil {
		return err
	}
	if err := s.vectors.Init(dim); err != nil {
		return err
	}
	ids := make([]string, len(chunks))
	for i, ch := range chunks {
		ids[i] = store.Ref(ch.DocumentID, ch.ChunkID)
	}
	if err := s.vectors.Upsert(ids, vectors); err != nil {
		return err
	}
	s.mu.Lock()
	s.indexed = true
	s.mu.Unlock()
	return nil
}

// byDocument groups chunk indexes by document. chunks are sorted by document already.
func byDocument(chunks []domain.HolisticChunk) [][]int {
	var groups [][]int
	for i, ch := range chunks {
		if i == 0 || ch.DocumentID != chunks[i-1].DocumentID {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], i)
	}
	return groups
}

// Chunks returns the latest version of every stored chunk.
func (s *RAGServiceImpl) Chunks() []domain.HolisticChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HolisticChunk(nil), s.chunks...)
}

// Hit is a ranked chunk with its itemised score.
type Hit struct {
	domain.SearchResult
	Breakdown  relevance.Breakdown
	Similarity float64
}

// Query parses line, computes vector similarity for every chunk and ranks them with the relevance
// scorer. When the query has no usable vector, lexical overlap stands in for similarity.
func (s *RAGServiceImpl) Query(ctx context.Context, line string, topK int) ([]Hit, error) {
	q := relevance.ParseQuery(line)
	s.mu.RLock()
	chunks := s.chunks
	indexed := s.indexed
	s.mu.RUnlock()
	if len(chunks) == 0 {
		return nil, nil
	}

	sim, err := s.similarity(ctx, q, chunks, indexed)
	if err != nil {
		return nil, err
	}
	ranked := s.scorer.Rank(q, chunks, sim, topK)

	pos := positions(chunks)
	hits := make([]Hit, len(ranked))
	for i, r := range ranked {
		v := sim[pos[store.Ref(r.Chunk.DocumentID, r.Chunk.ChunkID)]]
		hits[i] = Hit{SearchResult: r, Similarity: v, Breakdown: s.scorer.Explain(r.Chunk, q, v)}
	}
	return hits, nil
}

// positions indexes chunks by their document-scoped reference.
func positions(chunks []domain.HolisticChunk) map[string]int {
	pos := make(map[string]int, len(chunks))
	for i, ch := range chunks {
		pos[store.Ref(ch.DocumentID, ch.ChunkID)] = i
	}
	return pos
}

func (s *RAGServiceImpl) similarity(ctx context.Context, q domain.Query, chunks []domain.HolisticChunk, indexed bool) ([]float64, error) {
	text := q.Text
	if text == "" {
		text = strings.Join(q.Concepts, " ")
	}
	sim := make([]float64, len(chunks))
	if text == "" {
		return sim, nil
	}
	if indexed {
		vec, err := s.embedder.Embed(ctx, text)
		if err != nil {
			s.log.Warn("query embedding failed, using lexical overlap", "error", err)
		} else if !embedding.IsZero(vec) {
			hits, err := s.vectors.Search(vec, len(chunks))
			if err != nil {
				return nil, err
			}
			pos := positions(chunks)
			matched := false
			for _, h := range hits {
				if i, ok := pos[h.ChunkID]; ok {
					sim[i] = math.Max(h.Score, 0)
					matched = matched || h.Score > 1e-9
				}
			}
			if matched {
				return sim, nil
			}
		}
	}
	qset := toTokenSet(text)
	for i, ch := range chunks {
		sim[i] = overlapOchiai(qset, ch.Content)
	}
	return sim, nil
}

// Comparison grades the holistic chunks against the sentence-window baseline over the same sections.
type Comparison struct {
	Holistic       quality.Report
	Baseline       quality.Report
	HolisticChunks int
	BaselineChunks int
}

// Compare validates the baseline chunking of every loaded document and grades both strategies.
func (s *RAGServiceImpl) Compare(ctx context.Context) (Comparison, error) {
	s.mu.RLock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	chunks := s.chunks
	s.mu.RUnlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	loaded := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		loaded[d.ID] = struct{}{}
	}
	var holistic []domain.ValidationResult
	for _, ch := range chunks {
		if _, ok := loaded[ch.DocumentID]; ok {
			holistic = append(holistic, ch.Validation)
		}
	}

	var baseline []domain.ValidationResult
	for _, doc := range docs {
		for _, sec := range ingest.DetectSections(doc, s.matcher) {
			res, err := s.chunker.ChunkSectionBaseline(ctx, doc, sec, s.baseline)
			if errors.Is(err, domain.ErrMalformedInput) {
				continue
			}
			if err != nil {
				return Comparison{}, err
			}
			for _, ch := range res.Chunks {
				baseline = append(baseline, ch.Validation)
			}
		}
	}
	return Comparison{
		Holistic:       s.validator.SystemReport(holistic),
		Baseline:       s.validator.SystemReport(baseline),
		HolisticChunks: len(holistic),
		BaselineChunks: len(baseline),
	}, nil
}

// Report grades every stored chunk.
func (s *RAGServiceImpl) Report() quality.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.ValidationResult, len(s.chunks))
	for i, ch := range s.chunks {
		results[i] = ch.Validation
	}
	return s.validator.SystemReport(results)
}

func toTokenSet(s string) map[string]struct{} {
	tokens := textutil.ContentTokens(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[textutil.Stem(t)] = struct{}{}
	}
	return m
}

func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := make(map[string]struct{})
	inter := 0
	for _, t := range textutil.ContentTokens(text) {
		t = textutil.Stem(t)
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	// Ochiai coefficient: |A∩B| / sqrt(|A||B|)
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}
