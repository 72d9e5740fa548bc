package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"ncertrag/internal/domain"
)

// chunkRecord mirrors domain.ChunkRecord with badgerhold indexes.
type chunkRecord struct {
	Key           string
	ChunkID       string `badgerhold:"index"`
	Version       int
	DocumentID    string `badgerhold:"index"`
	SectionNumber string
	Sequence      int
	Content       string
	MetadataJSON  string
	QualityScore  float64
	Passed        bool
}

// Store persists chunk records in an embedded badger database.
type Store struct {
	store *badgerhold.Store
}

// Open opens the badger database in dir.
func Open(dir string) (*Store, error) {
	options := badgerhold.DefaultOptions
	options.Dir = dir
	options.ValueDir = dir
	options.Logger = nil
	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &Store{store: store}, nil
}

// Create inserts all records in one transaction. An existing key fails the batch with ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, records []domain.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := s.store.Badger().NewTransaction(true)
	defer tx.Discard()
	for _, r := range records {
		rec := chunkRecord(r)
		if err := s.store.TxInsert(tx, r.Key, &rec); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: chunk %s version %d", domain.ErrAlreadyExists, r.ChunkID, r.Version)
			}
			return fmt.Errorf("insert chunk %s: %w", r.ChunkID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Get(_ context.Context, documentID, chunkID string, version int) (domain.ChunkRecord, error) {
	var recs []chunkRecord
	q := badgerhold.Where("ChunkID").Eq(chunkID).Index("ChunkID").
		And("DocumentID").Eq(documentID).
		And("Version").Eq(version)
	if err := s.store.Find(&recs, q); err != nil {
		return domain.ChunkRecord{}, fmt.Errorf("find chunk %s/%s: %w", documentID, chunkID, err)
	}
	if len(recs) == 0 {
		return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s version %d", domain.ErrNotFound, documentID, chunkID, version)
	}
	return domain.ChunkRecord(recs[0]), nil
}

func (s *Store) Latest(_ context.Context, documentID, chunkID string) (domain.ChunkRecord, error) {
	var recs []chunkRecord
	q := badgerhold.Where("ChunkID").Eq(chunkID).Index("ChunkID").
		And("DocumentID").Eq(documentID).
		SortBy("Version").Reverse().Limit(1)
	if err := s.store.Find(&recs, q); err != nil {
		return domain.ChunkRecord{}, fmt.Errorf("find chunk %s/%s: %w", documentID, chunkID, err)
	}
	if len(recs) == 0 {
		return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s", domain.ErrNotFound, documentID, chunkID)
	}
	return domain.ChunkRecord(recs[0]), nil
}

// List returns every stored version ordered by document, chunk ID and version.
func (s *Store) List(_ context.Context) ([]domain.ChunkRecord, error) {
	var recs []chunkRecord
	if err := s.store.Find(&recs, (&badgerhold.Query{}).SortBy("DocumentID", "ChunkID", "Version")); err != nil {
		return nil, err
	}
	out := make([]domain.ChunkRecord, len(recs))
	for i, r := range recs {
		out[i] = domain.ChunkRecord(r)
	}
	return out, nil
}

func (s *Store) Close() error { return s.store.Close() }
