package sqlite

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"ncertrag/internal/domain"
)

// chunkRow is the table layout of a chunk record.
type chunkRow struct {
	Key           string `gorm:"primaryKey;size:36"`
	ChunkID       string `gorm:"index:idx_chunk_version,unique;not null"`
	Version       int    `gorm:"index:idx_chunk_version,unique;not null"`
	DocumentID    string `gorm:"index:idx_chunk_version,unique,priority:1;not null"`
	SectionNumber string
	Sequence      int
	Content       string
	MetadataJSON  string
	QualityScore  float64
	Passed        bool
}

func (chunkRow) TableName() string { return "chunk_records" }

func rowOf(r domain.ChunkRecord) chunkRow {
	return chunkRow(r)
}

func (r chunkRow) record() domain.ChunkRecord {
	return domain.ChunkRecord(r)
}

// Store persists chunk records in a SQLite database through gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := db.AutoMigrate(&chunkRow{}); err != nil {
		return nil, fmt.Errorf("migrate chunk_records: %w", err)
	}
	return &Store{db: db}, nil
}

// Create inserts all records in one transaction. Existing keys fail the batch with ErrAlreadyExists.
func (s *Store) Create(ctx context.Context, records []domain.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]chunkRow, len(records))
	for i, r := range records {
		rows[i] = rowOf(r)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", domain.ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("insert chunk records: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, documentID, chunkID string, version int) (domain.ChunkRecord, error) {
	var row chunkRow
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND chunk_id = ? AND version = ?", documentID, chunkID, version).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s version %d", domain.ErrNotFound, documentID, chunkID, version)
	}
	if err != nil {
		return domain.ChunkRecord{}, err
	}
	return row.record(), nil
}

func (s *Store) Latest(ctx context.Context, documentID, chunkID string) (domain.ChunkRecord, error) {
	var row chunkRow
	err := s.db.WithContext(ctx).
		Where("document_id = ? AND chunk_id = ?", documentID, chunkID).
		Order("version DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ChunkRecord{}, fmt.Errorf("%w: chunk %s/%s", domain.ErrNotFound, documentID, chunkID)
	}
	if err != nil {
		return domain.ChunkRecord{}, err
	}
	return row.record(), nil
}

// List returns every stored version ordered by document, chunk ID and version.
func (s *Store) List(ctx context.Context) ([]domain.ChunkRecord, error) {
	var rows []chunkRow
	if err := s.db.WithContext(ctx).Order("document_id, chunk_id, version").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.ChunkRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
