package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
	"ncertrag/internal/store/memory"
)

func sampleChunk() domain.HolisticChunk {
	return domain.HolisticChunk{
		ChunkID:       "contextual_8.1_001",
		DocumentID:    "doc",
		SectionNumber: "8.1",
		Sequence:      1,
		Content:       "Force is a push or a pull.\n\nACTIVITY 8.1 Push a ball.",
		QualityScore:  0.72,
		Metadata: domain.Metadata{
			BasicInfo:          domain.BasicInfo{GradeLevel: 9, Subject: "physics", Chapter: 8, Section: "8.1", PageStart: 3, PageEnd: 4},
			ContentComposition: domain.ContentComposition{ActivityCount: 1, Activities: []string{"8.1"}},
		},
		PedagogicalContext: domain.PedagogicalContext{HasActivities: true, IsCompleteUnit: true},
		Spans:              []domain.Span{{Start: 10, End: 40}, {Start: 42, End: 70}},
		ContextPoor:        true,
		Validation:         domain.ValidationResult{OverallScore: 0.8, Passed: true, IndividualScores: map[string]float64{"completeness": 1}},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	ch := sampleChunk()
	rec, err := ToRecord(ch)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.Version)
	assert.Equal(t, Key(ch.DocumentID, ch.ChunkID, 1), rec.Key)
	assert.True(t, rec.Passed)

	back, err := FromRecord(rec)
	require.NoError(t, err)
	ch.Version = 1
	assert.Equal(t, ch, back)
}

func TestKeyIsStablePerVersion(t *testing.T) {
	assert.Equal(t, Key("d", "c", 1), Key("d", "c", 1))
	assert.NotEqual(t, Key("d", "c", 1), Key("d", "c", 2))
	assert.NotEqual(t, Key("d", "c", 1), Key("e", "c", 1))
	assert.Len(t, Key("d", "c", 1), 36)
}

func TestFromRecordRejectsBadMetadata(t *testing.T) {
	_, err := FromRecord(domain.ChunkRecord{ChunkID: "c", MetadataJSON: "{"})
	assert.Error(t, err)
}

func TestLatestVersions(t *testing.T) {
	recs := []domain.ChunkRecord{
		{ChunkID: "contextual_8.2_001", SectionNumber: "8.2", Sequence: 1, Version: 1, DocumentID: "d"},
		{ChunkID: "contextual_8.1_002", SectionNumber: "8.1", Sequence: 2, Version: 2, DocumentID: "d"},
		{ChunkID: "contextual_8.1_002", SectionNumber: "8.1", Sequence: 2, Version: 1, DocumentID: "d"},
		{ChunkID: "contextual_8.1_001", SectionNumber: "8.1", Sequence: 1, Version: 1, DocumentID: "d"},
	}
	got := LatestVersions(recs)
	require.Len(t, got, 3)
	assert.Equal(t, "contextual_8.1_001", got[0].ChunkID)
	assert.Equal(t, "contextual_8.1_002", got[1].ChunkID)
	assert.Equal(t, 2, got[1].Version)
	assert.Equal(t, "contextual_8.2_001", got[2].ChunkID)
}

func TestLatestVersionsKeepsEachDocument(t *testing.T) {
	recs := []domain.ChunkRecord{
		{ChunkID: "contextual_8.1_001", SectionNumber: "8.1", Sequence: 1, Version: 1, DocumentID: "iesc108"},
		{ChunkID: "contextual_8.1_001", SectionNumber: "8.1", Sequence: 1, Version: 1, DocumentID: "iesc109"},
		{ChunkID: "contextual_8.1_001", SectionNumber: "8.1", Sequence: 1, Version: 2, DocumentID: "iesc108"},
	}
	got := LatestVersions(recs)
	require.Len(t, got, 2)
	assert.Equal(t, "iesc108", got[0].DocumentID)
	assert.Equal(t, 2, got[0].Version)
	assert.Equal(t, "iesc109", got[1].DocumentID)
	assert.Equal(t, 1, got[1].Version)
}

func TestSortRecordsOrdersSectionsNumerically(t *testing.T) {
	recs := []domain.ChunkRecord{
		{ChunkID: "contextual_7.10_001", SectionNumber: "7.10", Sequence: 1, DocumentID: "d"},
		{ChunkID: "contextual_7.2_001", SectionNumber: "7.2", Sequence: 1, DocumentID: "d"},
		{ChunkID: "contextual_7_001", SectionNumber: "7", Sequence: 1, DocumentID: "d"},
		{ChunkID: "contextual_7.2.1_001", SectionNumber: "7.2.1", Sequence: 1, DocumentID: "d"},
	}
	SortRecords(recs)
	var sections []string
	for _, r := range recs {
		sections = append(sections, r.SectionNumber)
	}
	assert.Equal(t, []string{"7", "7.2", "7.2.1", "7.10"}, sections)
}

func TestCompareSections(t *testing.T) {
	assert.Negative(t, CompareSections("7.2", "7.10"))
	assert.Positive(t, CompareSections("8.1", "7.9"))
	assert.Zero(t, CompareSections("0", "0"))
	assert.Negative(t, CompareSections("7.1", "7.A"))
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)

	s, err = Open(Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "chunks.db")})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(Config{Type: "postgres"})
	assert.Error(t, err)
}
