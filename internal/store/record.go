// Package store converts chunks to persisted records and opens the configured chunk store.
package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"ncertrag/internal/domain"
)

var keyNamespace = uuid.MustParse("0b7d7c7e-9a55-5b1e-8f4a-2d6c1e3f8a90")

// Key is the storage key of one chunk version. It is stable across runs.
func Key(documentID, chunkID string, version int) string {
	return uuid.NewSHA1(keyNamespace, []byte(fmt.Sprintf("%s@%d", Ref(documentID, chunkID), version))).String()
}

// Ref names a chunk across documents. Section-derived chunk IDs repeat between chapters.
func Ref(documentID, chunkID string) string {
	return documentID + "/" + chunkID
}

// envelope carries the chunk fields that have no column of their own.
type envelope struct {
	Metadata           domain.Metadata           `json:"metadata"`
	PedagogicalContext domain.PedagogicalContext `json:"pedagogical_context"`
	Spans              []domain.Span             `json:"spans"`
	BoundaryDegraded   bool                      `json:"boundary_degraded,omitempty"`
	ContextPoor        bool                      `json:"context_poor,omitempty"`
	Validation         domain.ValidationResult   `json:"validation"`
}

// ToRecord flattens a chunk for persistence. Version 0 is stored as version 1.
func ToRecord(ch domain.HolisticChunk) (domain.ChunkRecord, error) {
	if ch.Version <= 0 {
		ch.Version = 1
	}
	meta, err := json.Marshal(envelope{
		Metadata:           ch.Metadata,
		PedagogicalContext: ch.PedagogicalContext,
		Spans:              ch.Spans,
		BoundaryDegraded:   ch.BoundaryDegraded,
		ContextPoor:        ch.ContextPoor,
		Validation:         ch.Validation,
	})
	if err != nil {
		return domain.ChunkRecord{}, fmt.Errorf("encode chunk %s metadata: %w", ch.ChunkID, err)
	}
	return domain.ChunkRecord{
		Key:           Key(ch.DocumentID, ch.ChunkID, ch.Version),
		ChunkID:       ch.ChunkID,
		Version:       ch.Version,
		DocumentID:    ch.DocumentID,
		SectionNumber: ch.SectionNumber,
		Sequence:      ch.Sequence,
		Content:       ch.Content,
		MetadataJSON:  string(meta),
		QualityScore:  ch.QualityScore,
		Passed:        ch.Validation.Passed,
	}, nil
}

// ToRecords converts a batch, stopping at the first failure.
func ToRecords(chunks []domain.HolisticChunk) ([]domain.ChunkRecord, error) {
	out := make([]domain.ChunkRecord, 0, len(chunks))
	for _, ch := range chunks {
		rec, err := ToRecord(ch)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// FromRecord restores the chunk a record was made from.
func FromRecord(rec domain.ChunkRecord) (domain.HolisticChunk, error) {
	var env envelope
	if rec.MetadataJSON != "" {
		if err := json.Unmarshal([]byte(rec.MetadataJSON), &env); err != nil {
			return domain.HolisticChunk{}, fmt.Errorf("decode chunk %s metadata: %w", rec.ChunkID, err)
		}
	}
	return domain.HolisticChunk{
		ChunkID:            rec.ChunkID,
		Version:            rec.Version,
		DocumentID:         rec.DocumentID,
		SectionNumber:      rec.SectionNumber,
		Sequence:           rec.Sequence,
		Content:            rec.Content,
		QualityScore:       rec.QualityScore,
		Metadata:           env.Metadata,
		PedagogicalContext: env.PedagogicalContext,
		Spans:              env.Spans,
		BoundaryDegraded:   env.BoundaryDegraded,
		ContextPoor:        env.ContextPoor,
		Validation:         env.Validation,
	}, nil
}

// LatestVersions keeps the highest version of every chunk of every document, ordered by
// document, section and sequence.
func LatestVersions(records []domain.ChunkRecord) []domain.ChunkRecord {
	latest := make(map[string]domain.ChunkRecord, len(records))
	for _, r := range records {
		ref := Ref(r.DocumentID, r.ChunkID)
		if cur, ok := latest[ref]; !ok || r.Version > cur.Version {
			latest[ref] = r
		}
	}
	out := make([]domain.ChunkRecord, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	SortRecords(out)
	return out
}

// SortRecords orders records by document, section, sequence and version.
// Sections compare part by part as numbers, so 7.2 precedes 7.10.
func SortRecords(records []domain.ChunkRecord) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.DocumentID != b.DocumentID {
			return a.DocumentID < b.DocumentID
		}
		if c := CompareSections(a.SectionNumber, b.SectionNumber); c != 0 {
			return c < 0
		}
		if a.Sequence != b.Sequence {
			return a.Sequence < b.Sequence
		}
		if a.ChunkID != b.ChunkID {
			return a.ChunkID < b.ChunkID
		}
		return a.Version < b.Version
	})
}

// CompareSections orders dotted section numbers numerically. Parts that are not numbers
// compare as strings and sort after numeric ones.
func CompareSections(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, errA := strconv.Atoi(pa[i])
		nb, errB := strconv.Atoi(pb[i])
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				return cmp.Compare(na, nb)
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			if c := strings.Compare(pa[i], pb[i]); c != 0 {
				return c
			}
		}
	}
	return cmp.Compare(len(pa), len(pb))
}
