package chunker

import (
	"fmt"

	"ncertrag/internal/domain"
	"ncertrag/internal/textutil"
)

// SentenceChunker is the naive baseline: fixed windows of sentences with overlap, blind to
// activities and examples. It exists to compare against holistic chunking in reports.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

// Units splits text into sentence windows. Windows may share sentences when overlap is set.
func (c *SentenceChunker) Units(text string) []domain.LearningUnit {
	sentences := textutil.Split(text)
	if len(sentences) == 0 {
		return nil
	}
	var units []domain.LearningUnit
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerChunk
		if end > len(sentences) {
			end = len(sentences)
		}
		u := domain.LearningUnit{ID: fmt.Sprintf("window_%03d", len(units)+1)}
		for _, s := range sentences[i:end] {
			u.Segments = append(u.Segments, domain.Segment{Type: domain.ElementProse, Text: s.Text, Start: s.Start, End: s.End})
		}
		u.Start, u.End = sentences[i].Start, sentences[end-1].End
		units = append(units, u)
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return units
}
