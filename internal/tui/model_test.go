package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ncertrag/internal/domain"
	"ncertrag/internal/relevance"
	"ncertrag/internal/service"
)

type stubPort struct {
	hits  []service.Hit
	err   error
	lines []string
}

func (s *stubPort) Query(_ context.Context, line string, _ int) ([]service.Hit, error) {
	s.lines = append(s.lines, line)
	return s.hits, s.err
}

func hit(id string, score float64, content string) service.Hit {
	return service.Hit{
		SearchResult: domain.SearchResult{
			Chunk: domain.HolisticChunk{ChunkID: id, Version: 1, Content: content, BoundaryDegraded: true},
			Score: score,
		},
		Breakdown: relevance.Breakdown{Literal: score},
	}
}

func submit(t *testing.T, m Model, line string) Model {
	t.Helper()
	m.input.SetValue(line)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestQueryShowsResults(t *testing.T) {
	port := &stubPort{hits: []service.Hit{
		hit("contextual_8.1_001", 0.9, "Force is a push or a pull. It changes motion."),
		hit("contextual_8.2_001", 0.4, "Momentum is mass times velocity."),
	}}
	next, _ := New(port, "summary", 5).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := submit(t, next.(Model), "force")

	assert.Equal(t, []string{"force"}, port.lines)
	assert.Contains(t, m.status, "2 results")
	view := m.View()
	assert.Contains(t, view, "contextual_8.1_001")
	assert.Contains(t, view, "boundary degraded")

	down, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Contains(t, down.(Model).View(), "contextual_8.2_001")
	up, _ := down.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, up.(Model).cursor)
}

func TestQueryErrorIsReported(t *testing.T) {
	port := &stubPort{err: errors.New("index not built")}
	m := submit(t, New(port, "", 0), "force")
	assert.Equal(t, "Error: index not built", m.status)
	assert.Empty(t, m.results)
	assert.Equal(t, 10, m.topK)
}

func TestViewBeforeResize(t *testing.T) {
	assert.Equal(t, "Loading...", New(&stubPort{}, "", 3).View())
}

func TestHighlightPicksBestSentence(t *testing.T) {
	text := "Light travels fast. Force changes the motion of a body. Sound needs a medium."
	out := highlightBestSentence(text, "forces and motion")
	assert.True(t, strings.HasPrefix(out, "Light travels fast."))
	assert.Contains(t, out, "Sound needs a medium.")
	assert.Equal(t, 2, tokenOverlapScore(toTokenSet("forces and motion"), "Force changes the motion of a body."))
}
