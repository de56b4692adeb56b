package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("line\n")
	}
	return b.String()
}

func TestNaiveChunkerTenLines(t *testing.T) {
	c, err := NewNaiveChunker(4, 0)
	require.NoError(t, err)

	spans := c.Chunk(numberedLines(10))

	assert.Equal(t, []Span{
		{Start: 0, End: 4},
		{Start: 4, End: 8},
		{Start: 8, End: 10},
	}, spans)
}

func TestNaiveChunkerWindowCount(t *testing.T) {
	tests := []struct {
		lines     int
		lineCount int
		expected  int
	}{
		{1, 30, 1},
		{30, 30, 1},
		{31, 30, 2},
		{100, 7, 15},
		{60, 1, 60},
	}

	for _, tt := range tests {
		c, err := NewNaiveChunker(tt.lineCount, 0)
		require.NoError(t, err)

		spans := c.Chunk(numberedLines(tt.lines))
		require.Len(t, spans, tt.expected)
		assert.Equal(t, tt.lines, spans[len(spans)-1].End)
		for i := 1; i < len(spans); i++ {
			assert.Equal(t, spans[i-1].End, spans[i].Start)
		}
	}
}

func TestNaiveChunkerOverlap(t *testing.T) {
	c, err := NewNaiveChunker(4, 2)
	require.NoError(t, err)

	spans := c.Chunk(numberedLines(9))

	assert.Equal(t, []Span{
		{Start: 0, End: 4},
		{Start: 2, End: 6},
		{Start: 4, End: 8},
		{Start: 6, End: 9},
	}, spans)
}

func TestNaiveChunkerNoTrailingNewline(t *testing.T) {
	c, err := NewNaiveChunker(2, 0)
	require.NoError(t, err)

	spans := c.Chunk("a\nb\nc")
	assert.Equal(t, []Span{{Start: 0, End: 2}, {Start: 2, End: 3}}, spans)
}

func TestNaiveChunkerEmpty(t *testing.T) {
	c, err := NewNaiveChunker(DefaultLineCount, DefaultOverlap)
	require.NoError(t, err)

	assert.Empty(t, c.Chunk(""))
}

func TestNewNaiveChunkerValidation(t *testing.T) {
	tests := []struct {
		name      string
		lineCount int
		overlap   int
	}{
		{"zero line count", 0, 0},
		{"negative overlap", 10, -1},
		{"overlap equals line count", 10, 10},
		{"overlap exceeds line count", 10, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNaiveChunker(tt.lineCount, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidWindow)
		})
	}
}
