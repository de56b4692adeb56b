package chunk

import (
	"errors"
	"fmt"
)

const (
	// DefaultLineCount is the naive window size in lines.
	DefaultLineCount = 30
	// DefaultOverlap is the number of lines shared by consecutive windows.
	DefaultOverlap = 0
)

// ErrInvalidWindow is returned for window parameters that cannot make progress.
var ErrInvalidWindow = errors.New("invalid window parameters")

// NaiveChunker splits text into fixed-size line windows. It is the fallback
// for files without a registered grammar.
type NaiveChunker struct {
	lineCount int
	overlap   int
}

// NewNaiveChunker creates a chunker producing windows of lineCount lines that
// share overlap lines with their predecessor.
func NewNaiveChunker(lineCount, overlap int) (*NaiveChunker, error) {
	if lineCount <= 0 {
		return nil, fmt.Errorf("%w: line count must be positive, got %d", ErrInvalidWindow, lineCount)
	}
	if overlap < 0 || overlap >= lineCount {
		return nil, fmt.Errorf("%w: overlap (%d) must be in [0, %d)", ErrInvalidWindow, overlap, lineCount)
	}
	return &NaiveChunker{lineCount: lineCount, overlap: overlap}, nil
}

// Chunk returns the line windows for content. Empty content yields nil.
func (c *NaiveChunker) Chunk(content string) []Span {
	total := CountLines(content)
	if total == 0 {
		return nil
	}

	step := c.lineCount - c.overlap
	spans := make([]Span, 0, (total+step-1)/step)
	for start := 0; start < total; start += step {
		spans = append(spans, Span{Start: start, End: min(start+c.lineCount, total)})
		if start+c.lineCount >= total {
			break
		}
	}
	return spans
}
