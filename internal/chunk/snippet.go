package chunk

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Snippet is a line-range view into one file. Content holds the whole file;
// consumers slice lines [Start, End) themselves.
type Snippet struct {
	Content  string `json:"-"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	FilePath string `json:"file_path"`
}

// NewSnippets turns line spans into snippets over content.
func NewSnippets(content, filePath string, spans []Span) []Snippet {
	if len(spans) == 0 {
		return nil
	}
	snippets := make([]Snippet, len(spans))
	for i, s := range spans {
		snippets[i] = Snippet{
			Content:  content,
			Start:    s.Start,
			End:      s.End,
			FilePath: filePath,
		}
	}
	return snippets
}

// Span returns the snippet's line range.
func (s Snippet) Span() Span {
	return Span{Start: s.Start, End: s.End}
}

// Lines returns the lines of Content within [Start, End), without terminators.
func (s Snippet) Lines() []string {
	lines := strings.SplitAfter(s.Content, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	start := min(max(s.Start, 0), len(lines))
	end := min(max(s.End, start), len(lines))

	out := make([]string, 0, end-start)
	for _, line := range lines[start:end] {
		out = append(out, strings.TrimRight(line, "\r\n"))
	}
	return out
}

// Text returns the snippet's lines joined by newlines.
func (s Snippet) Text() string {
	return strings.Join(s.Lines(), "\n")
}

// ID returns a deterministic identifier for the snippet.
func (s Snippet) ID() string {
	data := fmt.Sprintf("%s:%d:%d", s.FilePath, s.Start, s.End)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:8])
}

// Denotation renders the snippet as path:start-end using 1-based inclusive
// line numbers, the form editors and prompts expect.
func (s Snippet) Denotation() string {
	return fmt.Sprintf("%s:%d-%d", s.FilePath, s.Start+1, s.End)
}
