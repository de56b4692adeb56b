package chunk

import (
	"strings"
	"unicode"

	"github.com/randalmurphy/snippet-chunker/internal/parser"
)

const (
	// DefaultMaxChars is the byte budget that forces a structural split.
	DefaultMaxChars = 1500
	// DefaultCoalesce is the minimum chunk size before small chunks are merged.
	DefaultCoalesce = 100
)

// ChunkTree splits the syntax tree rooted at root into ordered, contiguous
// line spans. maxChars bounds the byte size of a chunk unless a single leaf
// is larger; coalesce is the non-whitespace size below which adjacent chunks
// are merged, and the line count below which the final chunk is folded into
// its predecessor.
//
// The returned spans are 0-based and half-open and together cover every line
// of source.
func ChunkTree(root parser.Node, source []byte, maxChars, coalesce int) []Span {
	if root.Len() == 0 {
		return nil
	}

	chunks := chunkNode(root, maxChars)
	if len(chunks) == 0 {
		return nil
	}
	fillGaps(chunks, root.EndByte)

	lines := newLineIndex(source)
	if len(chunks) == 1 {
		only := Span{Start: 0, End: lines.lineOf(chunks[0].End)}
		if only.Len() == 0 {
			return nil
		}
		return []Span{only}
	}

	merged := coalesceChunks(chunks, source, coalesce)
	lineChunks := toLineSpans(merged, lines)

	for n := len(lineChunks); n > 1 && lineChunks[n-1].Len() < coalesce; n-- {
		lineChunks[n-2] = Merge(lineChunks[n-2], lineChunks[n-1])
		lineChunks = lineChunks[:n-1]
	}

	return lineChunks
}

// chunkNode partitions node's children into byte spans no larger than
// maxChars, descending into children that are too big on their own.
func chunkNode(node parser.Node, maxChars int) []Span {
	var chunks []Span
	current := Span{Start: node.StartByte, End: node.StartByte}

	for _, child := range node.Children {
		span := Span{Start: child.StartByte, End: child.EndByte}

		switch {
		case span.Len() > maxChars:
			chunks = append(chunks, current)
			current = Span{Start: child.EndByte, End: child.EndByte}
			chunks = append(chunks, chunkNode(child, maxChars)...)
		case span.Len()+current.Len() > maxChars:
			chunks = append(chunks, current)
			current = span
		default:
			current = Merge(current, span)
		}
	}

	return append(chunks, current)
}

// fillGaps makes chunks contiguous: each chunk ends where the next begins and
// the last one ends at end.
func fillGaps(chunks []Span, end int) {
	for i := 0; i < len(chunks)-1; i++ {
		chunks[i].End = chunks[i+1].Start
	}
	chunks[len(chunks)-1].End = end
}

// coalesceChunks merges undersized chunks forward and keeps closing brackets
// attached to the chunk they close.
func coalesceChunks(chunks []Span, source []byte, coalesce int) []Span {
	var out []Span
	current := Span{}

	for _, c := range chunks {
		current = Merge(current, c)
		text := current.Extract(source)

		switch {
		case len(out) > 0 && startsWithCloser(text):
			out[len(out)-1] = Merge(out[len(out)-1], current)
			current = Span{Start: c.End, End: c.End}
		case nonWhitespaceLen(text) > coalesce && strings.Contains(text, "\n"):
			out = append(out, current)
			current = Span{Start: c.End, End: c.End}
		}
	}

	if current.Len() > 0 {
		out = append(out, current)
	}
	return out
}

// toLineSpans converts contiguous byte spans to line spans, dropping any that
// end up empty.
func toLineSpans(chunks []Span, lines lineIndex) []Span {
	out := make([]Span, 0, len(chunks))
	for i, c := range chunks {
		var s Span
		if i == 0 {
			s = Span{Start: 0, End: lines.lineOf(c.End)}
		} else {
			start := lines.lineOf(c.Start)
			s = Span{Start: start, End: max(start, lines.lineOf(c.End))}
		}
		if s.Len() > 0 {
			out = append(out, s)
		}
	}
	return out
}

func startsWithCloser(text string) bool {
	trimmed := strings.TrimLeftFunc(text, unicode.IsSpace)
	return trimmed != "" && strings.ContainsRune(")]}", rune(trimmed[0]))
}

func nonWhitespaceLen(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
