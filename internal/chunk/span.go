// Package chunk splits file contents into line-ranged snippets, either by
// walking a syntax tree or by fixed-size line windows.
package chunk

// Span is a half-open interval [Start, End) over byte offsets or line numbers.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Merge returns the smallest span covering a and b. Only merge spans that
// abut or overlap; anything else silently swallows the gap between them.
func Merge(a, b Span) Span {
	return Span{Start: min(a.Start, b.Start), End: max(a.End, b.End)}
}

// Len returns End - Start.
func (s Span) Len() int {
	return s.End - s.Start
}

// Extract returns the bytes of text covered by s, clamped to the text bounds.
func (s Span) Extract(text []byte) string {
	start := min(max(s.Start, 0), len(text))
	end := min(max(s.End, start), len(text))
	return string(text[start:end])
}
