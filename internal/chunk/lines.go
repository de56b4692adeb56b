package chunk

import "sort"

// lineIndex maps byte offsets to 0-based line numbers. Lines keep their
// terminator, so "a\nb\n" has two lines and a trailing newline does not
// open an empty third one.
type lineIndex struct {
	// ends[i] is the byte offset just past line i.
	ends []int
}

func newLineIndex(text []byte) lineIndex {
	var ends []int
	for i, b := range text {
		if b == '\n' {
			ends = append(ends, i+1)
		}
	}
	if len(text) > 0 && text[len(text)-1] != '\n' {
		ends = append(ends, len(text))
	}
	return lineIndex{ends: ends}
}

// count returns the number of lines.
func (idx lineIndex) count() int {
	return len(idx.ends)
}

// lineOf returns the line containing offset. Offsets at or past the end of
// the text map to count().
func (idx lineIndex) lineOf(offset int) int {
	return sort.Search(len(idx.ends), func(i int) bool {
		return idx.ends[i] > offset
	})
}

// CountLines returns the number of lines in text using the same rules the
// chunkers use.
func CountLines(text string) int {
	return newLineIndex([]byte(text)).count()
}
