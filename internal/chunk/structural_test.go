package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphy/snippet-chunker/internal/parser"
)

// leaves builds a root node over source whose children are the given tokens,
// located in order.
func leaves(t *testing.T, source string, tokens ...string) parser.Node {
	t.Helper()

	root := parser.Node{Type: "root", StartByte: 0, EndByte: len(source)}
	offset := 0
	for _, tok := range tokens {
		idx := strings.Index(source[offset:], tok)
		require.GreaterOrEqual(t, idx, 0, "token %q not found", tok)
		start := offset + idx
		root.Children = append(root.Children, parser.Node{
			Type:      "leaf",
			StartByte: start,
			EndByte:   start + len(tok),
		})
		offset = start + len(tok)
	}
	return root
}

func parseSource(t *testing.T, lang parser.Language, source string) parser.Node {
	t.Helper()

	p, err := parser.NewParser(lang)
	require.NoError(t, err)
	defer p.Close()

	root, err := p.Parse(context.Background(), []byte(source))
	require.NoError(t, err)
	return root
}

func assertCoverage(t *testing.T, spans []Span, source string) {
	t.Helper()

	total := CountLines(source)
	if total == 0 {
		assert.Empty(t, spans)
		return
	}

	require.NotEmpty(t, spans)
	assert.Equal(t, 0, spans[0].Start, "first chunk must start at line 0")
	for i := 1; i < len(spans); i++ {
		assert.Equal(t, spans[i-1].End, spans[i].Start, "chunks %d and %d must be contiguous", i-1, i)
	}
	for _, s := range spans {
		assert.Greater(t, s.Len(), 0, "chunk %v must not be empty", s)
	}
	assert.Equal(t, total, spans[len(spans)-1].End, "last chunk must end at the last line")
}

func TestChunkTreeSmallFileIsSingleChunk(t *testing.T) {
	var b strings.Builder
	for b.Len() < 1000 {
		b.WriteString("x = compute(1, 2, 3)\n")
	}
	source := b.String()

	root := parseSource(t, parser.LanguagePython, source)
	spans := ChunkTree(root, []byte(source), 10000, DefaultCoalesce)

	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 0, End: CountLines(source)}, spans[0])
}

func TestChunkTreeSubdividesLargeNode(t *testing.T) {
	// One top-level node of 50,000 bytes made of 1,000 fifty-byte lines.
	line := strings.Repeat("a", 49)
	source := strings.Repeat(line+"\n", 1000)

	big := parser.Node{Type: "block", StartByte: 0, EndByte: len(source)}
	for i := 0; i < 1000; i++ {
		big.Children = append(big.Children, parser.Node{
			Type:      "statement",
			StartByte: i * 50,
			EndByte:   i*50 + 49,
		})
	}
	root := parser.Node{Type: "module", StartByte: 0, EndByte: len(source), Children: []parser.Node{big}}

	raw := chunkNode(root, 10000)
	for _, s := range raw {
		assert.LessOrEqual(t, s.Len(), 10000)
	}

	spans := ChunkTree(root, []byte(source), 10000, DefaultCoalesce)
	assert.GreaterOrEqual(t, len(spans), 5)
	assertCoverage(t, spans, source)
}

func TestChunkTreeOversizedLeafStaysWhole(t *testing.T) {
	source := strings.Repeat("long string content\n", 1000)
	root := parser.Node{
		Type:      "module",
		StartByte: 0,
		EndByte:   len(source),
		Children:  []parser.Node{{Type: "string", StartByte: 0, EndByte: len(source)}},
	}

	spans := ChunkTree(root, []byte(source), 10000, DefaultCoalesce)

	require.Len(t, spans, 1)
	assert.Equal(t, Span{Start: 0, End: 1000}, spans[0])
}

func TestChunkTreeEmpty(t *testing.T) {
	assert.Empty(t, ChunkTree(parser.Node{}, nil, DefaultMaxChars, DefaultCoalesce))

	root := parseSource(t, parser.LanguagePython, "")
	assert.Empty(t, ChunkTree(root, nil, DefaultMaxChars, DefaultCoalesce))
}

func TestChunkTreeKeepsClosingBracketWithBlock(t *testing.T) {
	source := "aaaa\nbbbb\n}\ncccc\n"
	root := leaves(t, source, "aaaa", "bbbb", "}", "cccc")

	spans := ChunkTree(root, []byte(source), 4, 1)

	assert.Equal(t, []Span{
		{Start: 0, End: 1},
		{Start: 1, End: 3},
		{Start: 3, End: 4},
	}, spans)
}

func TestCoalesceChunksMergesClosersIntoPrevious(t *testing.T) {
	source := []byte("if x {\n  run()\n}\n)\nnext()\n")
	chunks := []Span{
		{Start: 0, End: 15},  // "if x {\n  run()\n"
		{Start: 15, End: 17}, // "}\n"
		{Start: 17, End: 19}, // ")\n"
		{Start: 19, End: 26}, // "next()\n"
	}

	out := coalesceChunks(chunks, source, 3)

	require.Len(t, out, 2)
	assert.Equal(t, Span{Start: 0, End: 19}, out[0])
	assert.Equal(t, Span{Start: 19, End: 26}, out[1])
}

func TestCoalesceChunksRequiresLineBreak(t *testing.T) {
	source := []byte("aaaaaaaaaa bbbbbbbbbb\ncc")
	chunks := []Span{
		{Start: 0, End: 10},
		{Start: 10, End: 22},
		{Start: 22, End: 24},
	}

	out := coalesceChunks(chunks, source, 5)

	// The first piece is large enough but has no newline, so it grows until
	// it does.
	assert.Equal(t, []Span{{Start: 0, End: 22}, {Start: 22, End: 24}}, out)
}

func TestChunkTreeFoldsSmallTail(t *testing.T) {
	source := "alpha()\nbeta()\ngamma()\n"
	root := leaves(t, source, "alpha()", "beta()", "gamma()")

	// Every statement becomes its own chunk; the one-line tail is folded
	// into its predecessor because it is shorter than coalesce lines.
	spans := ChunkTree(root, []byte(source), 7, 2)

	require.Len(t, spans, 2)
	assert.Equal(t, Span{Start: 0, End: 1}, spans[0])
	assert.Equal(t, Span{Start: 1, End: 3}, spans[1])
	assert.GreaterOrEqual(t, spans[len(spans)-1].Len(), 2)
}

func TestChunkTreeCoverage(t *testing.T) {
	pySource := func() string {
		var b strings.Builder
		for i := 0; i < 40; i++ {
			b.WriteString("def handler_" + strings.Repeat("x", i%7) + "(request):\n")
			b.WriteString("    payload = request.json()\n")
			b.WriteString("    if payload:\n")
			b.WriteString("        return {\"ok\": True, \"items\": [1, 2, 3]}\n")
			b.WriteString("    return None\n\n")
		}
		return b.String()
	}()

	goSource := func() string {
		var b strings.Builder
		b.WriteString("package demo\n\nimport \"fmt\"\n\n")
		for i := 0; i < 30; i++ {
			b.WriteString("func worker() error {\n")
			b.WriteString("\tfor i := 0; i < 10; i++ {\n")
			b.WriteString("\t\tfmt.Println(i)\n")
			b.WriteString("\t}\n")
			b.WriteString("\treturn nil\n")
			b.WriteString("}\n\n")
		}
		return b.String()
	}()

	jsSource := "const a = [\n  1,\n  2,\n];\n\nfunction f() {\n  return a.map((x) => {\n    return x * 2;\n  });\n}\nexport default f"

	tests := []struct {
		name   string
		lang   parser.Language
		source string
	}{
		{"python", parser.LanguagePython, pySource},
		{"go", parser.LanguageGo, goSource},
		{"javascript without trailing newline", parser.LanguageJavaScript, jsSource},
	}

	for _, tt := range tests {
		for _, maxChars := range []int{40, 200, 1500, 100000} {
			for _, coalesce := range []int{0, 10, 100} {
				root := parseSource(t, tt.lang, tt.source)
				spans := ChunkTree(root, []byte(tt.source), maxChars, coalesce)

				t.Run(tt.name, func(t *testing.T) {
					assertCoverage(t, spans, tt.source)
					if len(spans) > 1 {
						assert.GreaterOrEqual(t, spans[len(spans)-1].Len(), coalesce)
					}
				})
			}
		}
	}
}

func TestChunkTreeSplitsLargePythonFile(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("def fn():\n    value = 1\n    return value\n\n")
	}
	source := b.String()

	root := parseSource(t, parser.LanguagePython, source)
	spans := ChunkTree(root, []byte(source), DefaultMaxChars, DefaultCoalesce)

	assert.Greater(t, len(spans), 1)
	assertCoverage(t, spans, source)
}
