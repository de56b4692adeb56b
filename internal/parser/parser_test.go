package parser

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePythonModule(t *testing.T) {
	code := `
def hello(name: str) -> str:
    """Greet someone by name."""
    return f"Hello, {name}!"


def goodbye():
    return "bye"
`
	p, err := NewParser(LanguagePython)
	require.NoError(t, err)
	defer p.Close()

	root, err := p.Parse(context.Background(), []byte(code))
	require.NoError(t, err)

	assert.Equal(t, "module", root.Type)
	assert.Equal(t, 0, root.StartByte)
	assert.Equal(t, len(code), root.EndByte)

	require.Len(t, root.Children, 2)
	assert.Equal(t, "function_definition", root.Children[0].Type)
	assert.Equal(t, "function_definition", root.Children[1].Type)
	assert.Less(t, root.Children[0].EndByte, root.Children[1].StartByte)
}

func TestParseChildrenAreOrderedAndNested(t *testing.T) {
	code := `
class User {
    constructor(name) {
        this.name = name;
    }
}
`
	p, err := NewParser(LanguageJavaScript)
	require.NoError(t, err)
	defer p.Close()

	root, err := p.Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	require.NotEmpty(t, root.Children)

	var check func(n Node)
	check = func(n Node) {
		prev := n.StartByte
		for _, child := range n.Children {
			assert.GreaterOrEqual(t, child.StartByte, prev)
			assert.LessOrEqual(t, child.EndByte, n.EndByte)
			prev = child.EndByte
			check(child)
		}
	}
	check(root)

	assert.Equal(t, "class_declaration", root.Children[0].Type)
}

func TestParseEveryGrammar(t *testing.T) {
	for _, lang := range SupportedLanguages() {
		t.Run(string(lang), func(t *testing.T) {
			p, err := NewParser(lang)
			require.NoError(t, err)
			defer p.Close()

			assert.Equal(t, lang, p.Language())

			root, err := p.Parse(context.Background(), []byte("x\n"))
			require.NoError(t, err)
			assert.Equal(t, 2, root.EndByte)
		})
	}
}

func TestParseEmptySource(t *testing.T) {
	p, err := NewParser(LanguageGo)
	require.NoError(t, err)
	defer p.Close()

	root, err := p.Parse(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len())
	assert.Empty(t, root.Children)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected Language
		ok       bool
	}{
		{"test.py", LanguagePython, true},
		{"path/to/file.py", LanguagePython, true},
		{"test.js", LanguageJavaScript, true},
		{"test.jsx", LanguageJavaScript, true},
		{"test.mjs", LanguageJavaScript, true},
		{"test.ts", LanguageTypeScript, true},
		{"test.tsx", LanguageTSX, true},
		{"main.go", LanguageGo, true},
		{"lib.rs", LanguageRust, true},
		{"Program.cs", LanguageCSharp, true},
		{"Program.CS", LanguageCSharp, true},
		{"vector.hpp", LanguageCPP, true},
		{"README.md", "", false},
		{"test.txt", "", false},
		{"Makefile", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			lang, ok := DetectLanguage(tc.path)
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.expected, lang)
			}
		})
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	_, err := NewParser("cobol")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()

	assert.True(t, sort.StringsAreSorted(exts))
	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".tsx")
	for _, ext := range exts {
		_, ok := DetectLanguage("file" + ext)
		assert.True(t, ok, ext)
	}
}
