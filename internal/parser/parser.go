// Package parser provides tree-sitter based parsing of source files into
// read-only syntax trees.
package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a language with a registered grammar.
type Language string

const (
	LanguagePython     Language = "python"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
	LanguageTSX        Language = "tsx"
	LanguageGo         Language = "go"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguageC          Language = "c"
	LanguageCPP        Language = "cpp"
	LanguageCSharp     Language = "csharp"
	LanguageRuby       Language = "ruby"
	LanguagePHP        Language = "php"
)

// ErrEmptyTree is returned when tree-sitter produces no tree for the input.
var ErrEmptyTree = errors.New("parser returned no tree")

// Node is a read-only syntax tree node: a byte range plus ordered children.
type Node struct {
	Type      string `json:"type"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	Children  []Node `json:"children,omitempty"`
}

// Len returns the byte length of the node.
func (n Node) Len() int {
	return n.EndByte - n.StartByte
}

// Parser wraps tree-sitter for a specific language.
//
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	language Language
	parser   *sitter.Parser
	lang     *sitter.Language
}

// NewParser creates a parser for the given language.
func NewParser(lang Language) (*Parser, error) {
	l, ok := grammarFor(lang)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	p := sitter.NewParser()
	p.SetLanguage(l)

	return &Parser{
		language: lang,
		parser:   p,
		lang:     l,
	}, nil
}

// Language returns the language this parser was built for.
func (p *Parser) Language() Language {
	return p.language
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// Parse parses source and returns the root of a detached copy of the syntax
// tree. The root is widened to cover the whole source so that leading and
// trailing whitespace belongs to the tree.
func (p *Parser) Parse(ctx context.Context, source []byte) (Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return Node{}, fmt.Errorf("parse error: %w", err)
	}
	if tree == nil {
		return Node{}, ErrEmptyTree
	}
	defer tree.Close()

	root := convert(tree.RootNode())
	root.StartByte = 0
	if root.EndByte < len(source) {
		root.EndByte = len(source)
	}
	return root, nil
}

func convert(n *sitter.Node) Node {
	node := Node{
		Type:      n.Type(),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	}

	count := int(n.ChildCount())
	if count == 0 {
		return node
	}

	node.Children = make([]Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		node.Children = append(node.Children, convert(child))
	}
	return node
}

// extensionLanguages maps lowercase file extensions to grammars.
var extensionLanguages = map[string]Language{
	".py":     LanguagePython,
	".js":     LanguageJavaScript,
	".jsx":    LanguageJavaScript,
	".mjs":    LanguageJavaScript,
	".cjs":    LanguageJavaScript,
	".ts":     LanguageTypeScript,
	".tsx":    LanguageTSX,
	".go":     LanguageGo,
	".rs":     LanguageRust,
	".java":   LanguageJava,
	".c":      LanguageC,
	".h":      LanguageC,
	".cpp":    LanguageCPP,
	".cc":     LanguageCPP,
	".cxx":    LanguageCPP,
	".hpp":    LanguageCPP,
	".cs":     LanguageCSharp,
	".csharp": LanguageCSharp,
	".rb":     LanguageRuby,
	".php":    LanguagePHP,
}

// DetectLanguage determines language from file extension. The boolean is
// false when no grammar is registered for the extension; callers decide
// how to handle unrecognized files.
func DetectLanguage(filePath string) (Language, bool) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return "", false
	}
	lang, ok := extensionLanguages[ext]
	return lang, ok
}

// SupportedLanguages lists every language with a registered grammar.
func SupportedLanguages() []Language {
	return []Language{
		LanguagePython,
		LanguageJavaScript,
		LanguageTypeScript,
		LanguageTSX,
		LanguageGo,
		LanguageRust,
		LanguageJava,
		LanguageC,
		LanguageCPP,
		LanguageCSharp,
		LanguageRuby,
		LanguagePHP,
	}
}

// SupportedExtensions lists every extension with a registered grammar,
// sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensionLanguages))
	for ext := range extensionLanguages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
