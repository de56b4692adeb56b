package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/php"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func grammarFor(lang Language) (*sitter.Language, bool) {
	switch lang {
	case LanguagePython:
		return python.GetLanguage(), true
	case LanguageJavaScript:
		return javascript.GetLanguage(), true
	case LanguageTypeScript:
		return typescript.GetLanguage(), true
	case LanguageTSX:
		return tsx.GetLanguage(), true
	case LanguageGo:
		return golang.GetLanguage(), true
	case LanguageRust:
		return rust.GetLanguage(), true
	case LanguageJava:
		return java.GetLanguage(), true
	case LanguageC:
		return c.GetLanguage(), true
	case LanguageCPP:
		return cpp.GetLanguage(), true
	case LanguageCSharp:
		return csharp.GetLanguage(), true
	case LanguageRuby:
		return ruby.GetLanguage(), true
	case LanguagePHP:
		return php.GetLanguage(), true
	default:
		return nil, false
	}
}
