// Package parse turns source text into syntax trees using tree-sitter.
package parse

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"

	"github.com/jward/sqlsift/internal/syntax"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".cs": "csharp",
}

// frontend pairs a grammar with the converter from its CST to syntax nodes.
type frontend struct {
	grammar *sitter.Language
	convert func(root *sitter.Node, src []byte) []syntax.Node
}

// frontends is lazily initialized on first use via sync.Once.
var (
	frontends     map[string]frontend
	frontendsOnce sync.Once
)

func initFrontends() {
	frontendsOnce.Do(func() {
		frontends = map[string]frontend{
			"csharp": {grammar: csharp.GetLanguage(), convert: convertCSharp},
		}
	})
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Supported returns the canonical names of all supported languages, sorted.
func Supported() []string {
	initFrontends()
	out := make([]string, 0, len(frontends))
	for name := range frontends {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func frontendFor(lang string) (frontend, bool) {
	initFrontends()
	f, ok := frontends[lang]
	return f, ok
}
