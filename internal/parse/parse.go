package parse

import (
	"context"
	"fmt"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/sqlsift/internal/syntax"
)

// Parser converts source files into syntax.File values. It keeps one
// tree-sitter parser per language and is not safe for concurrent use;
// each worker goroutine must own its Parser.
type Parser struct {
	parsers map[string]*sitter.Parser
}

// NewParser returns an empty Parser. Grammar parsers are created on demand.
func NewParser() *Parser {
	return &Parser{parsers: make(map[string]*sitter.Parser)}
}

// Close releases the underlying tree-sitter parsers.
func (p *Parser) Close() {
	for lang, sp := range p.parsers {
		sp.Close()
		delete(p.parsers, lang)
	}
}

// Parse parses src as the language implied by path's extension.
func (p *Parser) Parse(ctx context.Context, path string, src []byte) (*syntax.File, error) {
	lang, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("parse: unsupported file type %q", filepath.Ext(path))
	}
	return p.ParseLanguage(ctx, lang, path, src)
}

// ParseLanguage parses src with the named language's grammar.
func (p *Parser) ParseLanguage(ctx context.Context, lang, path string, src []byte) (*syntax.File, error) {
	fe, ok := frontendFor(lang)
	if !ok {
		return nil, fmt.Errorf("parse: unsupported language %q", lang)
	}

	sp, ok := p.parsers[lang]
	if !ok {
		sp = sitter.NewParser()
		sp.SetLanguage(fe.grammar)
		p.parsers[lang] = sp
	}

	tree, err := sp.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %s: %w", path, err)
	}
	defer tree.Close()

	return &syntax.File{
		Name:     filepath.Base(path),
		Path:     path,
		Language: lang,
		Nodes:    fe.convert(tree.RootNode(), src),
		Lines:    syntax.NewLineMap(src),
	}, nil
}
