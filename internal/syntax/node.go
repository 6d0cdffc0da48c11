// Package syntax defines the language-neutral tree the analyzer walks.
//
// Frontends in internal/parse convert a concrete syntax tree into this closed
// set of node variants. Every node keeps its byte span and the verbatim
// source text it covers; the analyzer never looks at anything else.
package syntax

// Span is a half-open byte range [Start, End) into the file's source.
type Span struct {
	Start int
	End   int
}

// Node is implemented by every variant in this package.
type Node interface {
	Span() Span
	Text() string
	node()
}

// Base carries the span and verbatim text shared by all nodes.
type Base struct {
	Pos Span
	Raw string
}

func (b *Base) Span() Span   { return b.Pos }
func (b *Base) Text() string { return b.Raw }
func (*Base) node()          {}

// ImportClause is one clause of an import statement. Simple clauses name a
// dotted module without aliasing or wildcards.
type ImportClause struct {
	Simple bool
	Name   string
}

// Import is an import/using statement.
type Import struct {
	Base
	Clauses []ImportClause
}

// Invocation is a call expression.
type Invocation struct {
	Base
	Callee Node
	Args   []Node
}

// MemberAccess is receiver.name.
type MemberAccess struct {
	Base
	Receiver Node
	Name     Node
}

// Assignment is left <op> right, including compound assignments.
type Assignment struct {
	Base
	Left     Node
	Operator string
	Right    Node
}

// ObjectCreation is a constructor call. Args is nil when the source has no
// argument list; Initializer is nil when there is no object initializer.
type ObjectCreation struct {
	Base
	Type        Node
	Args        []Node
	Initializer Node
}

// LiteralKind separates string literals from every other literal token.
type LiteralKind int

const (
	OtherLiteral LiteralKind = iota
	StringLiteral
)

// Literal is a literal token. For string and character literals Value holds
// the decoded text, null literals hold "", and other literals hold the token
// text.
type Literal struct {
	Base
	Kind  LiteralKind
	Value string
}

// Binary is left <op> right. Concat is set by the frontend when Operator is
// the language's string concatenation operator.
type Binary struct {
	Base
	Operator string
	Concat   bool
	Left     Node
	Right    Node
}

// Ident is a bare identifier.
type Ident struct {
	Base
	Name string
}

// Group is any construct the analyzer has no rule for. Kind is the
// frontend's node type name.
type Group struct {
	Base
	Kind     string
	Children []Node
}

// File is one parsed source file.
type File struct {
	Name     string // display name, usually the base name
	Path     string
	Language string
	Nodes    []Node
	Lines    *LineMap
}

// Line returns the 1-based line on which n starts.
func (f *File) Line(n Node) int {
	return f.Lines.Position(n.Span().Start).Line + 1
}
