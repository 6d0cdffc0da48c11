package analysis

import (
	"strings"

	"github.com/jward/sqlsift/internal/syntax"
)

// Test trees sit on a synthetic source of blank lines, so a node placed on
// line L starts at byte offset L-1.

func testFile(nodes ...syntax.Node) *syntax.File {
	return &syntax.File{
		Name:     "Orders.cs",
		Path:     "/src/Orders.cs",
		Language: "csharp",
		Nodes:    nodes,
		Lines:    syntax.NewLineMap([]byte(strings.Repeat("\n", 500))),
	}
}

func onLine(line int, raw string) syntax.Base {
	return syntax.Base{Pos: syntax.Span{Start: line - 1, End: line - 1}, Raw: raw}
}

func str(v string) *syntax.Literal {
	return &syntax.Literal{Base: syntax.Base{Raw: `"` + v + `"`}, Kind: syntax.StringLiteral, Value: v}
}

func num(v string) *syntax.Literal {
	return &syntax.Literal{Base: syntax.Base{Raw: v}, Kind: syntax.OtherLiteral, Value: v}
}

func id(name string) *syntax.Ident {
	return &syntax.Ident{Base: syntax.Base{Raw: name}, Name: name}
}

func concat(l, r syntax.Node) *syntax.Binary {
	return &syntax.Binary{Base: syntax.Base{Raw: l.Text() + " + " + r.Text()}, Operator: "+", Concat: true, Left: l, Right: r}
}

func member(recv, name string) *syntax.MemberAccess {
	return &syntax.MemberAccess{Base: syntax.Base{Raw: recv + "." + name}, Receiver: id(recv), Name: id(name)}
}

func call(line int, callee syntax.Node, args ...syntax.Node) *syntax.Invocation {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.Text()
	}
	return &syntax.Invocation{
		Base:   onLine(line, callee.Text()+"("+strings.Join(parts, ", ")+")"),
		Callee: callee,
		Args:   args,
	}
}

func assign(line int, lhs, rhs syntax.Node) *syntax.Assignment {
	return &syntax.Assignment{Base: onLine(line, lhs.Text()+" = "+rhs.Text()), Left: lhs, Operator: "=", Right: rhs}
}

func newObj(line int, typ string, args ...syntax.Node) *syntax.ObjectCreation {
	return &syntax.ObjectCreation{Base: onLine(line, "new "+typ+"(...)"), Type: id(typ), Args: args}
}

func using(line int, clauses ...syntax.ImportClause) *syntax.Import {
	return &syntax.Import{Base: onLine(line, "using ..."), Clauses: clauses}
}

func block(children ...syntax.Node) *syntax.Group {
	return &syntax.Group{Base: syntax.Base{Raw: "{...}"}, Kind: "block", Children: children}
}
