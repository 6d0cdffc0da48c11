package parse

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/sqlsift/internal/syntax"
)

// csharpConverter maps tree-sitter-c-sharp nodes onto the syntax taxonomy.
type csharpConverter struct {
	src []byte
}

func convertCSharp(root *sitter.Node, src []byte) []syntax.Node {
	c := &csharpConverter{src: src}
	return c.children(root)
}

func (c *csharpConverter) base(n *sitter.Node) syntax.Base {
	return syntax.Base{
		Pos: syntax.Span{Start: int(n.StartByte()), End: int(n.EndByte())},
		Raw: c.text(n),
	}
}

func (c *csharpConverter) text(n *sitter.Node) string {
	return string(c.src[n.StartByte():n.EndByte()])
}

// children converts the named children of n, dropping comments.
func (c *csharpConverter) children(n *sitter.Node) []syntax.Node {
	var out []syntax.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := c.node(n.NamedChild(i)); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func (c *csharpConverter) node(n *sitter.Node) syntax.Node {
	if n == nil {
		return nil
	}
	switch typ := n.Type(); typ {
	case "comment":
		return nil
	case "using_directive":
		return c.using(n)
	case "invocation_expression":
		return &syntax.Invocation{
			Base:   c.base(n),
			Callee: c.node(n.ChildByFieldName("function")),
			Args:   c.arguments(n.ChildByFieldName("arguments")),
		}
	case "member_access_expression":
		return &syntax.MemberAccess{
			Base:     c.base(n),
			Receiver: c.node(n.ChildByFieldName("expression")),
			Name:     c.node(n.ChildByFieldName("name")),
		}
	case "assignment_expression":
		return &syntax.Assignment{
			Base:     c.base(n),
			Left:     c.node(n.ChildByFieldName("left")),
			Operator: c.operator(n),
			Right:    c.node(n.ChildByFieldName("right")),
		}
	case "object_creation_expression":
		oc := &syntax.ObjectCreation{
			Base:        c.base(n),
			Type:        c.node(n.ChildByFieldName("type")),
			Initializer: c.node(n.ChildByFieldName("initializer")),
		}
		if args := n.ChildByFieldName("arguments"); args != nil {
			oc.Args = c.arguments(args)
		}
		return oc
	case "binary_expression":
		op := c.operator(n)
		return &syntax.Binary{
			Base:     c.base(n),
			Operator: op,
			Concat:   op == "+",
			Left:     c.node(n.ChildByFieldName("left")),
			Right:    c.node(n.ChildByFieldName("right")),
		}
	case "string_literal", "verbatim_string_literal", "raw_string_literal":
		raw := c.text(n)
		return &syntax.Literal{Base: c.base(n), Kind: syntax.StringLiteral, Value: csharpStringValue(typ, raw)}
	case "character_literal":
		return &syntax.Literal{Base: c.base(n), Kind: syntax.OtherLiteral, Value: csharpCharValue(c.text(n))}
	case "null_literal":
		return &syntax.Literal{Base: c.base(n), Kind: syntax.OtherLiteral}
	case "identifier":
		return &syntax.Ident{Base: c.base(n), Name: c.text(n)}
	default:
		if strings.HasSuffix(typ, "_literal") {
			return &syntax.Literal{Base: c.base(n), Kind: syntax.OtherLiteral, Value: c.text(n)}
		}
		return &syntax.Group{Base: c.base(n), Kind: typ, Children: c.children(n)}
	}
}

// using converts a using directive. Aliases (using X = Y;) and
// using static are not simple clauses.
func (c *csharpConverter) using(n *sitter.Node) *syntax.Import {
	simple := true
	var name *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "static", "name_equals", "=":
			simple = false
		case "comment":
		default:
			if child.IsNamed() {
				name = child
			}
		}
	}
	clause := syntax.ImportClause{Simple: simple && name != nil}
	if name != nil {
		clause.Name = c.text(name)
	}
	if !simple {
		clause.Name = usingBody(c.text(n))
	}
	return &syntax.Import{Base: c.base(n), Clauses: []syntax.ImportClause{clause}}
}

// usingBody strips the keywords and terminator from a using directive.
func usingBody(s string) string {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	s = strings.TrimSpace(strings.TrimPrefix(s, "global"))
	return strings.TrimSpace(strings.TrimPrefix(s, "using"))
}

// arguments unwraps an argument_list into its argument expressions.
func (c *csharpConverter) arguments(list *sitter.Node) []syntax.Node {
	if list == nil {
		return nil
	}
	args := []syntax.Node{}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		arg := list.NamedChild(i)
		if arg.Type() != "argument" {
			continue
		}
		if expr := c.argumentExpr(arg); expr != nil {
			args = append(args, expr)
		}
	}
	return args
}

// argumentExpr returns the expression of an argument, skipping a leading
// name_colon and ref/out/in modifiers.
func (c *csharpConverter) argumentExpr(arg *sitter.Node) syntax.Node {
	var expr *sitter.Node
	for i := 0; i < int(arg.NamedChildCount()); i++ {
		child := arg.NamedChild(i)
		switch child.Type() {
		case "name_colon", "comment":
			continue
		}
		expr = child
	}
	return c.node(expr)
}

// operator returns the operator token of a binary or assignment expression.
func (c *csharpConverter) operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return c.text(op)
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() == "assignment_operator" || !child.IsNamed() {
			return c.text(child)
		}
	}
	return ""
}
