package analysis

import "github.com/jward/sqlsift/internal/syntax"

// ConstantString resolves n to a compile-time string. Literals yield their
// value, so numbers keep their token text, and concatenations yield both
// sides joined. Every other node yields "". An unresolvable operand
// contributes "" rather than failing the whole expression.
func ConstantString(n syntax.Node) string {
	switch n := n.(type) {
	case *syntax.Literal:
		return n.Value
	case *syntax.Binary:
		if n.Concat {
			return ConstantString(n.Left) + ConstantString(n.Right)
		}
	}
	return ""
}
