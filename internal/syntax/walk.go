package syntax

// Children returns the direct children of n in source order.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Invocation:
		out := make([]Node, 0, len(n.Args)+1)
		out = appendNode(out, n.Callee)
		for _, a := range n.Args {
			out = appendNode(out, a)
		}
		return out
	case *MemberAccess:
		return appendNode(appendNode(nil, n.Receiver), n.Name)
	case *Assignment:
		return appendNode(appendNode(nil, n.Left), n.Right)
	case *ObjectCreation:
		out := make([]Node, 0, len(n.Args)+2)
		out = appendNode(out, n.Type)
		for _, a := range n.Args {
			out = appendNode(out, a)
		}
		return appendNode(out, n.Initializer)
	case *Binary:
		return appendNode(appendNode(nil, n.Left), n.Right)
	case *Group:
		return n.Children
	default:
		// Import, Literal and Ident are leaves.
		return nil
	}
}

func appendNode(out []Node, n Node) []Node {
	if n == nil {
		return out
	}
	return append(out, n)
}

// Inspect walks nodes in pre-order, document order. If fn returns false the
// children of that node are skipped.
func Inspect(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		inspect(n, fn)
	}
}

func inspect(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		inspect(c, fn)
	}
}
