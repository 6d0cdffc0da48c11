package analysis

import (
	"strings"

	"github.com/jward/sqlsift/internal/syntax"
)

// Scanner walks a file once and produces its FileScan. A Scanner holds no
// per-file state and is safe for concurrent use if its Policy is.
type Scanner struct {
	policy Policy
}

// NewScanner returns a Scanner using policy, or the default policy if nil.
func NewScanner(policy Policy) *Scanner {
	if policy == nil {
		policy = NewDefaultPolicy()
	}
	return &Scanner{policy: policy}
}

// CanonicalName derives the name a call site is counted under: for a member
// access callee it is "<receiver>.<name>" using the verbatim text of both
// parts, otherwise the verbatim callee text.
func CanonicalName(call *syntax.Invocation) string {
	if ma, ok := call.Callee.(*syntax.MemberAccess); ok {
		return text(ma.Receiver) + "." + text(ma.Name)
	}
	return text(call.Callee)
}

func text(n syntax.Node) string {
	if n == nil {
		return ""
	}
	return n.Text()
}

// Scan walks f in pre-order. Findings are returned grouped by rule (call
// arguments, then field assignments, then constructors), each group in
// document order.
func (s *Scanner) Scan(f *syntax.File) *FileScan {
	out := &FileScan{
		Name:         f.Name,
		Path:         f.Path,
		Dependencies: make(DependencySet),
	}
	var argFindings, fieldFindings, ctorFindings []Finding

	syntax.Inspect(f.Nodes, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.Import:
			for _, c := range n.Clauses {
				if c.Simple {
					out.Dependencies.Add(c.Name)
				}
			}

		case *syntax.Invocation:
			name := CanonicalName(n)
			line := f.Line(n)
			out.Calls = append(out.Calls, CallSite{
				Name: name,
				File: f.Name,
				Path: f.Path,
				Line: line,
			})
			if s.policy.IsExecutionCall(name) {
				for _, arg := range n.Args {
					if v, ok := resolve(arg); ok {
						argFindings = append(argFindings, Finding{Kind: CallArgument, Type: name, Text: v, Line: line})
					}
				}
			}

		case *syntax.Assignment:
			if s.policy.IsCommandTextTarget(text(n.Left)) {
				if v, ok := resolve(n.Right); ok {
					fieldFindings = append(fieldFindings, Finding{Kind: FieldAssignment, Type: CommandTextType, Text: v, Line: f.Line(n)})
				}
			}

		case *syntax.ObjectCreation:
			if s.policy.IsCommandType(text(n.Type)) {
				if dep := s.policy.ImpliedDependency(); dep != "" {
					out.Dependencies.Add(dep)
				}
				if len(n.Args) > 0 {
					if v, ok := resolve(n.Args[0]); ok {
						ctorFindings = append(ctorFindings, Finding{Kind: ConstructorArgument, Type: ConstructorType, Text: v, Line: f.Line(n)})
					}
				}
			}
		}
		return true
	})

	out.Findings = make([]Finding, 0, len(argFindings)+len(fieldFindings)+len(ctorFindings))
	out.Findings = append(out.Findings, argFindings...)
	out.Findings = append(out.Findings, fieldFindings...)
	out.Findings = append(out.Findings, ctorFindings...)
	return out
}

// resolve evaluates n and drops values that are empty or all whitespace.
func resolve(n syntax.Node) (string, bool) {
	v := ConstantString(n)
	if strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
