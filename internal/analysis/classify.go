package analysis

import "strings"

// DefaultExecutionMethods are the method-name fragments that mark a call as
// executing a query.
var DefaultExecutionMethods = []string{
	"ExecuteReader", "ExecuteNonQuery", "ExecuteScalar", "Execute", "ExecuteQuery",
}

// Defaults for the assignment and construction heuristics.
var (
	DefaultCommandTextFields = []string{"CommandText"}
	DefaultCommandTypes      = []string{"SqlCommand", "OleDbCommand"}
)

// DefaultImpliedDependency is added to a file that constructs a command type.
const DefaultImpliedDependency = "System.Data.SqlClient"

// Classifier decides whether a canonical call name executes a query.
// Matching is case-sensitive substring containment: false positives such as
// "ExecuteOrder66" are accepted, false negatives are not.
type Classifier struct {
	fragments []string
}

// NewClassifier returns a Classifier over fragments. With no fragments it
// uses DefaultExecutionMethods.
func NewClassifier(fragments ...string) *Classifier {
	if len(fragments) == 0 {
		fragments = DefaultExecutionMethods
	}
	return &Classifier{fragments: append([]string(nil), fragments...)}
}

// IsExecutionCall reports whether name contains any configured fragment.
func (c *Classifier) IsExecutionCall(name string) bool {
	return containsAny(name, c.fragments)
}

// Fragments returns a copy of the configured fragments.
func (c *Classifier) Fragments() []string {
	return append([]string(nil), c.fragments...)
}

// Policy holds the textual heuristics the Scanner applies. Each method sees
// verbatim source text, never resolved symbols.
type Policy interface {
	// IsExecutionCall is applied to canonical call names.
	IsExecutionCall(name string) bool
	// IsCommandTextTarget is applied to the left-hand side of assignments.
	IsCommandTextTarget(lhs string) bool
	// IsCommandType is applied to the type of object constructions.
	IsCommandType(typeName string) bool
	// ImpliedDependency is recorded for files that construct a command type.
	ImpliedDependency() string
}

// DefaultPolicy implements Policy with substring matching.
type DefaultPolicy struct {
	Calls        *Classifier
	TextFields   []string
	CommandTypes []string
	Dependency   string
}

var _ Policy = (*DefaultPolicy)(nil)

// NewDefaultPolicy returns the stock heuristics.
func NewDefaultPolicy() *DefaultPolicy {
	return &DefaultPolicy{
		Calls:        NewClassifier(),
		TextFields:   DefaultCommandTextFields,
		CommandTypes: DefaultCommandTypes,
		Dependency:   DefaultImpliedDependency,
	}
}

// IsExecutionCall reports whether name matches the execution method classifier.
func (p *DefaultPolicy) IsExecutionCall(name string) bool {
	return p.Calls.IsExecutionCall(name)
}

// IsCommandTextTarget reports whether lhs contains a command text field name.
func (p *DefaultPolicy) IsCommandTextTarget(lhs string) bool {
	return containsAny(lhs, p.TextFields)
}

// IsCommandType reports whether typeName contains a command type name.
func (p *DefaultPolicy) IsCommandType(typeName string) bool {
	return containsAny(typeName, p.CommandTypes)
}

// ImpliedDependency returns the namespace recorded for command constructions.
func (p *DefaultPolicy) ImpliedDependency() string {
	return p.Dependency
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
