// Package sqlsift inventories database access in application source code.
// For each file it lists the namespaces the file imports, the methods it
// calls, and the literal SQL text found at recognised execution points:
// arguments of execution calls, assignments to command-text fields and
// arguments of command constructors. Across files it ranks call names by
// frequency.
//
// # Pipeline
//
// Each file goes through four stages:
//
//  1. Parse: tree-sitter builds a concrete syntax tree, which a
//     language frontend converts into the small syntax model in
//     internal/syntax.
//
//  2. Scan: a single pre-order walk records imports, call sites and
//     findings. String constants are folded through concatenation.
//
//  3. Report: calls are grouped and findings annotated with an excerpt,
//     an EXEC flag and the stored procedure name, if any.
//
//  4. Merge: reports are merged in discovery order into the global
//     ranking and, when configured, committed to SQLite.
//
// Stages 1 to 3 run on a worker pool; the merge is serial.
//
// # Usage
//
//	e, err := sqlsift.New(sqlsift.WithDatabase("sqlsift.db"))
//	if err != nil { ... }
//	defer e.Close()
//
//	res, err := e.AnalyzeDirectory(ctx, "path/to/project")
//	for _, f := range res.Files {
//		fmt.Println(f.Name, len(f.Findings))
//	}
//
// # Policy
//
// Which calls, fields and types count as execution points is decided by an
// [Policy]. The default matches name fragments configured in
// .sqlsift.yaml or .sqlsift.toml. A Risor script given with
// [WithPolicyScript] can refine that decision per call.
package sqlsift
