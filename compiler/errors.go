package compiler

import "fmt"

// SemanticError reports a source-level fault the compiler can attribute
// to the program being compiled (unresolved identifier, a parse error
// node reaching the compiler).
type SemanticError struct {
	Message string
}

func (e SemanticError) Error() string {
	return fmt.Sprintf("💥 SemanticError: %s", e.Message)
}

// DeveloperError reports an invariant the compiler itself broke (an
// unhandled node type, an unknown operator) — never the fault of the
// program being compiled.
type DeveloperError struct {
	Message string
}

func (e DeveloperError) Error() string {
	return fmt.Sprintf("🤖 DeveloperError: %s", e.Message)
}
