package vm

import "fmt"

// RuntimeError reports a fault raised while executing bytecode — the
// fatal regime named by the language: bad operand types, arity
// mismatches, stack overflow, and similar.
type RuntimeError struct {
	Message string
}

func (e RuntimeError) Error() string {
	return fmt.Sprintf("💥 RuntimeError: %s", e.Message)
}
