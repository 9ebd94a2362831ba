package parser

import (
	"fmt"

	"probashi/token"
)

// SyntaxError carries a message plus the offending token's position, so
// a driver can print "line:column - message" diagnostics.
type SyntaxError struct {
	Line    int
	Column  int
	Message string
	Found   token.Token
}

func newSyntaxError(tok token.Token, message string) SyntaxError {
	return SyntaxError{Line: tok.Line, Column: tok.Column, Message: message, Found: tok}
}

func (e SyntaxError) Error() string {
	return fmt.Sprintf("💥 Syntax error:\nline:%d, column:%d - %s", e.Line, e.Column, e.Message)
}

func expectedError(expected string, tok token.Token) SyntaxError {
	return newSyntaxError(tok, fmt.Sprintf("Expected %s but got %s", expected, tok.Literal))
}
