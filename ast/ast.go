// Package ast defines the node types produced by the parser and consumed
// by the compiler. Nodes are plain structs; the compiler dispatches on
// concrete type via a type switch rather than a visitor interface (see
// the project's design notes for why).
package ast

import (
	"strings"

	"probashi/token"
)

// Node is implemented by every statement and expression node; it exists
// only to give String() a common entry point for diagnostics and tests.
type Node interface {
	TokenLiteral() string
	String() string
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Program is the root node: a flat list of top-level statements.
type Program struct {
	Statements []Stmt
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var b strings.Builder
	for _, s := range p.Statements {
		b.WriteString(s.String())
	}
	return b.String()
}

// ---- Statements ----

type LetStmt struct {
	Token token.Token // the LET token
	Name  *Ident
	Value Expr
}

func (s *LetStmt) stmtNode()            {}
func (s *LetStmt) TokenLiteral() string { return s.Token.Literal }
func (s *LetStmt) String() string {
	var b strings.Builder
	b.WriteString(s.TokenLiteral() + " " + s.Name.String() + " = ")
	if s.Value != nil {
		b.WriteString(s.Value.String())
	}
	b.WriteString(";")
	return b.String()
}

type ReturnStmt struct {
	Token       token.Token
	ReturnValue Expr
}

func (s *ReturnStmt) stmtNode()            {}
func (s *ReturnStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ReturnStmt) String() string {
	var b strings.Builder
	b.WriteString(s.TokenLiteral() + " ")
	if s.ReturnValue != nil {
		b.WriteString(s.ReturnValue.String())
	}
	b.WriteString(";")
	return b.String()
}

// ShowStmt prints a list of expressions space-joined, the language's
// sole sanctioned side effect.
type ShowStmt struct {
	Token token.Token
	Args  []Expr
}

func (s *ShowStmt) stmtNode()            {}
func (s *ShowStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ShowStmt) String() string {
	parts := make([]string, len(s.Args))
	for i, a := range s.Args {
		parts[i] = a.String()
	}
	return s.TokenLiteral() + " " + strings.Join(parts, ", ") + ";"
}

// BlockStmt is a sequence of statements delimited, at parse time, by a
// terminator keyword (else/end/EOF) rather than braces.
type BlockStmt struct {
	Token      token.Token // the first token of the block
	Statements []Stmt
}

func (s *BlockStmt) stmtNode()            {}
func (s *BlockStmt) TokenLiteral() string { return s.Token.Literal }
func (s *BlockStmt) String() string {
	var b strings.Builder
	for _, stmt := range s.Statements {
		b.WriteString(stmt.String())
	}
	return b.String()
}

type ExprStmt struct {
	Token      token.Token // the first token of the expression
	Expression Expr
}

func (s *ExprStmt) stmtNode()            {}
func (s *ExprStmt) TokenLiteral() string { return s.Token.Literal }
func (s *ExprStmt) String() string {
	if s.Expression != nil {
		return s.Expression.String()
	}
	return ""
}

// ---- Expressions ----

// NumberLit carries its digit-transliterated ASCII literal in Token and
// the parsed value in IntVal or FltVal; IsFloat mirrors the Number
// tagged union.
type NumberLit struct {
	Token   token.Token
	IsFloat bool
	IntVal  int64
	FltVal  float64
}

func (n *NumberLit) exprNode()            {}
func (n *NumberLit) TokenLiteral() string { return n.Token.Literal }
func (n *NumberLit) String() string       { return n.Token.Literal }

type StringLit struct {
	Token token.Token
	Value string
}

func (s *StringLit) exprNode()            {}
func (s *StringLit) TokenLiteral() string { return s.Token.Literal }
func (s *StringLit) String() string       { return s.Token.Literal }

type BoolLit struct {
	Token token.Token
	Value bool
}

func (b *BoolLit) exprNode()            {}
func (b *BoolLit) TokenLiteral() string { return b.Token.Literal }
func (b *BoolLit) String() string       { return b.Token.Literal }

type NullLit struct {
	Token token.Token
}

func (n *NullLit) exprNode()            {}
func (n *NullLit) TokenLiteral() string { return n.Token.Literal }
func (n *NullLit) String() string       { return "null" }

type Ident struct {
	Token token.Token
	Value string
}

func (i *Ident) exprNode()            {}
func (i *Ident) TokenLiteral() string { return i.Token.Literal }
func (i *Ident) String() string       { return i.Value }

// BreakExpr is the sole occurrence of the break keyword; it is an
// expression so it can appear as the final statement of a block.
type BreakExpr struct {
	Token token.Token
}

func (b *BreakExpr) exprNode()            {}
func (b *BreakExpr) TokenLiteral() string { return b.Token.Literal }
func (b *BreakExpr) String() string       { return b.Token.Literal }

type PrefixExpr struct {
	Token    token.Token // the prefix operator, e.g. !
	Operator string
	Right    Expr
}

func (p *PrefixExpr) exprNode()            {}
func (p *PrefixExpr) TokenLiteral() string { return p.Token.Literal }
func (p *PrefixExpr) String() string {
	return "(" + p.Operator + p.Right.String() + ")"
}

type InfixExpr struct {
	Token    token.Token // the operator token
	Left     Expr
	Operator string
	Right    Expr
}

func (i *InfixExpr) exprNode()            {}
func (i *InfixExpr) TokenLiteral() string { return i.Token.Literal }
func (i *InfixExpr) String() string {
	return "(" + i.Left.String() + " " + i.Operator + " " + i.Right.String() + ")"
}

type ArrayLit struct {
	Token    token.Token // '['
	Elements []Expr
}

func (a *ArrayLit) exprNode()            {}
func (a *ArrayLit) TokenLiteral() string { return a.Token.Literal }
func (a *ArrayLit) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type IndexExpr struct {
	Token token.Token // '['
	Left  Expr
	Index Expr
}

func (ix *IndexExpr) exprNode()            {}
func (ix *IndexExpr) TokenLiteral() string { return ix.Token.Literal }
func (ix *IndexExpr) String() string {
	return "(" + ix.Left.String() + "[" + ix.Index.String() + "])"
}

// HashLit preserves source order in Keys/Values; the compiler is
// responsible for sorting by textual key at emission time.
type HashLit struct {
	Token token.Token // '{'
	Keys  []Expr
	Vals  []Expr
}

func (h *HashLit) exprNode()            {}
func (h *HashLit) TokenLiteral() string { return h.Token.Literal }
func (h *HashLit) String() string {
	parts := make([]string, len(h.Keys))
	for i := range h.Keys {
		parts[i] = h.Keys[i].String() + ": " + h.Vals[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// IfExpr is an expression: its value is the last expression of
// whichever branch ran, or Null if the (optional) else branch is absent.
type IfExpr struct {
	Token     token.Token // 'if'
	Condition Expr
	Then      *BlockStmt
	Else      *BlockStmt // nil if absent
}

func (ie *IfExpr) exprNode()            {}
func (ie *IfExpr) TokenLiteral() string { return ie.Token.Literal }
func (ie *IfExpr) String() string {
	var b strings.Builder
	b.WriteString("if ")
	b.WriteString(ie.Condition.String())
	b.WriteString(" then ")
	b.WriteString(ie.Then.String())
	if ie.Else != nil {
		b.WriteString(" else ")
		b.WriteString(ie.Else.String())
	}
	return b.String()
}

type WhileExpr struct {
	Token     token.Token // 'while'
	Condition Expr
	Body      *BlockStmt
}

func (w *WhileExpr) exprNode()            {}
func (w *WhileExpr) TokenLiteral() string { return w.Token.Literal }
func (w *WhileExpr) String() string {
	return "while " + w.Condition.String() + " " + w.Body.String()
}

// FuncLit is always produced by the parser with an empty Name; the
// compiler assigns Name when it is the RHS of a Let, to support
// self-reference inside the body.
type FuncLit struct {
	Token  token.Token // 'fn'/'kaj'/'কাজ'
	Name   string
	Params []*Ident
	Body   *BlockStmt
}

func (f *FuncLit) exprNode()            {}
func (f *FuncLit) TokenLiteral() string { return f.Token.Literal }
func (f *FuncLit) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return f.TokenLiteral() + " " + name + "(" + strings.Join(parts, ", ") + ") " + f.Body.String() + " end"
}

type CallExpr struct {
	Token    token.Token // '('
	Function Expr
	Args     []Expr
}

func (c *CallExpr) exprNode()            {}
func (c *CallExpr) TokenLiteral() string { return c.Token.Literal }
func (c *CallExpr) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Function.String() + "(" + strings.Join(parts, ", ") + ")"
}

// ErrExpr wraps a parse failure as an expression node. The parser does
// not construct it (it returns its errors directly); the compiler
// rejects one with a SemanticError.
type ErrExpr struct {
	Token token.Token
	Err   error
}

func (e *ErrExpr) exprNode()            {}
func (e *ErrExpr) TokenLiteral() string { return e.Token.Literal }
func (e *ErrExpr) String() string       { return "<error: " + e.Err.Error() + ">" }
