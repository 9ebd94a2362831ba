// Package parser builds an AST from a token stream using a Pratt-style
// precedence-climbing parser.
package parser

import (
	"fmt"

	"probashi/ast"
	"probashi/lexer"
	"probashi/token"
)

// Precedence levels, ascending.
const (
	_ int = iota
	LOWEST
	EQUALITY // == !=
	LOGIC    // and or
	ORDERING // < <= > >=
	SUM      // + -
	PRODUCT  // * / %
	PREFIX   // ! - (unary)
	CALL     // (
	INDEX    // [
)

var precedences = map[token.Type]int{
	token.EQ:       EQUALITY,
	token.NOT_EQ:   EQUALITY,
	token.AND:      LOGIC,
	token.OR:       LOGIC,
	token.LT:       ORDERING,
	token.LTE:      ORDERING,
	token.GT:       ORDERING,
	token.GTE:      ORDERING,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   CALL,
	token.LBRACKET: INDEX,
}

type (
	prefixParseFn func() (ast.Expr, error)
	infixParseFn  func(ast.Expr) (ast.Expr, error)
)

// Parser consumes a fully-tokenized input (teacher idiom: tokenize once,
// then walk a position index) and produces an *ast.Program.
type Parser struct {
	tokens   []token.Token
	position int
	errors   []error

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

// New tokenizes the entire source up front and prepares a Parser over it.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{}

	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	p.tokens = toks

	p.prefixParseFns = make(map[token.Type]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.NUMBER, p.parseNumberLit)
	p.registerPrefix(token.STRING, p.parseStringLit)
	p.registerPrefix(token.TRUE, p.parseBoolLit)
	p.registerPrefix(token.FALSE, p.parseBoolLit)
	p.registerPrefix(token.NULL, p.parseNullLit)
	p.registerPrefix(token.BREAK, p.parseBreakExpr)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.LBRACKET, p.parseArrayLit)
	p.registerPrefix(token.LBRACE, p.parseHashLit)
	p.registerPrefix(token.IF, p.parseIfExpr)
	p.registerPrefix(token.WHILE, p.parseWhileExpr)
	p.registerPrefix(token.ONE, p.parseFuncLit)

	p.infixParseFns = make(map[token.Type]infixParseFn)
	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR,
	} {
		p.registerInfix(t, p.parseInfixExpr)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpr)
	p.registerInfix(token.LBRACKET, p.parseIndexExpr)

	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) curToken() token.Token  { return p.tokens[p.position] }
func (p *Parser) peekToken() token.Token {
	if p.position+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.position+1]
}

func (p *Parser) advance() token.Token {
	tok := p.curToken()
	if tok.Type != token.EOF {
		p.position++
	}
	return tok
}

func (p *Parser) checkType(t token.Type) bool { return p.curToken().Type == t }

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken().Type]; ok {
		return prec
	}
	return LOWEST
}

// expect consumes the current token if it matches t, else records a
// SyntaxError describing what was expected.
func (p *Parser) expect(t token.Type, label string) (token.Token, error) {
	if p.checkType(t) {
		return p.advance(), nil
	}
	return token.Token{}, expectedError(label, p.curToken())
}

func (p *Parser) consumeOptional(t token.Type) {
	if p.checkType(t) {
		p.advance()
	}
}

func isBlockTerminator(t token.Type) bool {
	return t == token.ELSE || t == token.END || t == token.EOF
}

// ParseProgram parses the whole token stream into a Program. Parsing
// stops at the first hard failure; accumulated errors (including any
// ILLEGAL tokens lexed along the way) are returned alongside whatever
// statements parsed successfully.
func (p *Parser) ParseProgram() (*ast.Program, []error) {
	program := &ast.Program{}

	for !p.checkType(token.EOF) {
		if p.checkType(token.ILLEGAL) {
			p.errors = append(p.errors, newSyntaxError(p.curToken(), fmt.Sprintf("illegal token %q", p.curToken().Literal)))
			p.advance()
			continue
		}

		stmt, err := p.parseStatement()
		if err != nil {
			p.errors = append(p.errors, err)
			break
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, p.errors
}

func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch p.curToken().Type {
	case token.LET:
		return p.parseLetStmt()
	case token.SHOW:
		return p.parseShowStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	tok := p.advance() // LET

	nameTok, err := p.expect(token.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	name := &ast.Ident{Token: nameTok, Value: nameTok.Literal}

	if _, err := p.expect(token.ASSIGN, "="); err != nil {
		return nil, err
	}

	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.consumeOptional(token.SEMICOLON)

	return &ast.LetStmt{Token: tok, Name: name, Value: value}, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	tok := p.advance() // RETURN

	value, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.consumeOptional(token.SEMICOLON)

	return &ast.ReturnStmt{Token: tok, ReturnValue: value}, nil
}

func (p *Parser) parseShowStmt() (ast.Stmt, error) {
	tok := p.advance() // SHOW

	first, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	args := []ast.Expr{first}

	for p.checkType(token.COMMA) {
		p.advance()
		arg, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.consumeOptional(token.SEMICOLON)

	return &ast.ShowStmt{Token: tok, Args: args}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	tok := p.curToken()
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	p.consumeOptional(token.SEMICOLON)
	return &ast.ExprStmt{Token: tok, Expression: expr}, nil
}

// parseBlockStmt collects statements until the current token is one of
// terminators (checked by isBlockTerminator), without consuming it.
func (p *Parser) parseBlockStmt() (*ast.BlockStmt, error) {
	block := &ast.BlockStmt{Token: p.curToken()}

	for !isBlockTerminator(p.curToken().Type) {
		if p.checkType(token.ILLEGAL) {
			p.errors = append(p.errors, newSyntaxError(p.curToken(), fmt.Sprintf("illegal token %q", p.curToken().Literal)))
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}

	return block, nil
}

func (p *Parser) parseExpression(precedence int) (ast.Expr, error) {
	prefix, ok := p.prefixParseFns[p.curToken().Type]
	if !ok {
		return nil, newSyntaxError(p.curToken(), fmt.Sprintf("expected an expression, got %s", p.curToken().Literal))
	}

	left, err := prefix()
	if err != nil {
		return nil, err
	}

	for !p.checkType(token.SEMICOLON) && precedence < p.curPrecedence() {
		infix, ok := p.infixParseFns[p.curToken().Type]
		if !ok {
			return left, nil
		}
		left, err = infix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

func (p *Parser) parseIdent() (ast.Expr, error) {
	tok := p.advance()
	return &ast.Ident{Token: tok, Value: tok.Literal}, nil
}

func (p *Parser) parseNumberLit() (ast.Expr, error) {
	tok := p.advance()
	isFloat, i, f, err := lexer.ParseNumber(tok.Literal)
	if err != nil {
		return nil, newSyntaxError(tok, fmt.Sprintf("invalid number literal %q", tok.Literal))
	}
	return &ast.NumberLit{Token: tok, IsFloat: isFloat, IntVal: i, FltVal: f}, nil
}

func (p *Parser) parseStringLit() (ast.Expr, error) {
	tok := p.advance()
	return &ast.StringLit{Token: tok, Value: tok.Literal}, nil
}

func (p *Parser) parseBoolLit() (ast.Expr, error) {
	tok := p.advance()
	return &ast.BoolLit{Token: tok, Value: tok.Type == token.TRUE}, nil
}

func (p *Parser) parseNullLit() (ast.Expr, error) {
	tok := p.advance()
	return &ast.NullLit{Token: tok}, nil
}

func (p *Parser) parseBreakExpr() (ast.Expr, error) {
	tok := p.advance()
	return &ast.BreakExpr{Token: tok}, nil
}

func (p *Parser) parsePrefixExpr() (ast.Expr, error) {
	tok := p.advance()
	right, err := p.parseExpression(PREFIX)
	if err != nil {
		return nil, err
	}
	return &ast.PrefixExpr{Token: tok, Operator: tok.Literal, Right: right}, nil
}

func (p *Parser) parseInfixExpr(left ast.Expr) (ast.Expr, error) {
	tok := p.advance()
	precedence := precedences[tok.Type]
	right, err := p.parseExpression(precedence)
	if err != nil {
		return nil, err
	}
	return &ast.InfixExpr{Token: tok, Left: left, Operator: tok.Literal, Right: right}, nil
}

func (p *Parser) parseGroupedExpr() (ast.Expr, error) {
	p.advance() // (
	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN, ")"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseExpressionList(end token.Type) ([]ast.Expr, error) {
	var list []ast.Expr

	if p.checkType(end) {
		p.advance()
		return list, nil
	}

	expr, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	list = append(list, expr)

	for p.checkType(token.COMMA) {
		p.advance()
		expr, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		list = append(list, expr)
	}

	if _, err := p.expect(end, string(end)); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parseArrayLit() (ast.Expr, error) {
	tok := p.advance() // [
	elements, err := p.parseExpressionList(token.RBRACKET)
	if err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Token: tok, Elements: elements}, nil
}

func (p *Parser) parseIndexExpr(left ast.Expr) (ast.Expr, error) {
	tok := p.advance() // [
	index, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACKET, "]"); err != nil {
		return nil, err
	}
	return &ast.IndexExpr{Token: tok, Left: left, Index: index}, nil
}

func (p *Parser) parseHashLit() (ast.Expr, error) {
	tok := p.advance() // {
	hash := &ast.HashLit{Token: tok}

	for !p.checkType(token.RBRACE) {
		key, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLON, ":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression(LOWEST)
		if err != nil {
			return nil, err
		}
		hash.Keys = append(hash.Keys, key)
		hash.Vals = append(hash.Vals, value)

		if p.checkType(token.COMMA) {
			p.advance()
		} else {
			break
		}
	}

	if _, err := p.expect(token.RBRACE, "}"); err != nil {
		return nil, err
	}
	return hash, nil
}

func (p *Parser) parseCallExpr(fn ast.Expr) (ast.Expr, error) {
	tok := p.advance() // (
	args, err := p.parseExpressionList(token.RPAREN)
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Token: tok, Function: fn, Args: args}, nil
}

func (p *Parser) parseIfExpr() (ast.Expr, error) {
	tok := p.advance() // if

	condition, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN, "then"); err != nil {
		return nil, err
	}

	then, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}

	var elseBlock *ast.BlockStmt
	if p.checkType(token.ELSE) {
		p.advance()
		elseBlock, err = p.parseBlockStmt()
		if err != nil {
			return nil, err
		}
	}

	if _, err := p.expect(token.END, "end"); err != nil {
		return nil, err
	}

	return &ast.IfExpr{Token: tok, Condition: condition, Then: then, Else: elseBlock}, nil
}

func (p *Parser) parseWhileExpr() (ast.Expr, error) {
	tok := p.advance() // while

	condition, err := p.parseExpression(LOWEST)
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.END, "end"); err != nil {
		return nil, err
	}

	return &ast.WhileExpr{Token: tok, Condition: condition, Body: body}, nil
}

// parseFuncLit handles "one fn (params) body end" — the ONE token is
// the prefix trigger; Name is always empty here and filled in later by
// the compiler when the literal is the right-hand side of a Let.
func (p *Parser) parseFuncLit() (ast.Expr, error) {
	p.advance() // one/ekti

	tok, err := p.expectOneOf("function keyword", token.FUNCTION)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN, "("); err != nil {
		return nil, err
	}

	var params []*ast.Ident
	if !p.checkType(token.RPAREN) {
		nameTok, err := p.expect(token.IDENT, "identifier")
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Ident{Token: nameTok, Value: nameTok.Literal})

		for p.checkType(token.COMMA) {
			p.advance()
			nameTok, err := p.expect(token.IDENT, "identifier")
			if err != nil {
				return nil, err
			}
			params = append(params, &ast.Ident{Token: nameTok, Value: nameTok.Literal})
		}
	}

	if _, err := p.expect(token.RPAREN, ")"); err != nil {
		return nil, err
	}

	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.END, "end"); err != nil {
		return nil, err
	}

	return &ast.FuncLit{Token: tok, Params: params, Body: body}, nil
}

func (p *Parser) expectOneOf(label string, types ...token.Type) (token.Token, error) {
	cur := p.curToken()
	for _, t := range types {
		if cur.Type == t {
			return p.advance(), nil
		}
	}
	return token.Token{}, expectedError(label, cur)
}
