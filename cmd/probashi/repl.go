package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"probashi/ast"
	"probashi/compiler"
	"probashi/lexer"
	"probashi/object"
	"probashi/parser"
	"probashi/token"
	"probashi/vm"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"
)

type replCmd struct{}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "Start an interactive Probashi session" }
func (*replCmd) Usage() string    { return "repl: start an interactive session.\n" }
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Println("Probashi — a Bengali-flavored scripting language")
	fmt.Println(`type "exit" to quit`)

	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Println("💥 failed to start line editor:", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	symbolTable := compiler.NewSymbolTable()
	constants := []object.Object{}
	globals := make([]object.Object, vm.GlobalsSize)

	var buffer strings.Builder

	for {
		if buffer.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return subcommands.ExitSuccess
		}
		if strings.TrimSpace(line) == "exit" && buffer.Len() == 0 {
			return subcommands.ExitSuccess
		}

		if buffer.Len() > 0 {
			buffer.WriteString("\n")
		}
		buffer.WriteString(line)
		source := buffer.String()

		tokens := scanAll(source)
		if !isInputReady(tokens) {
			continue
		}

		p := parser.New(lexer.New(source))
		program, errs := p.ParseProgram()
		if len(errs) > 0 {
			if allParseErrorsAtEOF(errs, tokens[len(tokens)-1]) {
				continue
			}
			fmt.Println("💥 parse errors:")
			for _, e := range errs {
				fmt.Println("\t", e)
			}
			buffer.Reset()
			continue
		}

		comp := compiler.NewWithState(symbolTable, constants)
		bytecode, err := compileLine(comp, program)
		if err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}
		constants = bytecode.Constants

		machine := vm.NewWithGlobalsStore(bytecode, globals)
		if err := runLine(machine); err != nil {
			fmt.Println(err)
			buffer.Reset()
			continue
		}

		fmt.Println(machine.LastPoppedStackElem().Inspect())
		buffer.Reset()
	}
}

// compileLine recovers from a panic inside the compiler, the same
// safety net the teacher's own compiler wraps around its parse/compile
// entry points, so one bad REPL line can't take the whole session down.
func compileLine(comp *compiler.Compiler, program *ast.Program) (bc *compiler.Bytecode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = compiler.DeveloperError{Message: fmt.Sprintf("%v", r)}
		}
	}()
	return comp.Compile(program)
}

// runLine recovers from a panic inside the VM for the same reason
// compileLine does on the compiler side.
func runLine(machine *vm.VM) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = vm.RuntimeError{Message: fmt.Sprintf("%v", r)}
		}
	}()
	return machine.Run()
}

func scanAll(source string) []token.Token {
	l := lexer.New(source)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

// isInputReady reports whether buffered input looks syntactically
// complete enough to attempt a parse: braces must balance (hash
// literals), and the last real token must not be one that obviously
// demands a continuation.
func isInputReady(tokens []token.Token) bool {
	braceBalance := 0
	for _, tok := range tokens {
		switch tok.Type {
		case token.LBRACE:
			braceBalance++
		case token.RBRACE:
			braceBalance--
		}
	}
	if braceBalance > 0 {
		return false
	}

	last := lastNonEOF(tokens)
	if last == nil {
		return true
	}

	switch last.Type {
	case token.ASSIGN, token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.BANG, token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.COMMA, token.LPAREN, token.LBRACE,
		token.IF, token.THEN, token.ELSE, token.WHILE, token.ONE, token.FUNCTION,
		token.LET, token.AND, token.OR, token.RETURN, token.SHOW:
		return false
	}
	return true
}

func lastNonEOF(tokens []token.Token) *token.Token {
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].Type != token.EOF {
			return &tokens[i]
		}
	}
	return nil
}

// allParseErrorsAtEOF reports whether every parse error points at the
// final EOF token — meaning the buffered source is merely incomplete,
// not actually malformed.
func allParseErrorsAtEOF(errs []error, eof token.Token) bool {
	for _, e := range errs {
		se, ok := e.(parser.SyntaxError)
		if !ok {
			return false
		}
		if se.Line != eof.Line || se.Column != eof.Column {
			return false
		}
	}
	return len(errs) > 0
}
