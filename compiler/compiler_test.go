package compiler

import (
	"bytes"
	"testing"

	"probashi/ast"
	"probashi/lexer"
	"probashi/object"
	"probashi/parser"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(input))
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parser errors for %q: %v", input, errs)
	}
	return program
}

func concat(instrs ...[]byte) []byte {
	var out []byte
	for _, i := range instrs {
		out = append(out, i...)
	}
	return out
}

func TestIntegerArithmeticCompiles(t *testing.T) {
	program := parseProgram(t, "1 + 2")

	c := New()
	bytecode, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	want := concat(
		Make(OpConst, 0),
		Make(OpConst, 1),
		Make(OpAdd),
		Make(OpPop),
	)
	if !bytes.Equal(bytecode.Instructions, want) {
		t.Errorf("instructions =\n%s\nwant\n%s", bytecode.Instructions, Instructions(want))
	}
	if len(bytecode.Constants) != 2 {
		t.Fatalf("expected 2 constants, got %d", len(bytecode.Constants))
	}
}

func TestCompilerIsDeterministic(t *testing.T) {
	source := `dhori a = 1; dhori b = ekti kaj(x) ferao x + a sesh; b(2)`

	first, err := New().Compile(parseProgram(t, source))
	if err != nil {
		t.Fatalf("first compile error: %v", err)
	}
	second, err := New().Compile(parseProgram(t, source))
	if err != nil {
		t.Fatalf("second compile error: %v", err)
	}

	if !bytes.Equal(first.Instructions, second.Instructions) {
		t.Errorf("two compiles of the same source produced different bytecode")
	}
}

func TestHashLiteralKeysAreSorted(t *testing.T) {
	program := parseProgram(t, `{"b": 1, "a": 2}`)

	c := New()
	bytecode, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	// "a" sorts before "b": its key/value constants must be added first.
	wantOrder := []string{"a", "2", "b", "1"}
	if len(bytecode.Constants) != 4 {
		t.Fatalf("expected 4 constants, got %d", len(bytecode.Constants))
	}
	for i, want := range wantOrder {
		if bytecode.Constants[i].Inspect() != want {
			t.Errorf("constant %d = %s, want %s", i, bytecode.Constants[i].Inspect(), want)
		}
	}
}

func TestLetStatementGlobalScope(t *testing.T) {
	program := parseProgram(t, "dhori num = 55")

	c := New()
	bytecode, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	want := concat(
		Make(OpConst, 0),
		Make(OpSetGlobal, 0),
	)
	if !bytes.Equal(bytecode.Instructions, want) {
		t.Errorf("instructions =\n%s\nwant\n%s", bytecode.Instructions, Instructions(want))
	}
}

func TestIfExpressionStripsTrailingPopInsideBranches(t *testing.T) {
	program := parseProgram(t, `jodi (sotti) tahole 10 sesh; 3333`)

	c := New()
	bytecode, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	want := concat(
		Make(OpTrue),             // 0000
		Make(OpJumpNotTruthy, 10), // 0001
		Make(OpConst, 0),          // 0004
		Make(OpJump, 11),          // 0007
		Make(OpNull),              // 0010
		Make(OpPop),               // 0011 - the statement-level pop, exactly one
		Make(OpConst, 1),          // 0012
		Make(OpPop),               // 0015
	)
	if !bytes.Equal(bytecode.Instructions, want) {
		t.Errorf("instructions =\n%s\nwant\n%s", bytecode.Instructions, Instructions(want))
	}
}

func TestUndefinedVariableIsSemanticError(t *testing.T) {
	program := parseProgram(t, "foo")

	_, err := New().Compile(program)
	if err == nil {
		t.Fatal("expected an error for undefined variable")
	}
	if _, ok := err.(SemanticError); !ok {
		t.Fatalf("expected SemanticError, got %T: %v", err, err)
	}
}

func TestFunctionLiteralCompilesImplicitReturn(t *testing.T) {
	program := parseProgram(t, `ekti kaj() 5 + 10 sesh`)

	c := New()
	bytecode, err := c.Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	lastConst := bytecode.Constants[len(bytecode.Constants)-1]
	fn, ok := lastConst.(*object.CompiledFunction)
	if !ok {
		t.Fatalf("expected last constant to be a CompiledFunction, got %T", lastConst)
	}

	want := concat(
		Make(OpConst, 0),
		Make(OpConst, 1),
		Make(OpAdd),
		Make(OpReturnValue),
	)
	if !bytes.Equal(fn.Instructions, want) {
		t.Errorf("function instructions =\n%s\nwant\n%s", Instructions(fn.Instructions), Instructions(want))
	}
}

func TestClosureCapturesFreeVariables(t *testing.T) {
	source := `dhori newAdder = ekti kaj(a) ferao ekti kaj(b) ferao a + b sesh sesh; dhori addTwo = newAdder(2); addTwo(3)`
	program := parseProgram(t, source)

	bytecode, err := New().Compile(program)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	// The inner kaj(b) is compiled first, so it is constant 0; it reads
	// the captured a through OpGetFree.
	inner, ok := bytecode.Constants[0].(*object.CompiledFunction)
	if !ok {
		t.Fatalf("expected constant 0 to be the inner CompiledFunction, got %T", bytecode.Constants[0])
	}
	want := concat(
		Make(OpGetFree, 0),
		Make(OpGetLocal, 0),
		Make(OpAdd),
		Make(OpReturnValue),
	)
	if !bytes.Equal(inner.Instructions, want) {
		t.Errorf("inner function instructions =\n%s\nwant\n%s", Instructions(inner.Instructions), Instructions(want))
	}
}
