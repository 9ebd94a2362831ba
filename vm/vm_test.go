package vm

import (
	"testing"

	"probashi/compiler"
	"probashi/lexer"
	"probashi/object"
	"probashi/parser"
)

func runVM(t *testing.T, input string) object.Object {
	t.Helper()

	p := parser.New(lexer.New(input))
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("parser errors for %q: %v", input, errs)
	}

	bytecode, err := compiler.New().Compile(program)
	if err != nil {
		t.Fatalf("compile error for %q: %v", input, err)
	}

	machine := New(bytecode)
	if err := machine.Run(); err != nil {
		t.Fatalf("vm error for %q: %v", input, err)
	}
	return machine.LastPoppedStackElem()
}

func testNumberInt(t *testing.T, obj object.Object, want int64) {
	t.Helper()
	num, ok := obj.(*object.Number)
	if !ok {
		t.Fatalf("expected *object.Number, got %T (%+v)", obj, obj)
	}
	if num.IsFloat {
		t.Fatalf("expected an Int, got a Float: %v", num.F)
	}
	if num.I != want {
		t.Errorf("got %d, want %d", num.I, want)
	}
}

func testNumberFloat(t *testing.T, obj object.Object, want float64) {
	t.Helper()
	num, ok := obj.(*object.Number)
	if !ok {
		t.Fatalf("expected *object.Number, got %T (%+v)", obj, obj)
	}
	if !num.IsFloat {
		t.Fatalf("expected a Float, got an Int: %v", num.I)
	}
	if num.F != want {
		t.Errorf("got %v, want %v", num.F, want)
	}
}

func TestScenario1IntegerAddition(t *testing.T) {
	testNumberInt(t, runVM(t, "1+2"), 3)
}

func TestScenario2OperatorPrecedenceAndSharing(t *testing.T) {
	testNumberInt(t, runVM(t, "50/2 * 2 + 10 - 5"), 55)
}

func TestScenario3FloatPromotion(t *testing.T) {
	testNumberFloat(t, runVM(t, "5.0/2"), 2.5)
}

func TestScenario4StringConcatenation(t *testing.T) {
	result := runVM(t, `"1"+"2"`)
	str, ok := result.(*object.String)
	if !ok || str.Value != "12" {
		t.Fatalf("got %+v, want String(\"12\")", result)
	}
}

func TestScenario5IfWithAbsentElse(t *testing.T) {
	result := runVM(t, `jodi (sotti) tahole "true" sesh`)
	str, ok := result.(*object.String)
	if !ok || str.Value != "true" {
		t.Fatalf("got %+v, want String(\"true\")", result)
	}
}

func TestScenario6RecursiveSelfReferenceViaReassignment(t *testing.T) {
	source := `dhori a = ekti kaj() dhori a = 1 ferao a sesh; a()`
	testNumberInt(t, runVM(t, source), 1)
}

func TestScenario7RecursiveFibonacci(t *testing.T) {
	source := `
		dhori fib = ekti kaj(x)
			jodi (x == 0) tahole 0
			nahole jodi (x == 1) tahole 1
			nahole ferao fib(x - 1) + fib(x - 2)
			sesh
			sesh
		sesh;
		fib(10)
	`
	testNumberInt(t, runVM(t, source), 55)
}

func TestScenario8ClosureCapturesFreeVariables(t *testing.T) {
	source := `
		dhori newAdder = ekti kaj(a, b)
			ferao ekti kaj(c) ferao a + b + c sesh
		sesh;
		dhori addr = newAdder(1, 2);
		addr(8)
	`
	testNumberInt(t, runVM(t, source), 11)
}

func TestNumberTowerPromotion(t *testing.T) {
	testNumberFloat(t, runVM(t, "1 + 2.0"), 3.0)
	testNumberInt(t, runVM(t, "1 + 2"), 3)
}

func TestArrayAndIndex(t *testing.T) {
	testNumberInt(t, runVM(t, "[1, 2, 3][1]"), 2)
}

func TestIndexOutOfRangeIsNull(t *testing.T) {
	result := runVM(t, "[1, 2, 3][10]")
	if _, ok := result.(*object.Null); !ok {
		t.Fatalf("expected Null, got %T", result)
	}
}

func TestHashIndex(t *testing.T) {
	testNumberInt(t, runVM(t, `{"one": 1, "two": 2}["two"]`), 2)
}

func TestHashIntAndFloatKeysDoNotCollide(t *testing.T) {
	result := runVM(t, `{1: "a"}[1.0]`)
	if _, ok := result.(*object.Null); !ok {
		t.Fatalf("expected Null for a Float lookup against an Int key, got %T (%+v)", result, result)
	}
	testStr := runVM(t, `{1: "a"}[1]`)
	str, ok := testStr.(*object.String)
	if !ok || str.Value != "a" {
		t.Fatalf("expected String(\"a\") for the matching Int key, got %+v", testStr)
	}
}

func TestUndefinedVariableErrorMessage(t *testing.T) {
	p := parser.New(lexer.New("foo()"))
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	_, err := compiler.New().Compile(program)
	if err == nil {
		t.Fatal("expected a compile error for an undefined variable")
	}
	if err.Error() != "💥 SemanticError: undefined variable foo" {
		t.Errorf("unexpected error message: %s", err.Error())
	}
}

func TestCallArityMismatch(t *testing.T) {
	source := `dhori f = ekti kaj(a) ferao a sesh; f(1, 2)`
	p := parser.New(lexer.New(source))
	program, errs := p.ParseProgram()
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	bytecode, err := compiler.New().Compile(program)
	if err != nil {
		t.Fatalf("unexpected compile error: %v", err)
	}
	machine := New(bytecode)
	err = machine.Run()
	if err == nil {
		t.Fatal("expected a runtime error for an arity mismatch")
	}
}
