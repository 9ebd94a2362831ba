// Package compiler walks a parsed AST and emits a Bytecode value: a flat
// instruction stream plus the constant pool it references.
package compiler

import (
	"fmt"
	"sort"

	"probashi/ast"
	"probashi/object"
)

// Bytecode is the compiler's sole output: a byte-packed instruction
// stream and the constant pool it indexes into.
type Bytecode struct {
	Instructions Instructions
	Constants    []object.Object
}

// EmittedInstruction records an opcode and the byte offset it was
// written at, so the peephole fixups below can find and rewrite it.
type EmittedInstruction struct {
	Opcode   Opcode
	Position int
}

// CompilationScope holds one function body's in-progress instruction
// buffer, plus enough history to support the if/else and implicit-return
// peephole rewrites without the statement handlers touching raw bytes.
type CompilationScope struct {
	instructions        Instructions
	lastInstruction     EmittedInstruction
	previousInstruction EmittedInstruction
}

// Compiler turns an AST into Bytecode, resolving identifiers through a
// SymbolTable and collecting literals/compiled functions into a single
// shared constant pool.
type Compiler struct {
	constants   []object.Object
	symbolTable *SymbolTable

	scopes     []CompilationScope
	scopeIndex int
}

// New creates a Compiler with a fresh global symbol table and an empty
// constant pool.
func New() *Compiler {
	mainScope := CompilationScope{instructions: Instructions{}}
	return &Compiler{
		constants:   []object.Object{},
		symbolTable: NewSymbolTable(),
		scopes:      []CompilationScope{mainScope},
		scopeIndex:  0,
	}
}

// NewWithState creates a Compiler that continues compiling against an
// existing symbol table and constant pool, so a REPL can run one
// statement at a time while later lines see earlier bindings.
func NewWithState(symbolTable *SymbolTable, constants []object.Object) *Compiler {
	c := New()
	c.symbolTable = symbolTable
	c.constants = constants
	return c
}

// Compile walks every top-level statement in program and returns the
// resulting Bytecode, or the first SemanticError/DeveloperError hit.
func (c *Compiler) Compile(program *ast.Program) (*Bytecode, error) {
	for _, stmt := range program.Statements {
		if err := c.compileStatement(stmt); err != nil {
			return nil, err
		}
	}
	return c.Bytecode(), nil
}

// Bytecode returns the compiler's current output without requiring a
// fresh Compile call; Compile returns it once every statement is emitted.
func (c *Compiler) Bytecode() *Bytecode {
	return &Bytecode{
		Instructions: c.currentInstructions(),
		Constants:    c.constants,
	}
}

func (c *Compiler) compileStatement(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		if err := c.compileExpression(s.Expression); err != nil {
			return err
		}
		c.emit(OpPop)

	case *ast.LetStmt:
		return c.compileLetStmt(s)

	case *ast.ReturnStmt:
		if err := c.compileExpression(s.ReturnValue); err != nil {
			return err
		}
		c.emit(OpReturnValue)

	case *ast.ShowStmt:
		for _, a := range s.Args {
			if err := c.compileExpression(a); err != nil {
				return err
			}
		}
		c.emit(OpShow, len(s.Args))

	case *ast.BlockStmt:
		for _, inner := range s.Statements {
			if err := c.compileStatement(inner); err != nil {
				return err
			}
		}

	default:
		return DeveloperError{Message: fmt.Sprintf("unhandled statement type %T", stmt)}
	}
	return nil
}

// compileLetStmt defines the symbol before compiling the right-hand
// side, so a function literal's own name is visible inside its body for
// recursive self-reference.
func (c *Compiler) compileLetStmt(s *ast.LetStmt) error {
	if fn, ok := s.Value.(*ast.FuncLit); ok && fn.Name == "" {
		fn.Name = s.Name.Value
	}

	symbol := c.symbolTable.Define(s.Name.Value)

	if err := c.compileExpression(s.Value); err != nil {
		return err
	}

	if symbol.Scope == GlobalScope {
		c.emit(OpSetGlobal, symbol.Index)
	} else {
		c.emit(OpSetLocal, symbol.Index)
	}
	return nil
}

func (c *Compiler) compileExpression(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.NumberLit:
		var obj object.Object
		if e.IsFloat {
			obj = object.NewFloat(e.FltVal)
		} else {
			obj = object.NewInt(e.IntVal)
		}
		c.emit(OpConst, c.addConstant(obj))

	case *ast.StringLit:
		c.emit(OpConst, c.addConstant(&object.String{Value: e.Value}))

	case *ast.BoolLit:
		if e.Value {
			c.emit(OpTrue)
		} else {
			c.emit(OpFalse)
		}

	case *ast.NullLit:
		c.emit(OpNull)

	case *ast.BreakExpr:
		// No loop-exit opcode is named; Break carries no runtime effect
		// beyond standing in as a value.
		c.emit(OpNull)

	case *ast.Ident:
		sym, ok := c.symbolTable.Resolve(e.Value)
		if !ok {
			return SemanticError{Message: fmt.Sprintf("undefined variable %s", e.Value)}
		}
		c.loadSymbol(sym)

	case *ast.PrefixExpr:
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		switch e.Operator {
		case "!":
			c.emit(OpBang)
		case "-":
			c.emit(OpMinus)
		default:
			return DeveloperError{Message: fmt.Sprintf("unknown prefix operator %s", e.Operator)}
		}

	case *ast.InfixExpr:
		return c.compileInfixExpr(e)

	case *ast.ArrayLit:
		for _, el := range e.Elements {
			if err := c.compileExpression(el); err != nil {
				return err
			}
		}
		c.emit(OpArray, len(e.Elements))

	case *ast.HashLit:
		return c.compileHashLit(e)

	case *ast.IndexExpr:
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Index); err != nil {
			return err
		}
		c.emit(OpIndex)

	case *ast.IfExpr:
		return c.compileIfExpr(e)

	case *ast.WhileExpr:
		return c.compileWhileExpr(e)

	case *ast.FuncLit:
		return c.compileFuncLit(e)

	case *ast.CallExpr:
		if err := c.compileExpression(e.Function); err != nil {
			return err
		}
		for _, a := range e.Args {
			if err := c.compileExpression(a); err != nil {
				return err
			}
		}
		c.emit(OpCall, len(e.Args))

	case *ast.ErrExpr:
		return SemanticError{Message: fmt.Sprintf("parse error reached compiler: %s", e.Err)}

	default:
		return DeveloperError{Message: fmt.Sprintf("unhandled expression type %T", expr)}
	}
	return nil
}

func (c *Compiler) compileInfixExpr(e *ast.InfixExpr) error {
	// No dedicated LT/LTE/GTE opcode: only GreaterThan exists.
	// a<b compiles as b>a (swap operands); a<=b and a>=b compile their
	// GT form and negate with Bang.
	switch e.Operator {
	case "<":
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(OpGreaterThan)
		return nil
	case "<=":
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		c.emit(OpGreaterThan)
		c.emit(OpBang)
		return nil
	case ">=":
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		if err := c.compileExpression(e.Left); err != nil {
			return err
		}
		c.emit(OpGreaterThan)
		c.emit(OpBang)
		return nil
	}

	if e.Operator == "and" || e.Operator == "or" {
		return c.compileLogical(e)
	}

	if err := c.compileExpression(e.Left); err != nil {
		return err
	}
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}

	switch e.Operator {
	case "+":
		c.emit(OpAdd)
	case "-":
		c.emit(OpSub)
	case "*":
		c.emit(OpMul)
	case "/":
		c.emit(OpDiv)
	case "%":
		c.emit(OpMod)
	case "==":
		c.emit(OpEqual)
	case "!=":
		c.emit(OpNotEqual)
	case ">":
		c.emit(OpGreaterThan)
	default:
		return DeveloperError{Message: fmt.Sprintf("unknown infix operator %s", e.Operator)}
	}
	return nil
}

func (c *Compiler) compileLogical(e *ast.InfixExpr) error {
	if err := c.compileExpression(e.Left); err != nil {
		return err
	}

	if e.Operator == "and" {
		jumpFalsePos := c.emit(OpJumpNotTruthy, 0xFFFF)
		if err := c.compileExpression(e.Right); err != nil {
			return err
		}
		jumpEndPos := c.emit(OpJump, 0xFFFF)
		c.changeOperand(jumpFalsePos, len(c.currentInstructions()))
		c.emit(OpFalse)
		c.changeOperand(jumpEndPos, len(c.currentInstructions()))
		return nil
	}

	// "or"
	jumpRightPos := c.emit(OpJumpNotTruthy, 0xFFFF)
	c.emit(OpTrue)
	jumpEndPos := c.emit(OpJump, 0xFFFF)
	c.changeOperand(jumpRightPos, len(c.currentInstructions()))
	if err := c.compileExpression(e.Right); err != nil {
		return err
	}
	c.changeOperand(jumpEndPos, len(c.currentInstructions()))
	return nil
}

// compileHashLit sorts pairs by their textual key form before emitting,
// so the same source hash literal always compiles to the same bytes.
func (c *Compiler) compileHashLit(h *ast.HashLit) error {
	type pair struct {
		key string
		k   ast.Expr
		v   ast.Expr
	}
	pairs := make([]pair, len(h.Keys))
	for i := range h.Keys {
		pairs[i] = pair{key: h.Keys[i].String(), k: h.Keys[i], v: h.Vals[i]}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	for _, p := range pairs {
		if err := c.compileExpression(p.k); err != nil {
			return err
		}
		if err := c.compileExpression(p.v); err != nil {
			return err
		}
	}
	c.emit(OpHash, len(pairs)*2)
	return nil
}

func (c *Compiler) compileIfExpr(ie *ast.IfExpr) error {
	if err := c.compileExpression(ie.Condition); err != nil {
		return err
	}

	jumpNotTruthyPos := c.emit(OpJumpNotTruthy, 0xFFFF)

	if err := c.compileStatement(ie.Then); err != nil {
		return err
	}
	if c.lastInstructionIs(OpPop) {
		c.removeLastPop()
	}

	jumpPos := c.emit(OpJump, 0xFFFF)

	c.changeOperand(jumpNotTruthyPos, len(c.currentInstructions()))

	if ie.Else != nil {
		if err := c.compileStatement(ie.Else); err != nil {
			return err
		}
		if c.lastInstructionIs(OpPop) {
			c.removeLastPop()
		}
	} else {
		c.emit(OpNull)
	}

	c.changeOperand(jumpPos, len(c.currentInstructions()))
	return nil
}

// compileWhileExpr has no opcode support for loop control in the named
// set, so the loop's value is always Null; the body's own ExprStmt
// OpPops keep the stack balanced on every iteration.
func (c *Compiler) compileWhileExpr(w *ast.WhileExpr) error {
	conditionPos := len(c.currentInstructions())

	if err := c.compileExpression(w.Condition); err != nil {
		return err
	}

	exitJumpPos := c.emit(OpJumpNotTruthy, 0xFFFF)

	if err := c.compileStatement(w.Body); err != nil {
		return err
	}

	c.emit(OpJump, conditionPos)
	c.changeOperand(exitJumpPos, len(c.currentInstructions()))
	c.emit(OpNull)
	return nil
}

func (c *Compiler) compileFuncLit(f *ast.FuncLit) error {
	c.enterScope()

	if f.Name != "" {
		c.symbolTable.DefineFunction(f.Name)
	}
	for _, p := range f.Params {
		c.symbolTable.Define(p.Value)
	}

	if err := c.compileStatement(f.Body); err != nil {
		return err
	}

	if c.lastInstructionIs(OpPop) {
		c.replaceLastPopWithReturn()
	}
	if !c.lastInstructionIs(OpReturnValue) {
		c.emit(OpReturn)
	}

	freeSymbols := c.symbolTable.FreeSyms
	numLocals := c.symbolTable.NumDefinitions()
	instructions := c.leaveScope()

	for _, sym := range freeSymbols {
		c.loadSymbol(sym)
	}

	compiledFn := &object.CompiledFunction{
		Instructions: instructions,
		NumLocals:    numLocals,
		NumParams:    len(f.Params),
	}
	fnIndex := c.addConstant(compiledFn)
	c.emit(OpClosure, fnIndex, len(freeSymbols))
	return nil
}

func (c *Compiler) loadSymbol(s Symbol) {
	switch s.Scope {
	case GlobalScope:
		c.emit(OpGetGlobal, s.Index)
	case LocalScope:
		c.emit(OpGetLocal, s.Index)
	case FreeScope:
		c.emit(OpGetFree, s.Index)
	case FuncScope:
		c.emit(OpCurrentClosure)
	}
}

// ---- constant pool & instruction emission ----

func (c *Compiler) addConstant(obj object.Object) int {
	c.constants = append(c.constants, obj)
	return len(c.constants) - 1
}

func (c *Compiler) emit(op Opcode, operands ...int) int {
	ins := Make(op, operands...)
	pos := c.addInstruction(ins)
	c.setLastInstruction(op, pos)
	return pos
}

func (c *Compiler) addInstruction(ins []byte) int {
	pos := len(c.currentInstructions())
	updated := append(c.currentInstructions(), ins...)
	c.scopes[c.scopeIndex].instructions = updated
	return pos
}

func (c *Compiler) setLastInstruction(op Opcode, pos int) {
	scope := c.scopes[c.scopeIndex]
	scope.previousInstruction = scope.lastInstruction
	scope.lastInstruction = EmittedInstruction{Opcode: op, Position: pos}
	c.scopes[c.scopeIndex] = scope
}

func (c *Compiler) currentInstructions() Instructions {
	return c.scopes[c.scopeIndex].instructions
}

func (c *Compiler) lastInstructionIs(op Opcode) bool {
	if len(c.currentInstructions()) == 0 {
		return false
	}
	return c.scopes[c.scopeIndex].lastInstruction.Opcode == op
}

func (c *Compiler) removeLastPop() {
	last := c.scopes[c.scopeIndex].lastInstruction
	prev := c.scopes[c.scopeIndex].previousInstruction

	c.scopes[c.scopeIndex].instructions = c.currentInstructions()[:last.Position]
	c.scopes[c.scopeIndex].lastInstruction = prev
}

func (c *Compiler) replaceInstruction(pos int, newInstruction []byte) {
	ins := c.currentInstructions()
	for i := 0; i < len(newInstruction); i++ {
		ins[pos+i] = newInstruction[i]
	}
}

func (c *Compiler) changeOperand(opPos int, operand int) {
	op := Opcode(c.currentInstructions()[opPos])
	newInstruction := Make(op, operand)
	c.replaceInstruction(opPos, newInstruction)
}

func (c *Compiler) replaceLastPopWithReturn() {
	lastPos := c.scopes[c.scopeIndex].lastInstruction.Position
	newInstruction := Make(OpReturnValue)
	c.replaceInstruction(lastPos, newInstruction)
	c.scopes[c.scopeIndex].lastInstruction.Opcode = OpReturnValue
}

func (c *Compiler) enterScope() {
	scope := CompilationScope{instructions: Instructions{}}
	c.scopes = append(c.scopes, scope)
	c.scopeIndex++
	c.symbolTable = NewEnclosedSymbolTable(c.symbolTable)
}

func (c *Compiler) leaveScope() Instructions {
	instructions := c.currentInstructions()
	c.scopes = c.scopes[:len(c.scopes)-1]
	c.scopeIndex--
	c.symbolTable = c.symbolTable.Outer
	return instructions
}
