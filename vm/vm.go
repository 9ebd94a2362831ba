// Package vm executes compiled bytecode on a register-less stack
// machine: a value stack, a frame stack for calls, and a globals array.
package vm

import (
	"fmt"
	"math"

	"probashi/compiler"
	"probashi/object"
)

const (
	StackSize   = 2048
	GlobalsSize = 1024
	FramesSize  = 1024
)

// VM owns all runtime state for one execution of a Bytecode value.
type VM struct {
	constants []object.Object

	stack []object.Object
	sp    int // next free slot; stack[sp-1] is top

	globals []object.Object

	frames      []*Frame
	framesIndex int

	lastPopped object.Object
}

// New sets up a VM with a fresh globals array, wrapping the top-level
// instruction stream in an argument-less CompiledFunction/Closure and
// pushing its frame with bp = 0.
func New(bytecode *compiler.Bytecode) *VM {
	mainFn := &object.CompiledFunction{Instructions: bytecode.Instructions}
	mainClosure := &object.Closure{Fn: mainFn}
	mainFrame := NewFrame(mainClosure, 0)

	frames := make([]*Frame, FramesSize)
	frames[0] = mainFrame

	return &VM{
		constants:   bytecode.Constants,
		stack:       make([]object.Object, StackSize),
		globals:     make([]object.Object, GlobalsSize),
		frames:      frames,
		framesIndex: 1,
	}
}

// NewWithGlobalsStore reuses an existing globals array across REPL
// lines, so earlier bindings stay visible to later ones.
func NewWithGlobalsStore(bytecode *compiler.Bytecode, globals []object.Object) *VM {
	v := New(bytecode)
	v.globals = globals
	return v
}

// Globals exposes the globals array so a REPL can carry it to the next line.
func (vm *VM) Globals() []object.Object { return vm.globals }

// LastPoppedStackElem returns the most recent value an OpPop removed —
// the program's result.
func (vm *VM) LastPoppedStackElem() object.Object {
	if vm.lastPopped == nil {
		return object.NULL
	}
	return vm.lastPopped
}

func (vm *VM) currentFrame() *Frame { return vm.frames[vm.framesIndex-1] }

func (vm *VM) pushFrame(f *Frame) {
	vm.frames[vm.framesIndex] = f
	vm.framesIndex++
}

func (vm *VM) popFrame() *Frame {
	vm.framesIndex--
	return vm.frames[vm.framesIndex]
}

func (vm *VM) push(obj object.Object) error {
	if vm.sp >= StackSize {
		return RuntimeError{Message: "stack overflow"}
	}
	vm.stack[vm.sp] = obj
	vm.sp++
	return nil
}

func (vm *VM) pop() object.Object {
	obj := vm.stack[vm.sp-1]
	vm.sp--
	return obj
}

// Run executes the bytecode the VM was constructed with via a
// fetch-decode-execute loop over the current frame's instructions.
func (vm *VM) Run() error {
	for vm.currentFrame().ip < len(vm.currentFrame().Instructions())-1 {
		vm.currentFrame().ip++
		ip := vm.currentFrame().ip
		ins := vm.currentFrame().Instructions()
		op := compiler.Opcode(ins[ip])

		switch op {
		case compiler.OpConst:
			constIndex := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			if err := vm.push(vm.constants[constIndex]); err != nil {
				return err
			}

		case compiler.OpPop:
			vm.lastPopped = vm.pop()

		case compiler.OpAdd, compiler.OpSub, compiler.OpMul, compiler.OpDiv, compiler.OpMod:
			right := vm.pop()
			left := vm.pop()
			result, err := executeBinaryOp(op, left, right)
			if err != nil {
				return err
			}
			if err := vm.push(result); err != nil {
				return err
			}

		case compiler.OpTrue:
			if err := vm.push(object.TRUE); err != nil {
				return err
			}
		case compiler.OpFalse:
			if err := vm.push(object.FALSE); err != nil {
				return err
			}
		case compiler.OpNull:
			if err := vm.push(object.NULL); err != nil {
				return err
			}

		case compiler.OpEqual, compiler.OpNotEqual, compiler.OpGreaterThan:
			right := vm.pop()
			left := vm.pop()
			result, err := executeComparison(op, left, right)
			if err != nil {
				return err
			}
			if err := vm.push(result); err != nil {
				return err
			}

		case compiler.OpBang:
			operand := vm.pop()
			if object.IsTruthy(operand) {
				if err := vm.push(object.FALSE); err != nil {
					return err
				}
			} else {
				if err := vm.push(object.TRUE); err != nil {
					return err
				}
			}

		case compiler.OpMinus:
			operand := vm.pop()
			num, ok := operand.(*object.Number)
			if !ok {
				return RuntimeError{Message: fmt.Sprintf("unsupported type for negation: %s", operand.Type())}
			}
			if num.IsFloat {
				if err := vm.push(object.NewFloat(-num.F)); err != nil {
					return err
				}
			} else {
				if err := vm.push(object.NewInt(-num.I)); err != nil {
					return err
				}
			}

		case compiler.OpJumpNotTruthy:
			pos := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			condition := vm.pop()
			if !object.IsTruthy(condition) {
				vm.currentFrame().ip = pos - 1
			}

		case compiler.OpJump:
			pos := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip = pos - 1

		case compiler.OpGetGlobal:
			idx := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			if err := vm.push(vm.globals[idx]); err != nil {
				return err
			}
		case compiler.OpSetGlobal:
			idx := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			vm.globals[idx] = vm.pop()

		case compiler.OpGetLocal:
			idx := int(compiler.ReadUint8(ins[ip+1:]))
			vm.currentFrame().ip += 1
			frame := vm.currentFrame()
			if err := vm.push(vm.stack[frame.bp+idx]); err != nil {
				return err
			}
		case compiler.OpSetLocal:
			idx := int(compiler.ReadUint8(ins[ip+1:]))
			vm.currentFrame().ip += 1
			frame := vm.currentFrame()
			vm.stack[frame.bp+idx] = vm.pop()

		case compiler.OpGetFree:
			idx := int(compiler.ReadUint8(ins[ip+1:]))
			vm.currentFrame().ip += 1
			cl := vm.currentFrame().cl
			if err := vm.push(cl.Frees[idx]); err != nil {
				return err
			}

		case compiler.OpCurrentClosure:
			if err := vm.push(vm.currentFrame().cl); err != nil {
				return err
			}

		case compiler.OpArray:
			count := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			elements := make([]object.Object, count)
			copy(elements, vm.stack[vm.sp-count:vm.sp])
			vm.sp -= count
			if err := vm.push(&object.Array{Elements: elements}); err != nil {
				return err
			}

		case compiler.OpHash:
			count := int(compiler.ReadUint16(ins[ip+1:]))
			vm.currentFrame().ip += 2
			hash, err := buildHash(vm.stack[vm.sp-count : vm.sp])
			if err != nil {
				return err
			}
			vm.sp -= count
			if err := vm.push(hash); err != nil {
				return err
			}

		case compiler.OpIndex:
			index := vm.pop()
			left := vm.pop()
			result, err := executeIndex(left, index)
			if err != nil {
				return err
			}
			if err := vm.push(result); err != nil {
				return err
			}

		case compiler.OpCall:
			argc := int(compiler.ReadUint8(ins[ip+1:]))
			vm.currentFrame().ip += 1
			if err := vm.callClosure(argc); err != nil {
				return err
			}

		case compiler.OpReturnValue:
			result := vm.pop()
			frame := vm.popFrame()
			vm.sp = frame.bp - 1
			if err := vm.push(result); err != nil {
				return err
			}

		case compiler.OpReturn:
			frame := vm.popFrame()
			vm.sp = frame.bp - 1
			if err := vm.push(object.NULL); err != nil {
				return err
			}

		case compiler.OpClosure:
			constIndex := int(compiler.ReadUint16(ins[ip+1:]))
			numFree := int(compiler.ReadUint8(ins[ip+3:]))
			vm.currentFrame().ip += 3

			fn, ok := vm.constants[constIndex].(*object.CompiledFunction)
			if !ok {
				return RuntimeError{Message: fmt.Sprintf("not a function: %T", vm.constants[constIndex])}
			}

			frees := make([]object.Object, numFree)
			copy(frees, vm.stack[vm.sp-numFree:vm.sp])
			vm.sp -= numFree

			if err := vm.push(&object.Closure{Fn: fn, Frees: frees}); err != nil {
				return err
			}

		case compiler.OpShow:
			count := int(compiler.ReadUint8(ins[ip+1:]))
			vm.currentFrame().ip += 1
			vm.executeShow(count)

		default:
			return RuntimeError{Message: fmt.Sprintf("unknown opcode %d", op)}
		}
	}

	return nil
}

func (vm *VM) callClosure(argc int) error {
	callee := vm.stack[vm.sp-1-argc]
	cl, ok := callee.(*object.Closure)
	if !ok {
		return RuntimeError{Message: fmt.Sprintf("calling non-function: %s", callee.Type())}
	}
	if cl.Fn.NumParams != argc {
		return RuntimeError{Message: fmt.Sprintf("wrong number of arguments: want=%d, got=%d", cl.Fn.NumParams, argc)}
	}

	frame := NewFrame(cl, vm.sp-argc)
	vm.pushFrame(frame)
	vm.sp = frame.bp + cl.Fn.NumLocals
	return nil
}

// executeShow pops count values, restores source order, and prints them
// space-joined — the VM's sole sanctioned side effect.
func (vm *VM) executeShow(count int) {
	values := make([]object.Object, count)
	for i := count - 1; i >= 0; i-- {
		values[i] = vm.pop()
	}
	parts := make([]string, count)
	for i, v := range values {
		parts[i] = v.Inspect()
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(p)
	}
	fmt.Println()
}

func executeBinaryOp(op compiler.Opcode, left, right object.Object) (object.Object, error) {
	if left.Type() == object.NUMBER_OBJ && right.Type() == object.NUMBER_OBJ {
		return executeNumberBinaryOp(op, left.(*object.Number), right.(*object.Number))
	}
	if left.Type() == object.STRING_OBJ && right.Type() == object.STRING_OBJ && op == compiler.OpAdd {
		return &object.String{Value: left.(*object.String).Value + right.(*object.String).Value}, nil
	}
	return nil, RuntimeError{Message: fmt.Sprintf("unsupported types for binary operation: %s %s", left.Type(), right.Type())}
}

func executeNumberBinaryOp(op compiler.Opcode, left, right *object.Number) (object.Object, error) {
	if left.IsFloat || right.IsFloat {
		a, b := left.AsFloat(), right.AsFloat()
		switch op {
		case compiler.OpAdd:
			return object.NewFloat(a + b), nil
		case compiler.OpSub:
			return object.NewFloat(a - b), nil
		case compiler.OpMul:
			return object.NewFloat(a * b), nil
		case compiler.OpDiv:
			return object.NewFloat(a / b), nil
		case compiler.OpMod:
			return object.NewFloat(math.Mod(a, b)), nil
		}
	}

	a, b := left.I, right.I
	switch op {
	case compiler.OpAdd:
		return object.NewInt(a + b), nil
	case compiler.OpSub:
		return object.NewInt(a - b), nil
	case compiler.OpMul:
		return object.NewInt(a * b), nil
	case compiler.OpDiv:
		return object.NewInt(a / b), nil
	case compiler.OpMod:
		return object.NewInt(a % b), nil
	}
	return nil, RuntimeError{Message: fmt.Sprintf("unknown number operator %d", op)}
}

func executeComparison(op compiler.Opcode, left, right object.Object) (object.Object, error) {
	if op == compiler.OpGreaterThan {
		ln, ok1 := left.(*object.Number)
		rn, ok2 := right.(*object.Number)
		if !ok1 || !ok2 {
			return nil, RuntimeError{Message: fmt.Sprintf("unsupported types for comparison: %s %s", left.Type(), right.Type())}
		}
		return nativeBool(ln.AsFloat() > rn.AsFloat()), nil
	}

	equal := objectsEqual(left, right)
	if op == compiler.OpEqual {
		return nativeBool(equal), nil
	}
	return nativeBool(!equal), nil
}

// objectsEqual compares by tagged equality: only identical-kind,
// identical-value pairs are equal; Numbers compare by their f64
// projection regardless of Int/Float tag.
func objectsEqual(left, right object.Object) bool {
	if left.Type() != right.Type() {
		return false
	}
	switch left.Type() {
	case object.NUMBER_OBJ:
		return left.(*object.Number).AsFloat() == right.(*object.Number).AsFloat()
	case object.BOOLEAN_OBJ:
		return left.(*object.Boolean).Value == right.(*object.Boolean).Value
	case object.STRING_OBJ:
		return left.(*object.String).Value == right.(*object.String).Value
	case object.NULL_OBJ:
		return true
	default:
		return left == right
	}
}

func nativeBool(b bool) *object.Boolean {
	if b {
		return object.TRUE
	}
	return object.FALSE
}

func buildHash(pairs []object.Object) (*object.Hash, error) {
	hashPairs := make(map[object.HashKey]object.HashPair, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key := pairs[i]
		value := pairs[i+1]

		hashable, ok := object.IsHashable(key)
		if !ok {
			return nil, RuntimeError{Message: fmt.Sprintf("unusable as hash key: %s", key.Type())}
		}
		hashPairs[hashable.HashKey()] = object.HashPair{Key: key, Value: value}
	}
	return &object.Hash{Pairs: hashPairs}, nil
}

func executeIndex(left, index object.Object) (object.Object, error) {
	switch {
	case left.Type() == object.ARRAY_OBJ:
		arr := left.(*object.Array)
		idxNum, ok := index.(*object.Number)
		if !ok || idxNum.IsFloat {
			return nil, RuntimeError{Message: "array index must be an integer"}
		}
		i := idxNum.I
		if i < 0 || i >= int64(len(arr.Elements)) {
			return object.NULL, nil
		}
		return arr.Elements[i], nil

	case left.Type() == object.HASH_OBJ:
		hash := left.(*object.Hash)
		hashable, ok := object.IsHashable(index)
		if !ok {
			return nil, RuntimeError{Message: fmt.Sprintf("unusable as hash key: %s", index.Type())}
		}
		pair, ok := hash.Pairs[hashable.HashKey()]
		if !ok {
			return object.NULL, nil
		}
		return pair.Value, nil

	default:
		return nil, RuntimeError{Message: fmt.Sprintf("index operator not supported: %s", left.Type())}
	}
}
