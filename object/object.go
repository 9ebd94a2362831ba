// Package object defines the tagged runtime value model shared by the
// compiler's constant pool and the VM's stack.
package object

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Type names the concrete kind of an Object, used for error messages and
// as the Inspect() discriminator.
type Type string

const (
	NUMBER_OBJ        Type = "NUMBER"
	BOOLEAN_OBJ       Type = "BOOLEAN"
	STRING_OBJ        Type = "STRING"
	ARRAY_OBJ         Type = "ARRAY"
	HASH_OBJ          Type = "HASH"
	NULL_OBJ          Type = "NULL"
	RETURN_VALUE_OBJ  Type = "RETURN_VALUE"
	ERROR_OBJ         Type = "ERROR"
	BREAK_OBJ         Type = "BREAK"
	COMPILED_FUNC_OBJ Type = "COMPILED_FUNCTION"
	CLOSURE_OBJ       Type = "CLOSURE"
)

// Object is any value that can live on the VM stack, in the constant
// pool, or in a Hash.
type Object interface {
	Type() Type
	Inspect() string
}

// Number is the tagged Int/Float union: every arithmetic result is a
// Number, and it promotes to Float iff either operand was a Float.
type Number struct {
	IsFloat bool
	I       int64
	F       float64
}

func NewInt(i int64) *Number     { return &Number{I: i} }
func NewFloat(f float64) *Number { return &Number{IsFloat: true, F: f} }

func (n *Number) Type() Type { return NUMBER_OBJ }

func (n *Number) Inspect() string {
	if n.IsFloat {
		return strconv.FormatFloat(n.F, 'g', -1, 64)
	}
	return strconv.FormatInt(n.I, 10)
}

// AsFloat projects the Number onto f64, for comparisons and promotion.
func (n *Number) AsFloat() float64 {
	if n.IsFloat {
		return n.F
	}
	return float64(n.I)
}

// HashKey renders a stable map key: integer bits for Int, textual form
// for Float. The two are prefixed distinctly so Int(3) and Float(3.0)
// never collide on the same key, even though they compare equal under
// objectsEqual's f64 projection.
func (n *Number) HashKey() HashKey {
	if n.IsFloat {
		return HashKey{Type: NUMBER_OBJ, Value: "f:" + n.Inspect()}
	}
	return HashKey{Type: NUMBER_OBJ, Value: "i:" + strconv.FormatInt(n.I, 10)}
}

type Boolean struct {
	Value bool
}

func (b *Boolean) Type() Type      { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string { return strconv.FormatBool(b.Value) }
func (b *Boolean) HashKey() HashKey {
	return HashKey{Type: BOOLEAN_OBJ, Value: strconv.FormatBool(b.Value)}
}

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NULL  = &Null{}
)

type String struct {
	Value string
}

func (s *String) Type() Type       { return STRING_OBJ }
func (s *String) Inspect() string  { return s.Value }
func (s *String) HashKey() HashKey { return HashKey{Type: STRING_OBJ, Value: s.Value} }

type Array struct {
	Elements []Object
}

func (a *Array) Type() Type { return ARRAY_OBJ }
func (a *Array) Inspect() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.Inspect()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// HashKey identifies a hashable Object by its concrete type and textual
// value; only Number, Boolean, and String implement Hashable.
type HashKey struct {
	Type  Type
	Value string
}

// Hashable is implemented by every Object kind legal as a Hash key.
type Hashable interface {
	HashKey() HashKey
}

type HashPair struct {
	Key   Object
	Value Object
}

type Hash struct {
	Pairs map[HashKey]HashPair
}

func (h *Hash) Type() Type { return HASH_OBJ }
func (h *Hash) Inspect() string {
	pairs := make([]string, 0, len(h.Pairs))
	for _, p := range h.Pairs {
		pairs = append(pairs, fmt.Sprintf("%s: %s", p.Key.Inspect(), p.Value.Inspect()))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ", ") + "}"
}

type Null struct{}

func (n *Null) Type() Type      { return NULL_OBJ }
func (n *Null) Inspect() string { return "Null" }

// ReturnValue wraps a returned value. The VM's ReturnValue opcode does
// not construct it (it moves the popped result directly onto the
// caller's stack); the variant exists for object model parity.
type ReturnValue struct {
	Value Object
}

func (r *ReturnValue) Type() Type      { return RETURN_VALUE_OBJ }
func (r *ReturnValue) Inspect() string { return r.Value.Inspect() }

// Error is a runtime fault value; in this implementation it is carried
// as a Go error at the call boundary rather than pushed to the stack,
// but the variant exists for parity with the object model named in the
// language's data model.
type Error struct {
	Message string
}

func (e *Error) Type() Type      { return ERROR_OBJ }
func (e *Error) Inspect() string { return "Error: " + e.Message }

// Break is the singleton sentinel for a break statement; unused by the
// VM core (no enclosing loop-exit opcode is named), kept for object
// model parity.
type Break struct{}

func (b *Break) Type() Type      { return BREAK_OBJ }
func (b *Break) Inspect() string { return "break" }

// CompiledFunction is a function body reduced to bytes: instructions
// plus the local/parameter counts the VM needs to set up a call frame.
type CompiledFunction struct {
	Instructions []byte
	NumLocals    int
	NumParams    int
}

func (f *CompiledFunction) Type() Type      { return COMPILED_FUNC_OBJ }
func (f *CompiledFunction) Inspect() string { return fmt.Sprintf("CompiledFunction[%p]", f) }

// Closure pairs a CompiledFunction with the free values it captured at
// the point the Closure opcode ran.
type Closure struct {
	Fn    *CompiledFunction
	Frees []Object
}

func (c *Closure) Type() Type      { return CLOSURE_OBJ }
func (c *Closure) Inspect() string { return fmt.Sprintf("Closure[%p]", c) }

// IsHashable reports whether obj may be used as a Hash key.
func IsHashable(obj Object) (Hashable, bool) {
	h, ok := obj.(Hashable)
	return h, ok
}

// IsTruthy implements the VM's truthiness rule: Null and false are
// falsy, everything else is truthy.
func IsTruthy(obj Object) bool {
	switch obj {
	case NULL:
		return false
	case TRUE:
		return true
	case FALSE:
		return false
	default:
		return true
	}
}
