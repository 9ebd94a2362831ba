package vm

import (
	"probashi/compiler"
	"probashi/object"
)

// Frame is the runtime record for one active call: the closure being
// executed, the instruction pointer within it, and the base pointer
// into the VM's value stack for this call's locals.
type Frame struct {
	cl *object.Closure
	ip int
	bp int
}

// NewFrame starts a Frame with ip at -1, so the main loop's
// pre-increment lands on byte 0 of the closure's instructions.
func NewFrame(cl *object.Closure, bp int) *Frame {
	return &Frame{cl: cl, ip: -1, bp: bp}
}

func (f *Frame) Instructions() compiler.Instructions {
	return f.cl.Fn.Instructions
}
