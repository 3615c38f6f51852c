package vm

import (
	"loom/internal/bytecode"
	"loom/internal/tensor"
)

// Value is one runtime stack entry. The value model currently has exactly
// one variant: a device tensor handle.
type Value struct {
	Tensor *tensor.Tensor
}

// Frame is a function activation record: the caller state restored by ret.
// Frames form a stack whose depth equals live call nesting.
type Frame struct {
	// RetPC is the caller's program counter to resume at.
	RetPC int
	// BP is the caller's base pointer.
	BP int
	// FuncIndex is the caller's function index.
	FuncIndex int
	// ArgCount is the callee's argument count, used by ret to relocate the
	// return value and shrink the stack.
	ArgCount int
	// Code is the instruction buffer active at call time.
	Code []bytecode.Instr
}
