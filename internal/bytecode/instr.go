package bytecode

import "loom/internal/tensor"

// Opcode enumerates the closed instruction set.
type Opcode uint8

const (
	// OpPush duplicates the value at a frame-relative slot onto the stack.
	OpPush Opcode = iota + 1
	// OpRet pops the current frame and relocates the return value.
	OpRet
	// OpAllocTensor allocates an uninitialized tensor and pushes it.
	OpAllocTensor
	// OpInvokePacked invokes a linked kernel over the top arity stack values.
	OpInvokePacked
	// OpIf consumes a boolean scalar and jumps by a relative offset.
	OpIf
	// OpInvoke calls another compiled function by index.
	OpInvoke
)

// String returns the mnemonic for an opcode.
func (op Opcode) String() string {
	switch op {
	case OpPush:
		return "push"
	case OpRet:
		return "ret"
	case OpAllocTensor:
		return "alloc_tensor"
	case OpInvokePacked:
		return "invoke_packed"
	case OpIf:
		return "if"
	case OpInvoke:
		return "invoke"
	default:
		return "unknown"
	}
}

// Instr is one bytecode instruction. Each opcode reads only its own payload
// struct; no field is shared across opcodes.
type Instr struct {
	Op Opcode

	Push         PushInstr
	AllocTensor  AllocTensorInstr
	InvokePacked InvokePackedInstr
	If           IfInstr
	Invoke       InvokeInstr
}

// PushInstr duplicates the value at Slot (relative to the frame base).
type PushInstr struct {
	Slot int
}

// AllocTensorInstr allocates an uninitialized tensor of the given shape and
// element type.
type AllocTensorInstr struct {
	Shape []int64
	DType tensor.DType
}

// InvokePackedInstr invokes kernel Kernel over the top Arity stack values,
// the last of which is the pre-allocated output.
type InvokePackedInstr struct {
	Kernel int
	Arity  int
}

// IfInstr advances the program counter by TrueOffset or FalseOffset after
// consuming the top-of-stack boolean scalar.
type IfInstr struct {
	TrueOffset  int
	FalseOffset int
}

// InvokeInstr calls the compiled function at index Func.
type InvokeInstr struct {
	Func int
}

// Push builds a push instruction.
func Push(slot int) Instr {
	return Instr{Op: OpPush, Push: PushInstr{Slot: slot}}
}

// Ret builds a return instruction.
func Ret() Instr {
	return Instr{Op: OpRet}
}

// AllocTensor builds an allocation instruction.
func AllocTensor(shape []int64, dtype tensor.DType) Instr {
	return Instr{Op: OpAllocTensor, AllocTensor: AllocTensorInstr{Shape: shape, DType: dtype}}
}

// InvokePacked builds a kernel invocation instruction.
func InvokePacked(kern, arity int) Instr {
	return Instr{Op: OpInvokePacked, InvokePacked: InvokePackedInstr{Kernel: kern, Arity: arity}}
}

// If builds a conditional jump with both offsets unpatched.
func If(trueOffset, falseOffset int) Instr {
	return Instr{Op: OpIf, If: IfInstr{TrueOffset: trueOffset, FalseOffset: falseOffset}}
}

// Invoke builds a call to a compiled function by index.
func Invoke(funcIndex int) Instr {
	return Instr{Op: OpInvoke, Invoke: InvokeInstr{Func: funcIndex}}
}
