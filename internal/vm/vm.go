// Package vm executes compiled programs on a stack machine. The dispatch
// loop is synchronous and non-preemptive: one top-level invocation runs to
// completion or fails with a typed RuntimeError. The value stack and frame
// stack are owned exclusively by the VM instance; neither is exposed for
// outside mutation.
package vm

import (
	"loom/internal/bytecode"
	"loom/internal/tensor"
	"loom/internal/trace"
)

// VM holds the compiled function table, the linked kernel table, the
// runtime value stack, and the call-frame stack.
type VM struct {
	prog   *bytecode.Program
	stack  []Value
	frames []Frame

	pc      int
	bp      int
	fnIndex int
	code    []bytecode.Instr

	tr trace.Tracer
	eb errorBuilder
}

// New creates a VM over a compiled program. The program is consumed
// read-only for the lifetime of the VM.
func New(prog *bytecode.Program) *VM {
	vm := &VM{prog: prog, fnIndex: -1, tr: trace.Nop()}
	vm.eb = errorBuilder{vm: vm}
	return vm
}

// SetTracer installs a tracer for dispatch-level events. Must be called
// before Invoke; a nil tracer disables tracing.
func (vm *VM) SetTracer(tr trace.Tracer) {
	if tr == nil {
		tr = trace.Nop()
	}
	vm.tr = tr
}

// StackSize returns the current value stack depth. Each completed top-level
// invocation leaves the sentinel slot plus the result value behind.
func (vm *VM) StackSize() int {
	return len(vm.stack)
}

// InvokeName invokes the named function.
func (vm *VM) InvokeName(name string, args []*tensor.Tensor) (*tensor.Tensor, error) {
	idx, err := vm.prog.FuncIndex(name)
	if err != nil {
		return nil, err
	}
	return vm.Invoke(idx, args)
}

// InvokeEntry invokes the program's entry function.
func (vm *VM) InvokeEntry(args []*tensor.Tensor) (*tensor.Tensor, error) {
	return vm.Invoke(vm.prog.Entry, args)
}

// Invoke runs the function at index fnIndex over the argument tensors and
// returns the single result tensor. On failure the value and frame stacks
// are restored to their pre-invocation state, so earlier results survive.
func (vm *VM) Invoke(fnIndex int, args []*tensor.Tensor) (*tensor.Tensor, error) {
	stackStart := len(vm.stack)
	framesStart := len(vm.frames)

	if err := vm.invokeGlobal(fnIndex, args); err != nil {
		return nil, err
	}
	if err := vm.run(framesStart); err != nil {
		vm.stack = vm.stack[:stackStart]
		vm.frames = vm.frames[:framesStart]
		vm.pc, vm.bp, vm.fnIndex, vm.code = 0, 0, -1, nil
		return nil, err
	}
	return vm.stack[len(vm.stack)-1].Tensor, nil
}

// invokeGlobal sets up the initial frame: the sentinel slot, the
// arguments, and the callee's code. Ret's relocation arithmetic leaves the
// result on top with the sentinel beneath it.
func (vm *VM) invokeGlobal(fnIndex int, args []*tensor.Tensor) *RuntimeError {
	if fnIndex < 0 || fnIndex >= len(vm.prog.Funcs) {
		return vm.eb.makeError(CodeBadProgram, "function index %d out of range (funcs=%d)", fnIndex, len(vm.prog.Funcs))
	}
	fn := vm.prog.Funcs[fnIndex]
	if len(args) != fn.NumParams {
		return vm.eb.makeError(CodeBadProgram, "function %s takes %d arguments, got %d", fn.Name, fn.NumParams, len(args))
	}

	vm.stack = append(vm.stack, Value{})
	for _, arg := range args {
		vm.stack = append(vm.stack, Value{Tensor: arg})
	}
	vm.pushFrame(fn.NumParams)
	vm.code = fn.Instrs
	vm.fnIndex = fnIndex
	vm.pc = 0
	vm.bp = len(vm.stack) - fn.NumParams
	return nil
}

// pushFrame saves the caller state so ret can restore it.
func (vm *VM) pushFrame(argCount int) {
	vm.frames = append(vm.frames, Frame{
		RetPC:     vm.pc,
		BP:        vm.bp,
		FuncIndex: vm.fnIndex,
		ArgCount:  argCount,
		Code:      vm.code,
	})
}

// popFrame relocates the return value into the slot below the frame's
// arguments, shrinks the stack by the argument count, restores the caller
// state, and returns the remaining call depth.
func (vm *VM) popFrame() (int, *RuntimeError) {
	if len(vm.frames) == 0 {
		return 0, vm.eb.makeError(CodeBadProgram, "ret with no live frame")
	}
	fr := &vm.frames[len(vm.frames)-1]
	size := len(vm.stack)
	dst := size - fr.ArgCount - 1
	if dst < 0 || size == 0 {
		return 0, vm.eb.makeError(CodeStackBounds, "ret return-value slot %d out of range (stack=%d)", dst, size)
	}
	vm.stack[dst] = vm.stack[size-1]
	vm.stack = vm.stack[:size-fr.ArgCount]

	vm.bp = fr.BP
	vm.pc = fr.RetPC
	vm.fnIndex = fr.FuncIndex
	vm.code = fr.Code
	vm.frames = vm.frames[:len(vm.frames)-1]
	return len(vm.frames), nil
}

func (vm *VM) funcName(idx int) string {
	if vm.prog == nil || idx < 0 || idx >= len(vm.prog.Funcs) {
		return "<invalid>"
	}
	return vm.prog.Funcs[idx].Name
}
