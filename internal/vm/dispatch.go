package vm

import (
	"strconv"

	"loom/internal/bytecode"
	"loom/internal/tensor"
	"loom/internal/trace"
)

// run is the fetch-decode-execute loop. It returns when the frame pushed by
// the current top-level invocation is popped (call depth back at
// framesStart), leaving the result on top of the stack.
func (vm *VM) run(framesStart int) *RuntimeError {
	for {
		if vm.pc < 0 || vm.pc >= len(vm.code) {
			return vm.eb.makeError(CodeBadProgram, "program counter %d outside instruction buffer (len=%d)", vm.pc, len(vm.code))
		}
		in := &vm.code[vm.pc]
		vm.traceInstr(in)

		switch in.Op {
		case bytecode.OpPush:
			if err := vm.execPush(&in.Push); err != nil {
				return err
			}
			vm.pc++

		case bytecode.OpAllocTensor:
			if err := vm.execAllocTensor(&in.AllocTensor); err != nil {
				return err
			}
			vm.pc++

		case bytecode.OpInvokePacked:
			if err := vm.execInvokePacked(&in.InvokePacked); err != nil {
				return err
			}
			vm.pc++

		case bytecode.OpIf:
			if err := vm.execIf(&in.If); err != nil {
				return err
			}
			// execIf advanced the program counter by the taken offset.

		case bytecode.OpInvoke:
			if err := vm.execInvoke(&in.Invoke); err != nil {
				return err
			}

		case bytecode.OpRet:
			depth, err := vm.popFrame()
			if err != nil {
				return err
			}
			if depth == framesStart {
				return nil
			}

		default:
			return vm.eb.makeError(CodeBadProgram, "unimplemented opcode %d", in.Op)
		}
	}
}

// execPush duplicates the frame-relative slot onto the top of the stack.
func (vm *VM) execPush(in *bytecode.PushInstr) *RuntimeError {
	idx := vm.bp + in.Slot
	if in.Slot < 0 || idx >= len(vm.stack) {
		return vm.eb.makeError(CodeStackBounds, "push slot %d outside stack (bp=%d size=%d)", in.Slot, vm.bp, len(vm.stack))
	}
	vm.stack = append(vm.stack, vm.stack[idx])
	return nil
}

// execAllocTensor allocates an uninitialized tensor and pushes it.
func (vm *VM) execAllocTensor(in *bytecode.AllocTensorInstr) *RuntimeError {
	t, err := tensor.Empty(in.Shape, in.DType)
	if err != nil {
		return vm.eb.makeError(CodeAlloc, "%v", err)
	}
	vm.stack = append(vm.stack, Value{Tensor: t})
	return nil
}

// execInvokePacked marshals the top arity stack values (the last being the
// pre-allocated output) into the kernel's positional calling convention,
// invokes it synchronously, then collapses the consumed slots into the
// single output value.
func (vm *VM) execInvokePacked(in *bytecode.InvokePackedInstr) *RuntimeError {
	size := len(vm.stack)
	if in.Arity < 1 {
		// Even a zero-parameter kernel carries the output slot.
		return vm.eb.makeError(CodeBadProgram, "packed call arity %d below minimum 1", in.Arity)
	}
	if in.Arity > size {
		return vm.eb.makeError(CodeStackBounds, "packed call arity %d exceeds stack size %d", in.Arity, size)
	}
	if in.Kernel < 0 || in.Kernel >= len(vm.prog.Kernels) {
		return vm.eb.makeError(CodeBadProgram, "kernel index %d out of range (kernels=%d)", in.Kernel, len(vm.prog.Kernels))
	}

	args := make([]*tensor.Tensor, in.Arity)
	start := size - in.Arity
	for i := range args {
		args[i] = vm.stack[start+i].Tensor
	}
	if err := vm.prog.Kernels[in.Kernel](args); err != nil {
		return vm.eb.makeError(CodeKernelTrap, "kernel %s: %v", vm.kernelName(in.Kernel), err)
	}

	vm.stack[start] = vm.stack[size-1]
	vm.stack = vm.stack[:start+1]
	return nil
}

// execIf consumes the top-of-stack boolean scalar and advances the program
// counter by the matching branch offset.
func (vm *VM) execIf(in *bytecode.IfInstr) *RuntimeError {
	size := len(vm.stack)
	if size == 0 {
		return vm.eb.makeError(CodeStackBounds, "branch condition with empty stack")
	}
	cond := vm.stack[size-1].Tensor
	if cond == nil {
		return vm.eb.makeError(CodeTypeMismatch, "branch condition is an empty value")
	}
	branch, err := cond.BoolScalar()
	if err != nil {
		return vm.eb.makeError(CodeTypeMismatch, "%v", err)
	}
	vm.stack = vm.stack[:size-1]
	if branch {
		vm.pc += in.TrueOffset
	} else {
		vm.pc += in.FalseOffset
	}
	return nil
}

// execInvoke calls another compiled function: the compiler has already
// placed the arguments on the stack, so only the frame push and the
// control transfer happen here. The callee's ret relocates its result into
// the first argument's slot, symmetric with the top-level protocol.
func (vm *VM) execInvoke(in *bytecode.InvokeInstr) *RuntimeError {
	if in.Func < 0 || in.Func >= len(vm.prog.Funcs) {
		return vm.eb.makeError(CodeBadProgram, "function index %d out of range (funcs=%d)", in.Func, len(vm.prog.Funcs))
	}
	callee := vm.prog.Funcs[in.Func]
	if callee.NumParams > len(vm.stack) {
		return vm.eb.makeError(CodeStackBounds, "call to %s needs %d stack values, have %d", callee.Name, callee.NumParams, len(vm.stack))
	}

	vm.pc++
	vm.pushFrame(callee.NumParams)
	vm.code = callee.Instrs
	vm.fnIndex = in.Func
	vm.pc = 0
	vm.bp = len(vm.stack) - callee.NumParams
	return nil
}

func (vm *VM) kernelName(idx int) string {
	if idx >= 0 && idx < len(vm.prog.KernelNames) {
		return vm.prog.KernelNames[idx]
	}
	return "<unknown>"
}

func (vm *VM) traceInstr(in *bytecode.Instr) {
	if !vm.tr.Enabled() || vm.tr.Level() < trace.LevelDebug {
		return
	}
	vm.tr.Emit(&trace.Event{
		Kind:  trace.KindPoint,
		Scope: trace.ScopeInstr,
		Name:  "vm.step",
		Attrs: map[string]string{
			"fn":    vm.funcName(vm.fnIndex),
			"pc":    strconv.Itoa(vm.pc),
			"instr": bytecode.InstrString(in),
			"stack": strconv.Itoa(len(vm.stack)),
		},
	})
}
