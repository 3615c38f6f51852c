package bytecode

import (
	"errors"
	"fmt"
)

// Validate checks structural invariants of a compiled program: every
// function ends in ret, every jump target and table index stays in range.
// Returns the joined per-function errors.
func Validate(p *Program) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.Entry < 0 || p.Entry >= len(p.Funcs) {
		errs = append(errs, fmt.Errorf("entry index %d out of range (funcs=%d)", p.Entry, len(p.Funcs)))
	}
	if len(p.KernelNames) != len(p.Kernels) && len(p.Kernels) != 0 {
		errs = append(errs, fmt.Errorf("kernel table size %d does not match name table size %d", len(p.Kernels), len(p.KernelNames)))
	}
	for i, f := range p.Funcs {
		if err := validateFunc(f, len(p.KernelNames), len(p.Funcs)); err != nil {
			errs = append(errs, fmt.Errorf("function %d (%s): %w", i, f.Name, err))
		}
	}
	return errors.Join(errs...)
}

func validateFunc(f *Function, numKernels, numFuncs int) error {
	if f == nil {
		return errors.New("nil function")
	}
	var errs []error
	if f.NumParams < 0 {
		errs = append(errs, fmt.Errorf("negative parameter count %d", f.NumParams))
	}
	if len(f.Instrs) == 0 || f.Instrs[len(f.Instrs)-1].Op != OpRet {
		errs = append(errs, errors.New("missing trailing ret"))
	}
	for pc := range f.Instrs {
		in := &f.Instrs[pc]
		switch in.Op {
		case OpPush:
			if in.Push.Slot < 0 {
				errs = append(errs, fmt.Errorf("pc %d: negative push slot %d", pc, in.Push.Slot))
			}
		case OpRet:
			// No payload.
		case OpAllocTensor:
			for _, dim := range in.AllocTensor.Shape {
				if dim < 0 {
					errs = append(errs, fmt.Errorf("pc %d: negative dimension %d", pc, dim))
				}
			}
		case OpInvokePacked:
			if in.InvokePacked.Kernel < 0 || in.InvokePacked.Kernel >= numKernels {
				errs = append(errs, fmt.Errorf("pc %d: kernel index %d out of range (kernels=%d)", pc, in.InvokePacked.Kernel, numKernels))
			}
			if in.InvokePacked.Arity < 1 {
				errs = append(errs, fmt.Errorf("pc %d: arity %d below 1", pc, in.InvokePacked.Arity))
			}
		case OpIf:
			for _, off := range []int{in.If.TrueOffset, in.If.FalseOffset} {
				target := pc + off
				if off < 1 || target >= len(f.Instrs) {
					errs = append(errs, fmt.Errorf("pc %d: jump offset %d leaves instruction range", pc, off))
				}
			}
		case OpInvoke:
			if in.Invoke.Func < 0 || in.Invoke.Func >= numFuncs {
				errs = append(errs, fmt.Errorf("pc %d: function index %d out of range (funcs=%d)", pc, in.Invoke.Func, numFuncs))
			}
		default:
			errs = append(errs, fmt.Errorf("pc %d: unknown opcode %d", pc, in.Op))
		}
	}
	return errors.Join(errs...)
}
