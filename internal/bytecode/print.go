package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// InstrString renders one instruction in disassembly form.
func InstrString(in *Instr) string {
	switch in.Op {
	case OpPush:
		return fmt.Sprintf("push %d", in.Push.Slot)
	case OpRet:
		return "ret"
	case OpAllocTensor:
		var sb strings.Builder
		sb.WriteString("alloc_tensor (")
		for i, dim := range in.AllocTensor.Shape {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%d", dim)
		}
		sb.WriteString(") ")
		sb.WriteString(in.AllocTensor.DType.String())
		return sb.String()
	case OpInvokePacked:
		return fmt.Sprintf("invoke_packed %d %d", in.InvokePacked.Kernel, in.InvokePacked.Arity)
	case OpIf:
		return fmt.Sprintf("if %d %d", in.If.TrueOffset, in.If.FalseOffset)
	case OpInvoke:
		return fmt.Sprintf("invoke %d", in.Invoke.Func)
	default:
		return fmt.Sprintf("unknown(%d)", in.Op)
	}
}

// DumpFunction writes the disassembly of one function.
func DumpFunction(w io.Writer, f *Function) {
	if w == nil || f == nil {
		return
	}
	fmt.Fprintf(w, "fn %s params=%d:\n", f.Name, f.NumParams)
	for i := range f.Instrs {
		fmt.Fprintf(w, "  %3d: %s\n", i, InstrString(&f.Instrs[i]))
	}
}

// DumpProgram writes the disassembly of a whole program, kernel table first.
func DumpProgram(w io.Writer, p *Program) {
	if w == nil || p == nil {
		return
	}
	fmt.Fprintf(w, "kernels=%d\n", len(p.KernelNames))
	for i, name := range p.KernelNames {
		fmt.Fprintf(w, "  K%d: %s\n", i, name)
	}
	fmt.Fprintf(w, "funcs=%d entry=%d\n", len(p.Funcs), p.Entry)
	for _, f := range p.Funcs {
		fmt.Fprintln(w)
		DumpFunction(w, f)
	}
}
