package bytecode

import (
	"fmt"

	"loom/internal/kernel"
)

// Program is a compiled module: the ordered function table plus the flat
// table of linked kernels referenced by InvokePacked. Kernel indices are
// global across the program. Consumed read-only by the VM.
type Program struct {
	Funcs []*Function
	// KernelNames holds the descriptor name behind each kernel index, in
	// table order. Kept alongside the kernels so cached programs can be
	// relinked by name.
	KernelNames []string
	Kernels     []kernel.Kernel
	// Entry is the index of the function a top-level run invokes.
	Entry int
}

// FuncIndex returns the index of the named function.
func (p *Program) FuncIndex(name string) (int, error) {
	for i, f := range p.Funcs {
		if f.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("bytecode: no function named %q in program", name)
}
