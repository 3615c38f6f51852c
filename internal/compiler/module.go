package compiler

import (
	"fmt"

	"loom/internal/bytecode"
	"loom/internal/ir"
	"loom/internal/kernel"
)

// EntryName is the function a top-level run invokes when present; otherwise
// the first function in sorted order is the entry.
const EntryName = "main"

// CompileModule compiles every function of a normalized module and merges
// the per-function kernel requests into the program's flat kernel table.
// Kernel indices are global across the program, assigned in the order
// functions are compiled (sorted by name); a single bulk link resolves each
// descriptor to its kernel by name.
func CompileModule(m *ir.Module, opts Options) (*bytecode.Program, error) {
	opts = opts.withDefaults()
	backend, err := kernel.For(opts.Target)
	if err != nil {
		return nil, err
	}

	names := m.Names()
	funcIdx := make(map[string]int, len(names))
	for i, name := range names {
		funcIdx[name] = i
	}

	results := make([]*Result, len(names))
	for i, name := range names {
		res, err := CompileFunc(name, m.Funcs[name], funcIdx, backend, opts)
		if err != nil {
			return nil, err
		}
		results[i] = res
	}

	prog, err := AssembleProgram(results, opts, backend)
	if err != nil {
		return nil, err
	}
	if entry, ok := funcIdx[EntryName]; ok {
		prog.Entry = entry
	}
	return prog, nil
}

// AssembleProgram merges per-function results in order: kernel indices are
// rebased onto the flat table, the descriptors are linked in bulk, and each
// kernel index is resolved to its entry by descriptor name.
func AssembleProgram(results []*Result, opts Options, backend kernel.Backend) (*bytecode.Program, error) {
	opts = opts.withDefaults()
	prog := &bytecode.Program{}
	var descs []kernel.Descriptor
	for _, res := range results {
		base := len(descs)
		for pc := range res.Func.Instrs {
			in := &res.Func.Instrs[pc]
			if in.Op == bytecode.OpInvokePacked {
				in.InvokePacked.Kernel += base
			}
		}
		descs = append(descs, res.Requests...)
		prog.Funcs = append(prog.Funcs, res.Func)
	}

	linked, err := backend.Link(descs, opts.Target)
	if err != nil {
		return nil, fmt.Errorf("linking %d kernels: %w", len(descs), err)
	}
	prog.KernelNames = make([]string, len(descs))
	prog.Kernels = make([]kernel.Kernel, len(descs))
	for i, d := range descs {
		prog.KernelNames[i] = d.Name
		k, err := linked.Kernel(d.Name)
		if err != nil {
			return nil, err
		}
		prog.Kernels[i] = k
	}

	if err := bytecode.Validate(prog); err != nil {
		return nil, fmt.Errorf("compiled program failed validation: %w", err)
	}
	return prog, nil
}
