package compiler

import (
	"testing"

	"loom/internal/bytecode"
	"loom/internal/ir"
	"loom/internal/tensor"
)

func TestCompileModule(t *testing.T) {
	// square(x) = mul(x, x); main(x) = add(square(x), x)
	mul := ir.NewPrimitive(
		[]ir.Param{{Name: "a", Type: vecT}, {Name: "b", Type: vecT}},
		vecT,
		ir.NewCall(vecT, ir.NewIntrinsic("mul"), ir.NewVar("a"), ir.NewVar("b")),
	)
	square := ir.NewFunc(
		[]ir.Param{{Name: "x", Type: vecT}},
		vecT,
		ir.NewCall(vecT, ir.NewFuncLit(mul), ir.NewVar("x"), ir.NewVar("x")),
	)
	main := ir.NewFunc(
		[]ir.Param{{Name: "x", Type: vecT}},
		vecT,
		ir.NewCall(vecT, ir.NewFuncLit(addPrim()),
			ir.NewCall(vecT, ir.NewGlobal("square"), ir.NewVar("x")),
			ir.NewVar("x")),
	)
	m := ir.NewModule(map[string]*ir.Func{"main": main, "square": square})

	prog, err := CompileModule(m, Options{})
	if err != nil {
		t.Fatalf("compile module: %v", err)
	}

	if len(prog.Funcs) != 2 {
		t.Fatalf("funcs = %d, want 2", len(prog.Funcs))
	}
	// Sorted order: main first, square second.
	if prog.Funcs[0].Name != "main" || prog.Funcs[1].Name != "square" {
		t.Fatalf("function order = %s, %s", prog.Funcs[0].Name, prog.Funcs[1].Name)
	}
	if prog.Entry != 0 {
		t.Fatalf("entry = %d, want 0 (main)", prog.Entry)
	}
	if len(prog.Kernels) != 2 || len(prog.KernelNames) != 2 {
		t.Fatalf("kernel table = %d/%d, want 2/2", len(prog.Kernels), len(prog.KernelNames))
	}

	// main compiled first, so its packed call owns kernel 0 and square's
	// is rebased to 1.
	mainPacked := findPacked(t, prog.Funcs[0])
	squarePacked := findPacked(t, prog.Funcs[1])
	if mainPacked.Kernel != 0 || squarePacked.Kernel != 1 {
		t.Fatalf("kernel indices = %d, %d, want 0, 1", mainPacked.Kernel, squarePacked.Kernel)
	}
}

func findPacked(t *testing.T, fn *bytecode.Function) bytecode.InvokePackedInstr {
	t.Helper()
	for i := range fn.Instrs {
		if fn.Instrs[i].Op == bytecode.OpInvokePacked {
			return fn.Instrs[i].InvokePacked
		}
	}
	t.Fatalf("no invoke_packed in %s", fn.Name)
	return bytecode.InvokePackedInstr{}
}

func TestCompileModuleEntryFallback(t *testing.T) {
	only := ir.NewFunc(
		[]ir.Param{{Name: "x", Type: ir.NewTensorType(tensor.Float32, 2)}},
		ir.NewTensorType(tensor.Float32, 2),
		ir.NewVar("x"),
	)
	m := ir.NewModule(map[string]*ir.Func{"identity": only})
	prog, err := CompileModule(m, Options{})
	if err != nil {
		t.Fatalf("compile module: %v", err)
	}
	if prog.Entry != 0 {
		t.Fatalf("entry = %d, want 0", prog.Entry)
	}
}
