package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"loom/internal/bytecode"
	"loom/internal/kernel"
	"loom/internal/tensor"
)

func vec(t *testing.T, vals ...float32) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromFloat32([]int64{int64(len(vals))}, vals)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

// addKernel sums its two inputs into the trailing output buffer.
func addKernel(args []*tensor.Tensor) error {
	if len(args) != 3 {
		return fmt.Errorf("want 3 args, got %d", len(args))
	}
	a, b, out := args[0].Float32s(), args[1].Float32s(), args[2].Float32s()
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return nil
}

func identityProgram() *bytecode.Program {
	return &bytecode.Program{
		Funcs: []*bytecode.Function{{
			Name:      "main",
			NumParams: 1,
			Instrs:    []bytecode.Instr{bytecode.Push(0), bytecode.Ret()},
		}},
	}
}

func addProgram() *bytecode.Program {
	return &bytecode.Program{
		Funcs: []*bytecode.Function{{
			Name:      "main",
			NumParams: 2,
			Instrs: []bytecode.Instr{
				bytecode.Push(0),
				bytecode.Push(1),
				bytecode.AllocTensor([]int64{3}, tensor.Float32),
				bytecode.InvokePacked(0, 3),
				bytecode.Ret(),
			},
		}},
		KernelNames: []string{"add"},
		Kernels:     []kernel.Kernel{addKernel},
	}
}

func TestInvokeIdentity(t *testing.T) {
	machine := New(identityProgram())
	in := vec(t, 1, 2, 3)
	out, err := machine.InvokeEntry([]*tensor.Tensor{in})
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatal("identity should return the argument handle unchanged")
	}
	if got := machine.StackSize(); got != 2 {
		t.Fatalf("StackSize() = %d after invocation, want 2", got)
	}
}

func TestInvokePackedAdd(t *testing.T) {
	machine := New(addProgram())
	out, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, 1, 2, 3), vec(t, 10, 20, 30)})
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{11, 22, 33}
	got := out.Float32s()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result = %v, want %v", got, want)
		}
	}
}

func TestBranch(t *testing.T) {
	// main(c, a, b) = if c { a } else { b }
	prog := &bytecode.Program{
		Funcs: []*bytecode.Function{{
			Name:      "main",
			NumParams: 3,
			Instrs: []bytecode.Instr{
				bytecode.Push(0),
				bytecode.If(1, 3),
				bytecode.Push(1),
				bytecode.Ret(),
				bytecode.Push(2),
				bytecode.Ret(),
			},
		}},
	}
	a, b := vec(t, 1), vec(t, 2)
	for _, tc := range []struct {
		cond bool
		want *tensor.Tensor
	}{
		{true, a},
		{false, b},
	} {
		machine := New(prog)
		out, err := machine.InvokeEntry([]*tensor.Tensor{tensor.BoolScalarTensor(tc.cond), a, b})
		if err != nil {
			t.Fatalf("cond=%v: %v", tc.cond, err)
		}
		if out != tc.want {
			t.Fatalf("cond=%v picked the wrong branch", tc.cond)
		}
	}
}

func TestCrossFunctionInvoke(t *testing.T) {
	// main(x) = double(x); double(x) = x + x
	prog := &bytecode.Program{
		Funcs: []*bytecode.Function{
			{
				Name:      "main",
				NumParams: 1,
				Instrs: []bytecode.Instr{
					bytecode.Push(0),
					bytecode.Invoke(1),
					bytecode.Ret(),
				},
			},
			{
				Name:      "double",
				NumParams: 1,
				Instrs: []bytecode.Instr{
					bytecode.Push(0),
					bytecode.Push(0),
					bytecode.AllocTensor([]int64{3}, tensor.Float32),
					bytecode.InvokePacked(0, 3),
					bytecode.Ret(),
				},
			},
		},
		KernelNames: []string{"add"},
		Kernels:     []kernel.Kernel{addKernel},
	}
	machine := New(prog)
	out, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, 1, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{2, 4, 6}
	got := out.Float32s()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("result = %v, want %v", got, want)
		}
	}
	if got := machine.StackSize(); got != 2 {
		t.Fatalf("StackSize() = %d after nested call, want 2", got)
	}
}

func TestSuccessiveInvocations(t *testing.T) {
	machine := New(identityProgram())
	for i := 1; i <= 3; i++ {
		if _, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, float32(i))}); err != nil {
			t.Fatal(err)
		}
		if got := machine.StackSize(); got != 2*i {
			t.Fatalf("StackSize() = %d after %d invocations, want %d", got, i, 2*i)
		}
	}
}

func TestInvokeName(t *testing.T) {
	machine := New(identityProgram())
	if _, err := machine.InvokeName("main", []*tensor.Tensor{vec(t, 1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.InvokeName("absent", nil); err == nil {
		t.Fatal("InvokeName resolved an unknown function")
	}
}

func TestRuntimeErrorCodes(t *testing.T) {
	oneFunc := func(name string, numParams int, instrs ...bytecode.Instr) *bytecode.Program {
		return &bytecode.Program{Funcs: []*bytecode.Function{{Name: name, NumParams: numParams, Instrs: instrs}}}
	}
	trapProg := addProgram()
	trapProg.Kernels[0] = func([]*tensor.Tensor) error { return errors.New("device fault") }

	cases := []struct {
		name string
		prog *bytecode.Program
		args []*tensor.Tensor
		want Code
	}{
		{
			"push outside stack",
			oneFunc("main", 1, bytecode.Push(7), bytecode.Ret()),
			[]*tensor.Tensor{vec(t, 1)},
			CodeStackBounds,
		},
		{
			"non-bool condition",
			oneFunc("main", 1, bytecode.Push(0), bytecode.If(1, 1), bytecode.Ret()),
			[]*tensor.Tensor{vec(t, 1)},
			CodeTypeMismatch,
		},
		{
			"kernel trap",
			trapProg,
			[]*tensor.Tensor{vec(t, 1, 2, 3), vec(t, 4, 5, 6)},
			CodeKernelTrap,
		},
		{
			"negative alloc dim",
			oneFunc("main", 0, bytecode.AllocTensor([]int64{-2}, tensor.Float32), bytecode.Ret()),
			nil,
			CodeAlloc,
		},
		{
			"kernel index out of range",
			oneFunc("main", 0, bytecode.AllocTensor([]int64{1}, tensor.Float32), bytecode.InvokePacked(4, 1), bytecode.Ret()),
			nil,
			CodeBadProgram,
		},
		{
			"packed arity of zero",
			&bytecode.Program{
				Funcs: []*bytecode.Function{{
					Name:      "main",
					NumParams: 0,
					Instrs:    []bytecode.Instr{bytecode.InvokePacked(0, 0), bytecode.Ret()},
				}},
				KernelNames: []string{"add"},
				Kernels:     []kernel.Kernel{addKernel},
			},
			nil,
			CodeBadProgram,
		},
		{
			"invoke index out of range",
			oneFunc("main", 0, bytecode.Invoke(9), bytecode.Ret()),
			nil,
			CodeBadProgram,
		},
		{
			"pc runs off the end",
			oneFunc("main", 0, bytecode.AllocTensor([]int64{1}, tensor.Float32)),
			nil,
			CodeBadProgram,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			machine := New(tc.prog)
			_, err := machine.InvokeEntry(tc.args)
			var rerr *RuntimeError
			if !errors.As(err, &rerr) {
				t.Fatalf("InvokeEntry() = %v, want *RuntimeError", err)
			}
			if rerr.Code != tc.want {
				t.Fatalf("code = %v, want %v (%v)", rerr.Code, tc.want, rerr)
			}
			if rerr.Fn != "main" {
				t.Fatalf("Fn = %q, want main", rerr.Fn)
			}
		})
	}
}

func TestInvokeArgumentChecks(t *testing.T) {
	machine := New(identityProgram())
	var rerr *RuntimeError
	if _, err := machine.Invoke(5, nil); !errors.As(err, &rerr) || rerr.Code != CodeBadProgram {
		t.Fatalf("Invoke(5) = %v, want RT%d", err, CodeBadProgram)
	}
	if _, err := machine.InvokeEntry(nil); !errors.As(err, &rerr) || rerr.Code != CodeBadProgram {
		t.Fatalf("InvokeEntry with no args = %v, want RT%d", err, CodeBadProgram)
	}
}

func TestErrorUnwindsStacks(t *testing.T) {
	prog := &bytecode.Program{
		Funcs: []*bytecode.Function{
			{
				Name:      "main",
				NumParams: 1,
				Instrs:    []bytecode.Instr{bytecode.Push(0), bytecode.Push(0), bytecode.Invoke(1), bytecode.Ret()},
			},
			{
				Name:      "blow",
				NumParams: 2,
				Instrs:    []bytecode.Instr{bytecode.Push(40), bytecode.Ret()},
			},
		},
	}
	machine := New(prog)
	_, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, 1)})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("InvokeEntry() = %v, want *RuntimeError", err)
	}
	if rerr.Fn != "blow" || rerr.Code != CodeStackBounds {
		t.Fatalf("fault = %v, want stack bounds in blow", rerr)
	}
	if got := machine.StackSize(); got != 0 {
		t.Fatalf("StackSize() = %d after failed invocation, want 0", got)
	}
	if len(machine.frames) != 0 {
		t.Fatalf("%d live frames after failed invocation, want 0", len(machine.frames))
	}

	// The machine stays usable: rerun against a fixed callee.
	prog.Funcs[1].Instrs = []bytecode.Instr{bytecode.Push(0), bytecode.Ret()}
	if _, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, 1)}); err != nil {
		t.Fatalf("invocation after recovery: %v", err)
	}
}

func TestErrorBacktrace(t *testing.T) {
	trapProg := &bytecode.Program{
		Funcs: []*bytecode.Function{
			{
				Name:      "main",
				NumParams: 1,
				Instrs:    []bytecode.Instr{bytecode.Push(0), bytecode.Invoke(1), bytecode.Ret()},
			},
			{
				Name:      "boom",
				NumParams: 1,
				Instrs: []bytecode.Instr{
					bytecode.Push(0),
					bytecode.Push(0),
					bytecode.AllocTensor([]int64{1}, tensor.Float32),
					bytecode.InvokePacked(0, 3),
					bytecode.Ret(),
				},
			},
		},
		KernelNames: []string{"bad"},
		Kernels:     []kernel.Kernel{func([]*tensor.Tensor) error { return errors.New("nan poisoning") }},
	}
	machine := New(trapProg)
	_, err := machine.InvokeEntry([]*tensor.Tensor{vec(t, 1)})
	var rerr *RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("InvokeEntry() = %v, want *RuntimeError", err)
	}
	if len(rerr.Backtrace) != 2 {
		t.Fatalf("backtrace depth = %d, want 2:\n%s", len(rerr.Backtrace), rerr.BacktraceString())
	}
	if rerr.Backtrace[0].Fn != "boom" || rerr.Backtrace[1].Fn != "main" {
		t.Fatalf("backtrace = %s, want boom then main", rerr.BacktraceString())
	}
	if !strings.Contains(rerr.Error(), "RT3004") || !strings.Contains(rerr.Error(), "nan poisoning") {
		t.Fatalf("Error() = %q", rerr.Error())
	}
}
