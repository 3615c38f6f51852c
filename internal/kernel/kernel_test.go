package kernel

import (
	"strings"
	"testing"

	"loom/internal/ir"
	"loom/internal/tensor"
)

func f32(t *testing.T, vals ...float32) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromFloat32([]int64{int64(len(vals))}, vals)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

func i32(t *testing.T, vals ...int32) *tensor.Tensor {
	t.Helper()
	tt, err := tensor.FromInt32([]int64{int64(len(vals))}, vals)
	if err != nil {
		t.Fatal(err)
	}
	return tt
}

func TestIntrinsicsFloat32(t *testing.T) {
	a := f32(t, 1, 2, 3)
	b := f32(t, 10, 20, 30)
	cases := []struct {
		name string
		args []*tensor.Tensor
		want []float32
	}{
		{"add", []*tensor.Tensor{a, b}, []float32{11, 22, 33}},
		{"sub", []*tensor.Tensor{b, a}, []float32{9, 18, 27}},
		{"mul", []*tensor.Tensor{a, b}, []float32{10, 40, 90}},
		{"neg", []*tensor.Tensor{a}, []float32{-1, -2, -3}},
		{"identity", []*tensor.Tensor{a}, []float32{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := evalIntrinsic(tc.name, tc.args)
			if err != nil {
				t.Fatal(err)
			}
			got := out.Float32s()
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("%s = %v, want %v", tc.name, got, tc.want)
				}
			}
		})
	}
}

func TestIntrinsicsInt32(t *testing.T) {
	a := i32(t, 4, -2)
	b := i32(t, 3, 5)
	out, err := evalIntrinsic("add", []*tensor.Tensor{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Int32s(); got[0] != 7 || got[1] != 3 {
		t.Fatalf("add = %v, want [7 3]", got)
	}
	out, err = evalIntrinsic("neg", []*tensor.Tensor{a})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.Int32s(); got[0] != -4 || got[1] != 2 {
		t.Fatalf("neg = %v, want [-4 2]", got)
	}
}

func TestCompareIntrinsics(t *testing.T) {
	a := f32(t, 1, 5, 3)
	b := f32(t, 2, 5, 1)
	less, err := evalIntrinsic("less", []*tensor.Tensor{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if less.DType() != tensor.Bool {
		t.Fatalf("less produced %v, want bool", less.DType())
	}
	if got := less.Bools(); got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Fatalf("less = %v, want [1 0 0]", got)
	}
	eq, err := evalIntrinsic("equal", []*tensor.Tensor{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if got := eq.Bools(); got[0] != 0 || got[1] != 1 || got[2] != 0 {
		t.Fatalf("equal = %v, want [0 1 0]", got)
	}
}

func TestIntrinsicErrors(t *testing.T) {
	a := f32(t, 1, 2)
	cases := []struct {
		name string
		op   string
		args []*tensor.Tensor
		want string
	}{
		{"unknown op", "matmul", []*tensor.Tensor{a, a}, "unknown intrinsic"},
		{"unary arity", "neg", []*tensor.Tensor{a, a}, "takes 1 argument"},
		{"binary arity", "add", []*tensor.Tensor{a}, "takes 2 arguments"},
		{"shape mismatch", "add", []*tensor.Tensor{a, f32(t, 1, 2, 3)}, "operands mismatch"},
		{"dtype mismatch", "add", []*tensor.Tensor{a, i32(t, 1, 2)}, "operands mismatch"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := evalIntrinsic(tc.op, tc.args); err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("evalIntrinsic(%q) = %v, want error containing %q", tc.op, err, tc.want)
			}
		})
	}
}

func addPrim() *ir.Func {
	ty := ir.NewTensorType(tensor.Float32, 2)
	return ir.NewPrimitive(
		[]ir.Param{{Name: "a", Type: ty}, {Name: "b", Type: ty}},
		ty,
		ir.NewCall(ty, ir.NewIntrinsic("add"), ir.NewVar("a"), ir.NewVar("b")),
	)
}

func TestHostLowerLink(t *testing.T) {
	b := NewHostBackend()
	d1, err := b.Lower(addPrim(), "host")
	if err != nil {
		t.Fatal(err)
	}
	d2, err := b.Lower(addPrim(), "host")
	if err != nil {
		t.Fatal(err)
	}
	if d1.Name == d2.Name {
		t.Fatalf("Lower gave duplicate names %q", d1.Name)
	}
	mod, err := b.Link([]Descriptor{d1, d2}, "host")
	if err != nil {
		t.Fatal(err)
	}
	k, err := mod.Kernel(d1.Name)
	if err != nil {
		t.Fatal(err)
	}
	out, err := tensor.Empty([]int64{2}, tensor.Float32)
	if err != nil {
		t.Fatal(err)
	}
	if err := k([]*tensor.Tensor{f32(t, 1, 2), f32(t, 10, 20), out}); err != nil {
		t.Fatal(err)
	}
	if got := out.Float32s(); got[0] != 11 || got[1] != 22 {
		t.Fatalf("kernel output = %v, want [11 22]", got)
	}
}

func TestHostLowerRejects(t *testing.T) {
	b := NewHostBackend()
	if _, err := b.Lower(nil, "host"); err == nil {
		t.Fatal("Lower accepted nil function")
	}
	plain := ir.NewFunc(nil, ir.NewTensorType(tensor.Float32), ir.NewVar("x"))
	if _, err := b.Lower(plain, "host"); err == nil {
		t.Fatal("Lower accepted non-primitive function")
	}
	if _, err := b.Lower(addPrim(), "gpu"); err == nil {
		t.Fatal("Lower accepted foreign target")
	}
}

func TestLinkRejectsDuplicates(t *testing.T) {
	b := NewHostBackend()
	d, err := b.Lower(addPrim(), "host")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Link([]Descriptor{d, d}, "host"); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("Link(%q, %q) = %v, want duplicate error", d.Name, d.Name, err)
	}
	if _, err := b.Link([]Descriptor{{Name: "hollow"}}, "host"); err == nil {
		t.Fatal("Link accepted descriptor without a body")
	}
}

func TestKernelArgumentChecks(t *testing.T) {
	b := NewHostBackend()
	d, err := b.Lower(addPrim(), "host")
	if err != nil {
		t.Fatal(err)
	}
	mod, err := b.Link([]Descriptor{d}, "host")
	if err != nil {
		t.Fatal(err)
	}
	k, err := mod.Kernel(d.Name)
	if err != nil {
		t.Fatal(err)
	}
	if err := k([]*tensor.Tensor{f32(t, 1, 2)}); err == nil {
		t.Fatal("kernel accepted wrong argument count")
	}
	wrongOut, err := tensor.Empty([]int64{5}, tensor.Float32)
	if err != nil {
		t.Fatal(err)
	}
	if err := k([]*tensor.Tensor{f32(t, 1, 2), f32(t, 3, 4), wrongOut}); err == nil {
		t.Fatal("kernel accepted mismatched output buffer")
	}
	if _, err := mod.Kernel("prim_999"); err == nil {
		t.Fatal("Kernel resolved an unknown name")
	}
}

func TestForTarget(t *testing.T) {
	if _, err := For("host"); err != nil {
		t.Fatal(err)
	}
	if _, err := For(""); err != nil {
		t.Fatal(err)
	}
	if _, err := For("cuda"); err == nil {
		t.Fatal("For accepted unregistered target")
	}
}
