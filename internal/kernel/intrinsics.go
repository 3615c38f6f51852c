package kernel

import (
	"fmt"

	"loom/internal/tensor"
)

// evalIntrinsic dispatches a builtin tensor operation.
func evalIntrinsic(name string, args []*tensor.Tensor) (*tensor.Tensor, error) {
	switch name {
	case "identity":
		return unary(name, args, func(t *tensor.Tensor) (*tensor.Tensor, error) {
			out, err := tensor.Empty(t.Shape(), t.DType())
			if err != nil {
				return nil, err
			}
			copy(out.Data(), t.Data())
			return out, nil
		})
	case "neg":
		return unary(name, args, func(t *tensor.Tensor) (*tensor.Tensor, error) {
			return elementwiseUnary(t, func(x float32) float32 { return -x }, func(x int32) int32 { return -x })
		})
	case "add":
		return binary(name, args, func(x, y float32) float32 { return x + y }, func(x, y int32) int32 { return x + y })
	case "sub":
		return binary(name, args, func(x, y float32) float32 { return x - y }, func(x, y int32) int32 { return x - y })
	case "mul":
		return binary(name, args, func(x, y float32) float32 { return x * y }, func(x, y int32) int32 { return x * y })
	case "less":
		return compare(name, args, func(x, y float32) bool { return x < y }, func(x, y int32) bool { return x < y })
	case "equal":
		return compare(name, args, func(x, y float32) bool { return x == y }, func(x, y int32) bool { return x == y })
	default:
		return nil, fmt.Errorf("kernel: unknown intrinsic %q", name)
	}
}

func unary(name string, args []*tensor.Tensor, f func(*tensor.Tensor) (*tensor.Tensor, error)) (*tensor.Tensor, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("kernel: intrinsic %q takes 1 argument, got %d", name, len(args))
	}
	return f(args[0])
}

func binary(name string, args []*tensor.Tensor, ff func(float32, float32) float32, fi func(int32, int32) int32) (*tensor.Tensor, error) {
	a, b, err := binaryArgs(name, args)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Empty(a.Shape(), a.DType())
	if err != nil {
		return nil, err
	}
	switch a.DType() {
	case tensor.Float32:
		xs, ys, os := a.Float32s(), b.Float32s(), out.Float32s()
		for i := range xs {
			os[i] = ff(xs[i], ys[i])
		}
	case tensor.Int32:
		xs, ys, os := a.Int32s(), b.Int32s(), out.Int32s()
		for i := range xs {
			os[i] = fi(xs[i], ys[i])
		}
	default:
		return nil, fmt.Errorf("kernel: intrinsic %q not implemented for %v", name, a.DType())
	}
	return out, nil
}

func compare(name string, args []*tensor.Tensor, ff func(float32, float32) bool, fi func(int32, int32) bool) (*tensor.Tensor, error) {
	a, b, err := binaryArgs(name, args)
	if err != nil {
		return nil, err
	}
	out, err := tensor.Empty(a.Shape(), tensor.Bool)
	if err != nil {
		return nil, err
	}
	os := out.Bools()
	switch a.DType() {
	case tensor.Float32:
		xs, ys := a.Float32s(), b.Float32s()
		for i := range xs {
			os[i] = boolByte(ff(xs[i], ys[i]))
		}
	case tensor.Int32:
		xs, ys := a.Int32s(), b.Int32s()
		for i := range xs {
			os[i] = boolByte(fi(xs[i], ys[i]))
		}
	default:
		return nil, fmt.Errorf("kernel: intrinsic %q not implemented for %v", name, a.DType())
	}
	return out, nil
}

func binaryArgs(name string, args []*tensor.Tensor) (*tensor.Tensor, *tensor.Tensor, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("kernel: intrinsic %q takes 2 arguments, got %d", name, len(args))
	}
	a, b := args[0], args[1]
	if a.DType() != b.DType() || !a.SameShape(b) {
		return nil, nil, fmt.Errorf("kernel: intrinsic %q operands mismatch: %s vs %s", name, a, b)
	}
	return a, b, nil
}

func elementwiseUnary(t *tensor.Tensor, ff func(float32) float32, fi func(int32) int32) (*tensor.Tensor, error) {
	out, err := tensor.Empty(t.Shape(), t.DType())
	if err != nil {
		return nil, err
	}
	switch t.DType() {
	case tensor.Float32:
		xs, os := t.Float32s(), out.Float32s()
		for i := range xs {
			os[i] = ff(xs[i])
		}
	case tensor.Int32:
		xs, os := t.Int32s(), out.Int32s()
		for i := range xs {
			os[i] = fi(xs[i])
		}
	default:
		return nil, fmt.Errorf("kernel: unary intrinsic not implemented for %v", t.DType())
	}
	return out, nil
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
