package kernel

import (
	"fmt"
	"sync"

	"loom/internal/ir"
	"loom/internal/tensor"
)

// HostBackend lowers primitive functions to Go closures executing on the
// host. It stands behind the same narrow Lower/Link interface a real device
// backend would. Lower is safe to call from concurrent compile workers.
type HostBackend struct {
	mu   sync.Mutex
	next int
}

// NewHostBackend returns an empty host backend.
func NewHostBackend() *HostBackend {
	return &HostBackend{}
}

// Lower checks that fn is primitive and produces one descriptor for it.
// Descriptor names are unique per backend instance.
func (b *HostBackend) Lower(fn *ir.Func, target string) (Descriptor, error) {
	if target != "host" && target != "" {
		return Descriptor{}, fmt.Errorf("kernel: host backend cannot lower for target %q", target)
	}
	if fn == nil || !fn.Primitive {
		return Descriptor{}, fmt.Errorf("kernel: lowering request for non-primitive function")
	}
	b.mu.Lock()
	name := fmt.Sprintf("prim_%d", b.next)
	b.next++
	b.mu.Unlock()
	return Descriptor{Name: name, Fn: fn}, nil
}

// Link builds the callable module for the lowered descriptors.
func (b *HostBackend) Link(descs []Descriptor, target string) (Linked, error) {
	if target != "host" && target != "" {
		return nil, fmt.Errorf("kernel: host backend cannot link for target %q", target)
	}
	mod := hostModule{kernels: make(map[string]Kernel, len(descs))}
	for _, d := range descs {
		if d.Fn == nil {
			return nil, fmt.Errorf("kernel: descriptor %q has no function body", d.Name)
		}
		if _, ok := mod.kernels[d.Name]; ok {
			return nil, fmt.Errorf("kernel: duplicate descriptor name %q", d.Name)
		}
		mod.kernels[d.Name] = makeHostKernel(d.Fn)
	}
	return mod, nil
}

type hostModule struct {
	kernels map[string]Kernel
}

func (m hostModule) Kernel(name string) (Kernel, error) {
	k, ok := m.kernels[name]
	if !ok {
		return nil, fmt.Errorf("kernel: no kernel named %q in linked module", name)
	}
	return k, nil
}

// makeHostKernel compiles a primitive body to a closure. The closure takes
// the function's arguments followed by the output buffer and writes its
// result into that buffer.
func makeHostKernel(fn *ir.Func) Kernel {
	return func(args []*tensor.Tensor) error {
		if len(args) != len(fn.Params)+1 {
			return fmt.Errorf("kernel: got %d arguments, want %d plus output", len(args), len(fn.Params))
		}
		env := make(map[string]*tensor.Tensor, len(fn.Params))
		for i, p := range fn.Params {
			env[p.Name] = args[i]
		}
		res, err := evalPrimitive(fn.Body, env)
		if err != nil {
			return err
		}
		out := args[len(args)-1]
		if res.DType() != out.DType() || len(res.Data()) != len(out.Data()) {
			return fmt.Errorf("kernel: result %s does not fit output buffer %s", res, out)
		}
		copy(out.Data(), res.Data())
		return nil
	}
}

// evalPrimitive interprets the restricted primitive body form: variables,
// and calls whose operator is an intrinsic reference.
func evalPrimitive(e *ir.Expr, env map[string]*tensor.Tensor) (*tensor.Tensor, error) {
	switch e.Kind {
	case ir.ExprVar:
		t, ok := env[e.Var.Name]
		if !ok {
			return nil, fmt.Errorf("kernel: unbound variable %q in primitive body", e.Var.Name)
		}
		return t, nil
	case ir.ExprCall:
		op := e.Call.Op
		if op == nil || op.Kind != ir.ExprIntrinsic {
			return nil, fmt.Errorf("kernel: primitive body call operator must be an intrinsic, got %s", ir.ExprString(op))
		}
		args := make([]*tensor.Tensor, len(e.Call.Args))
		for i, a := range e.Call.Args {
			v, err := evalPrimitive(a, env)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
		return evalIntrinsic(op.Intrinsic.Name, args)
	default:
		return nil, fmt.Errorf("kernel: unsupported expression kind %v in primitive body", e.Kind)
	}
}
