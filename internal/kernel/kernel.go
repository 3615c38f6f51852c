// Package kernel defines the lower-and-link boundary between the compiler
// and native code generation. The compiler lowers each primitive call site
// to a Descriptor; after a module is fully compiled the descriptors are
// linked in bulk and resolved to invocable kernels by name.
package kernel

import (
	"fmt"

	"loom/internal/ir"
	"loom/internal/tensor"
)

// Kernel is an invocable native entry. Arguments are positional; the final
// argument is the pre-allocated output buffer, which the kernel fills in
// place. Nothing is returned through the calling convention.
type Kernel func(args []*tensor.Tensor) error

// Descriptor names one lowered primitive function prior to linking.
type Descriptor struct {
	Name string
	Fn   *ir.Func
}

// Linked is a callable module produced by a bulk link, exposing one kernel
// per descriptor by name.
type Linked interface {
	Kernel(name string) (Kernel, error)
}

// Backend lowers primitive functions for a single target and links the
// results. One lowering request yields exactly one descriptor.
type Backend interface {
	Lower(fn *ir.Func, target string) (Descriptor, error)
	Link(descs []Descriptor, target string) (Linked, error)
}

// For returns the backend registered for the target.
func For(target string) (Backend, error) {
	switch target {
	case "host", "":
		return NewHostBackend(), nil
	default:
		return nil, fmt.Errorf("kernel: no backend for target %q", target)
	}
}
