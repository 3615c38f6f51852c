package ir

import "slices"

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type *TensorType
}

// Func is an IR function: ordered parameters, a body expression, a declared
// return type, and a flag marking it primitive. Primitive functions are
// leaves: their bodies are restricted to intrinsic operations, are never
// rewritten by the normalizer, and are lowered whole to a single kernel.
type Func struct {
	Params    []Param
	Body      *Expr
	Ret       *TensorType
	Primitive bool
}

// NewFunc builds a non-primitive function.
func NewFunc(params []Param, ret *TensorType, body *Expr) *Func {
	return &Func{Params: params, Body: body, Ret: ret}
}

// NewPrimitive builds a primitive function eligible for kernel lowering.
func NewPrimitive(params []Param, ret *TensorType, body *Expr) *Func {
	return &Func{Params: params, Body: body, Ret: ret, Primitive: true}
}

// Module maps global function names to IR functions. The caller owns the
// map; passes return updated modules with the same keys rather than
// mutating in place.
type Module struct {
	Funcs map[string]*Func
}

// NewModule builds a module over the given functions.
func NewModule(funcs map[string]*Func) *Module {
	if funcs == nil {
		funcs = make(map[string]*Func)
	}
	return &Module{Funcs: funcs}
}

// Names returns the function names in sorted order for deterministic walks.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.Funcs))
	for name := range m.Funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
