// Package demo holds small built-in modules for exercising the pipeline
// from the command line. Modules are constructed in Go because the IR has
// no surface syntax; a frontend would normally hand them over already
// typed.
package demo

import (
	"fmt"
	"sort"

	"loom/internal/ir"
	"loom/internal/tensor"
)

// Demo is one runnable example: a module builder plus matching inputs for
// its entry function.
type Demo struct {
	Name     string
	Synopsis string
	Build    func() *ir.Module
	Inputs   func() ([]*tensor.Tensor, error)
}

var registry = map[string]Demo{
	"double":   doubleDemo(),
	"maxpair":  maxpairDemo(),
	"pipeline": pipelineDemo(),
}

// Names lists the registered demos in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a demo by name.
func Lookup(name string) (Demo, error) {
	d, ok := registry[name]
	if !ok {
		return Demo{}, fmt.Errorf("unknown demo %q (have %v)", name, Names())
	}
	return d, nil
}

// doubleDemo: main(x: f32[4]) = let f = prim(a, b => a + b) in f(x, x).
// The let-bound primitive exercises the normalizer's inlining.
func doubleDemo() Demo {
	vec := ir.NewTensorType(tensor.Float32, 4)
	build := func() *ir.Module {
		add := ir.NewPrimitive(
			[]ir.Param{{Name: "a", Type: vec}, {Name: "b", Type: vec}},
			vec,
			ir.NewCall(vec, ir.NewIntrinsic("add"), ir.NewVar("a"), ir.NewVar("b")),
		)
		main := ir.NewFunc(
			[]ir.Param{{Name: "x", Type: vec}},
			vec,
			ir.NewLet("f", ir.NewFuncLit(add),
				ir.NewCall(vec, ir.NewVar("f"), ir.NewVar("x"), ir.NewVar("x"))),
		)
		return ir.NewModule(map[string]*ir.Func{"main": main})
	}
	inputs := func() ([]*tensor.Tensor, error) {
		x, err := tensor.FromFloat32([]int64{4}, []float32{1, 2, 3, 4})
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{x}, nil
	}
	return Demo{Name: "double", Synopsis: "elementwise x + x through an inlined primitive", Build: build, Inputs: inputs}
}

// maxpairDemo: main(a: f32[], b: f32[]) = if a < b { b } else { a }.
// A scalar comparison driving the conditional instruction.
func maxpairDemo() Demo {
	scalar := ir.NewTensorType(tensor.Float32)
	boolScalar := ir.NewTensorType(tensor.Bool)
	build := func() *ir.Module {
		less := ir.NewPrimitive(
			[]ir.Param{{Name: "a", Type: scalar}, {Name: "b", Type: scalar}},
			boolScalar,
			ir.NewCall(boolScalar, ir.NewIntrinsic("less"), ir.NewVar("a"), ir.NewVar("b")),
		)
		main := ir.NewFunc(
			[]ir.Param{{Name: "a", Type: scalar}, {Name: "b", Type: scalar}},
			scalar,
			ir.NewIf(
				ir.NewCall(boolScalar, ir.NewFuncLit(less), ir.NewVar("a"), ir.NewVar("b")),
				ir.NewVar("b"),
				ir.NewVar("a"),
			),
		)
		return ir.NewModule(map[string]*ir.Func{"main": main})
	}
	inputs := func() ([]*tensor.Tensor, error) {
		a, err := tensor.FromFloat32(nil, []float32{2.5})
		if err != nil {
			return nil, err
		}
		b, err := tensor.FromFloat32(nil, []float32{7.5})
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{a, b}, nil
	}
	return Demo{Name: "maxpair", Synopsis: "scalar max via a conditional", Build: build, Inputs: inputs}
}

// pipelineDemo: square(x) = x * x; main(x) = square(x) + x. A cross-function
// call followed by a primitive call.
func pipelineDemo() Demo {
	vec := ir.NewTensorType(tensor.Float32, 3)
	build := func() *ir.Module {
		mul := ir.NewPrimitive(
			[]ir.Param{{Name: "a", Type: vec}, {Name: "b", Type: vec}},
			vec,
			ir.NewCall(vec, ir.NewIntrinsic("mul"), ir.NewVar("a"), ir.NewVar("b")),
		)
		square := ir.NewFunc(
			[]ir.Param{{Name: "x", Type: vec}},
			vec,
			ir.NewCall(vec, ir.NewFuncLit(mul), ir.NewVar("x"), ir.NewVar("x")),
		)
		add := ir.NewPrimitive(
			[]ir.Param{{Name: "a", Type: vec}, {Name: "b", Type: vec}},
			vec,
			ir.NewCall(vec, ir.NewIntrinsic("add"), ir.NewVar("a"), ir.NewVar("b")),
		)
		main := ir.NewFunc(
			[]ir.Param{{Name: "x", Type: vec}},
			vec,
			ir.NewCall(vec, ir.NewFuncLit(add),
				ir.NewCall(vec, ir.NewGlobal("square"), ir.NewVar("x")),
				ir.NewVar("x")),
		)
		return ir.NewModule(map[string]*ir.Func{"main": main, "square": square})
	}
	inputs := func() ([]*tensor.Tensor, error) {
		x, err := tensor.FromFloat32([]int64{3}, []float32{1, 2, 3})
		if err != nil {
			return nil, err
		}
		return []*tensor.Tensor{x}, nil
	}
	return Demo{Name: "pipeline", Synopsis: "cross-function call feeding a primitive", Build: build, Inputs: inputs}
}
