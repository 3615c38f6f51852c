// Package compiler translates normalized IR functions into linear bytecode.
// Each top-level function is compiled by a fresh context value; there is no
// shared mutable compiler state.
package compiler

import (
	"loom/internal/bytecode"
	"loom/internal/ir"
	"loom/internal/kernel"
)

// Result pairs one compiled function with the kernel lowering requests its
// call sites produced. Kernel indices inside Result.Func are local to the
// request list; CompileModule rebases them onto the program's flat table.
type Result struct {
	Func     *bytecode.Function
	Requests []kernel.Descriptor
}

// fnCompiler is the per-function compilation context.
type fnCompiler struct {
	opts     Options
	backend  kernel.Backend
	funcIdx  map[string]int
	instrs   []bytecode.Instr
	slots    map[string]int
	nextSlot int
	seenFunc bool
	requests []kernel.Descriptor
}

// CompileFunc compiles a single function body against the module's function
// index table. The body must satisfy the normalizer's invariant: any call
// operator that is neither a primitive literal nor a global reference is an
// unsupported construct.
func CompileFunc(name string, fn *ir.Func, funcIdx map[string]int, backend kernel.Backend, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	c := &fnCompiler{
		opts:    opts,
		backend: backend,
		funcIdx: funcIdx,
		slots:   make(map[string]int),
	}
	if err := c.compileEntry(fn); err != nil {
		err.Fn = name
		return nil, err
	}
	c.emit(bytecode.Ret())
	return &Result{
		Func: &bytecode.Function{
			Name:      name,
			NumParams: len(fn.Params),
			Instrs:    c.instrs,
		},
		Requests: c.requests,
	}, nil
}

func (c *fnCompiler) emit(in bytecode.Instr) {
	c.instrs = append(c.instrs, in)
}

// compileEntry handles the single top-level function: parameters take
// increasing stack slots starting at zero, then the body is compiled in
// tail position.
func (c *fnCompiler) compileEntry(fn *ir.Func) *Error {
	if c.seenFunc {
		return compileErr(CodeNestedFunction, "function revisited during compilation")
	}
	c.seenFunc = true
	for _, p := range fn.Params {
		c.slots[p.Name] = c.nextSlot
		c.nextSlot++
	}
	return c.compile(fn.Body, true)
}

// compile emits code leaving the expression's value on top of the stack.
// tail marks expressions whose value becomes the function result; only
// conditionals care, because their branches terminate with ret.
func (c *fnCompiler) compile(e *ir.Expr, tail bool) *Error {
	if e == nil {
		return compileErr(CodeUnsupportedConstruct, "empty expression")
	}
	switch e.Kind {
	case ir.ExprVar:
		slot, ok := c.slots[e.Var.Name]
		if !ok {
			return compileErr(CodeUnsupportedConstruct, "reference to unbound variable %q", e.Var.Name)
		}
		c.emit(bytecode.Push(slot))
		return nil

	case ir.ExprIf:
		return c.compileIf(e, tail)

	case ir.ExprCall:
		return c.compileCall(e)

	case ir.ExprFunc:
		return compileErr(CodeNestedFunction, "function literal outside call position")

	case ir.ExprLet:
		return compileErr(CodeUnsupportedConstruct, "let-binding %q survived normalization", e.Let.Name)

	case ir.ExprGlobal:
		return compileErr(CodeUnsupportedConstruct, "global reference @%s outside call position", e.Global.Name)

	case ir.ExprIntrinsic:
		return compileErr(CodeUnsupportedConstruct, "intrinsic %%%s outside a primitive body", e.Intrinsic.Name)

	default:
		return compileErr(CodeUnsupportedConstruct, "unknown expression kind %v", e.Kind)
	}
}

// compileIf compiles a conditional with the emit-then-patch strategy: the
// placeholder's true offset is fixed at 1 (fall through into the true
// branch), the false offset is the instruction count the true branch
// occupies, including its terminating ret, so the false path jumps over it.
//
// Conditionals are supported in tail position only: with a closed
// instruction set there is no unconditional jump, so the true branch ends
// the invocation with ret rather than jumping past the false branch.
func (c *fnCompiler) compileIf(e *ir.Expr, tail bool) *Error {
	if !tail {
		return compileErr(CodeUnsupportedConstruct, "conditional outside tail position")
	}
	if err := c.compile(e.If.Cond, false); err != nil {
		return err
	}
	afterCond := len(c.instrs)
	c.emit(bytecode.If(0, 0))
	if err := c.compile(e.If.Then, true); err != nil {
		return err
	}
	c.emit(bytecode.Ret())
	afterTrue := len(c.instrs)
	if err := c.compile(e.If.Else, true); err != nil {
		return err
	}
	c.instrs[afterCond].If.TrueOffset = 1
	c.instrs[afterCond].If.FalseOffset = afterTrue - afterCond
	return nil
}

func (c *fnCompiler) compileCall(e *ir.Expr) *Error {
	op := e.Call.Op
	if op == nil {
		return compileErr(CodeUnsupportedConstruct, "call without operator")
	}
	switch {
	case op.Kind == ir.ExprFunc && op.Fn.Primitive:
		return c.compilePrimitiveCall(e)
	case op.Kind == ir.ExprGlobal:
		return c.compileGlobalCall(e)
	case op.Kind == ir.ExprFunc:
		return compileErr(CodeUnsupportedConstruct, "call target is a non-primitive function literal")
	default:
		return compileErr(CodeUnsupportedConstruct, "call operator %s is not a primitive literal or global reference", ir.ExprString(op))
	}
}

// compilePrimitiveCall emits the argument pushes, allocates the result
// tensor from the call's checked type, requests kernel lowering for the
// primitive, and emits the packed invocation. Arity counts the parameters
// plus the output slot appended as the kernel's final argument.
func (c *fnCompiler) compilePrimitiveCall(e *ir.Expr) *Error {
	prim := e.Call.Op.Fn
	if len(e.Call.Args) != len(prim.Params) {
		return compileErr(CodeUnsupportedConstruct, "primitive call has %d arguments, want %d", len(e.Call.Args), len(prim.Params))
	}
	arity := len(prim.Params) + 1
	if arity > c.opts.MaxArity {
		return compileErr(CodeArityBound, "packed call arity %d exceeds bound %d", arity, c.opts.MaxArity)
	}
	for _, a := range e.Call.Args {
		if err := c.compile(a, false); err != nil {
			return err
		}
	}
	if err := c.emitResultAlloc(e); err != nil {
		return err
	}
	desc, err := c.backend.Lower(prim, c.opts.Target)
	if err != nil {
		return compileErr(CodeLowering, "lowering %s: %v", ir.ExprString(e.Call.Op), err)
	}
	kernelIdx := len(c.requests)
	c.requests = append(c.requests, desc)
	c.emit(bytecode.InvokePacked(kernelIdx, arity))
	return nil
}

// compileGlobalCall emits a call to another compiled function: the
// arguments in order, then invoke by function index. The callee's ret
// relocates its result into the first argument's slot and drops the rest,
// so the sequence nets one value like any other expression.
func (c *fnCompiler) compileGlobalCall(e *ir.Expr) *Error {
	name := e.Call.Op.Global.Name
	idx, ok := c.funcIdx[name]
	if !ok {
		return compileErr(CodeUnknownGlobal, "call to unknown global @%s", name)
	}
	for _, a := range e.Call.Args {
		if err := c.compile(a, false); err != nil {
			return err
		}
	}
	c.emit(bytecode.Invoke(idx))
	return nil
}

// emitResultAlloc emits AllocTensor for the call's checked result type.
func (c *fnCompiler) emitResultAlloc(e *ir.Expr) *Error {
	if e.Type == nil {
		return compileErr(CodeUntypedCall, "call expression has no checked tensor type")
	}
	c.emit(bytecode.AllocTensor(e.Type.Shape, e.Type.DType))
	return nil
}
