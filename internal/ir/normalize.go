package ir

// Normalize rewrites every function in the module so that each call's
// operator is syntactically a primitive function literal or a global
// function reference, never a chain of let-bound aliases. Let-bindings whose
// only use was an inlined call operator are dropped afterwards.
//
// Normalization is total: it never fails, it only leaves a call operator
// untouched when the operator does not resolve to a primitive or global
// (a regular higher-order call, which the compiler later rejects).
// Functions are processed in sorted name order; binding resolution tables
// are per function and never shared across functions.
func Normalize(m *Module) *Module {
	out := make(map[string]*Func, len(m.Funcs))
	for _, name := range m.Names() {
		out[name] = NormalizeFunc(m.Funcs[name])
	}
	return NewModule(out)
}

// NormalizeFunc rewrites a single function body. Primitive functions are
// returned unchanged: they are leaves for this pass.
func NormalizeFunc(fn *Func) *Func {
	if fn.Primitive {
		return fn
	}
	in := &inliner{bindings: make(map[string]*Expr)}
	body := eliminateDeadLets(in.rewrite(fn.Body))
	return &Func{
		Params: fn.Params,
		Body:   body,
		Ret:    fn.Ret,
	}
}

// inliner records the rewritten right-hand side of each let-binding so call
// operators can be resolved through chains of variable aliases. The table is
// a lookup aid only; rewriting is structural recursion, not substitution.
type inliner struct {
	bindings map[string]*Expr
}

func (in *inliner) rewrite(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprVar, ExprGlobal, ExprIntrinsic:
		return e

	case ExprFunc:
		if e.Fn.Primitive {
			// Primitive bodies are opaque to normalization.
			return e
		}
		// Parameter names shadow outer let-bindings for the literal's body.
		restore := make([]func(), 0, len(e.Fn.Params))
		for _, p := range e.Fn.Params {
			restore = append(restore, in.mask(p.Name, nil, false))
		}
		body := in.rewrite(e.Fn.Body)
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
		if body == e.Fn.Body {
			return e
		}
		fn := &Func{Params: e.Fn.Params, Body: body, Ret: e.Fn.Ret}
		return &Expr{Kind: ExprFunc, Type: e.Type, Fn: fn}

	case ExprLet:
		value := in.rewrite(e.Let.Value)
		restore := in.mask(e.Let.Name, value, true)
		body := in.rewrite(e.Let.Body)
		restore()
		if value == e.Let.Value && body == e.Let.Body {
			return e
		}
		return &Expr{Kind: ExprLet, Type: e.Type, Let: LetExpr{Name: e.Let.Name, Value: value, Body: body}}

	case ExprIf:
		cond := in.rewrite(e.If.Cond)
		then := in.rewrite(e.If.Then)
		els := in.rewrite(e.If.Else)
		if cond == e.If.Cond && then == e.If.Then && els == e.If.Else {
			return e
		}
		return &Expr{Kind: ExprIf, Type: e.Type, If: IfExpr{Cond: cond, Then: then, Else: els}}

	case ExprCall:
		op := in.resolveOperator(e.Call.Op)
		args := rewriteAll(in, e.Call.Args)
		if op == e.Call.Op && sameExprs(args, e.Call.Args) {
			return e
		}
		return &Expr{Kind: ExprCall, Type: e.Type, Call: CallExpr{Op: op, Args: args}}

	default:
		return e
	}
}

// mask installs (or, when bind is false, removes) the binding for name and
// returns a closure restoring the table to its prior state. Bindings are
// lexically scoped: an entry must not outlive its let body, and a function
// literal's parameters hide outer bindings of the same name.
func (in *inliner) mask(name string, value *Expr, bind bool) func() {
	prev, shadowed := in.bindings[name]
	if bind {
		in.bindings[name] = value
	} else {
		delete(in.bindings, name)
	}
	return func() {
		if shadowed {
			in.bindings[name] = prev
		} else {
			delete(in.bindings, name)
		}
	}
}

// resolveOperator collapses a chain of variable references through the
// binding table. If the chain ends at a primitive function literal or a
// global reference, that expression becomes the operator (structural
// sharing, no copy). Anything else leaves the operator rewritten in place.
func (in *inliner) resolveOperator(op *Expr) *Expr {
	resolved := op
	for resolved != nil && resolved.Kind == ExprVar {
		next, ok := in.bindings[resolved.Var.Name]
		if !ok {
			return in.rewrite(op)
		}
		resolved = next
	}
	if resolved == nil {
		return in.rewrite(op)
	}
	switch {
	case resolved.Kind == ExprFunc && resolved.Fn.Primitive:
		return resolved
	case resolved.Kind == ExprGlobal:
		return resolved
	default:
		return in.rewrite(op)
	}
}

func rewriteAll(in *inliner, exprs []*Expr) []*Expr {
	out := make([]*Expr, len(exprs))
	for i, e := range exprs {
		out[i] = in.rewrite(e)
	}
	return out
}

func sameExprs(a, b []*Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
