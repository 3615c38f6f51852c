package ir

// eliminateDeadLets drops let-bindings whose bound variable is unreferenced
// in the rewritten let body. After the normalizer rewrites a call operator
// from an alias to the primitive literal itself, the alias binding typically
// has no remaining uses and is removed here.
//
// Use counting is by name, which over-approximates in the presence of
// shadowing: a shadowed outer binding may be retained even when dead. That
// keeps the pass conservative rather than incorrect.
func eliminateDeadLets(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprVar, ExprGlobal, ExprIntrinsic:
		return e

	case ExprFunc:
		if e.Fn.Primitive {
			return e
		}
		body := eliminateDeadLets(e.Fn.Body)
		if body == e.Fn.Body {
			return e
		}
		fn := &Func{Params: e.Fn.Params, Body: body, Ret: e.Fn.Ret}
		return &Expr{Kind: ExprFunc, Type: e.Type, Fn: fn}

	case ExprLet:
		body := eliminateDeadLets(e.Let.Body)
		if countUses(body, e.Let.Name) == 0 {
			return body
		}
		value := eliminateDeadLets(e.Let.Value)
		if value == e.Let.Value && body == e.Let.Body {
			return e
		}
		return &Expr{Kind: ExprLet, Type: e.Type, Let: LetExpr{Name: e.Let.Name, Value: value, Body: body}}

	case ExprIf:
		cond := eliminateDeadLets(e.If.Cond)
		then := eliminateDeadLets(e.If.Then)
		els := eliminateDeadLets(e.If.Else)
		if cond == e.If.Cond && then == e.If.Then && els == e.If.Else {
			return e
		}
		return &Expr{Kind: ExprIf, Type: e.Type, If: IfExpr{Cond: cond, Then: then, Else: els}}

	case ExprCall:
		op := eliminateDeadLets(e.Call.Op)
		args := make([]*Expr, len(e.Call.Args))
		for i, a := range e.Call.Args {
			args[i] = eliminateDeadLets(a)
		}
		if op == e.Call.Op && sameExprs(args, e.Call.Args) {
			return e
		}
		return &Expr{Kind: ExprCall, Type: e.Type, Call: CallExpr{Op: op, Args: args}}

	default:
		return e
	}
}

// countUses counts references to name inside e. Primitive function literals
// are opaque and contribute nothing.
func countUses(e *Expr, name string) int {
	if e == nil {
		return 0
	}
	switch e.Kind {
	case ExprVar:
		if e.Var.Name == name {
			return 1
		}
		return 0
	case ExprGlobal, ExprIntrinsic:
		return 0
	case ExprFunc:
		if e.Fn.Primitive {
			return 0
		}
		for _, p := range e.Fn.Params {
			if p.Name == name {
				// Parameter shadows the binding.
				return 0
			}
		}
		return countUses(e.Fn.Body, name)
	case ExprLet:
		n := countUses(e.Let.Value, name)
		if e.Let.Name != name {
			n += countUses(e.Let.Body, name)
		}
		return n
	case ExprIf:
		return countUses(e.If.Cond, name) + countUses(e.If.Then, name) + countUses(e.If.Else, name)
	case ExprCall:
		n := countUses(e.Call.Op, name)
		for _, a := range e.Call.Args {
			n += countUses(a, name)
		}
		return n
	default:
		return 0
	}
}
