package ir

import (
	"errors"
	"fmt"
)

// CheckNormalized verifies the normalizer's invariant over a module: inside
// every non-primitive function, no call operator is a bare variable.
// Primitive function bodies are opaque and skipped.
func CheckNormalized(m *Module) error {
	var errs []error
	for _, name := range m.Names() {
		fn := m.Funcs[name]
		if fn.Primitive {
			continue
		}
		if err := checkExpr(fn.Body); err != nil {
			errs = append(errs, fmt.Errorf("function %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func checkExpr(e *Expr) error {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ExprVar, ExprGlobal, ExprIntrinsic:
		return nil
	case ExprFunc:
		if e.Fn.Primitive {
			return nil
		}
		return checkExpr(e.Fn.Body)
	case ExprLet:
		if err := checkExpr(e.Let.Value); err != nil {
			return err
		}
		return checkExpr(e.Let.Body)
	case ExprIf:
		for _, c := range []*Expr{e.If.Cond, e.If.Then, e.If.Else} {
			if err := checkExpr(c); err != nil {
				return err
			}
		}
		return nil
	case ExprCall:
		if e.Call.Op != nil && e.Call.Op.Kind == ExprVar {
			return fmt.Errorf("call operator is a bare variable %q", e.Call.Op.Var.Name)
		}
		if err := checkExpr(e.Call.Op); err != nil {
			return err
		}
		for _, a := range e.Call.Args {
			if err := checkExpr(a); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown expression kind %d", e.Kind)
	}
}
