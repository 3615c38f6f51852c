package ir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes a human-readable representation of a module, functions
// in sorted name order.
func DumpModule(w io.Writer, m *Module) {
	if w == nil || m == nil {
		return
	}
	names := m.Names()
	fmt.Fprintf(w, "funcs=%d\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "\nfn %s:\n", name)
		dumpFunc(w, m.Funcs[name])
	}
}

func dumpFunc(w io.Writer, fn *Func) {
	for i, p := range fn.Params {
		fmt.Fprintf(w, "  p%d: %s name=%s\n", i, p.Type, p.Name)
	}
	if fn.Primitive {
		fmt.Fprintf(w, "  primitive\n")
	}
	fmt.Fprintf(w, "  body: %s\n", ExprString(fn.Body))
}

// ExprString renders an expression on one line for dumps and trace events.
func ExprString(e *Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e *Expr) {
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case ExprVar:
		sb.WriteString(e.Var.Name)
	case ExprGlobal:
		sb.WriteByte('@')
		sb.WriteString(e.Global.Name)
	case ExprIntrinsic:
		sb.WriteByte('%')
		sb.WriteString(e.Intrinsic.Name)
	case ExprFunc:
		sb.WriteString("fn(")
		for i, p := range e.Fn.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.Name)
		}
		sb.WriteByte(')')
		if e.Fn.Primitive {
			sb.WriteString(" prim{")
		} else {
			sb.WriteString(" {")
		}
		writeExpr(sb, e.Fn.Body)
		sb.WriteByte('}')
	case ExprCall:
		writeExpr(sb, e.Call.Op)
		sb.WriteByte('(')
		for i, a := range e.Call.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeExpr(sb, a)
		}
		sb.WriteByte(')')
	case ExprLet:
		sb.WriteString("let ")
		sb.WriteString(e.Let.Name)
		sb.WriteString(" = ")
		writeExpr(sb, e.Let.Value)
		sb.WriteString("; ")
		writeExpr(sb, e.Let.Body)
	case ExprIf:
		sb.WriteString("if ")
		writeExpr(sb, e.If.Cond)
		sb.WriteString(" {")
		writeExpr(sb, e.If.Then)
		sb.WriteString("} else {")
		writeExpr(sb, e.If.Else)
		sb.WriteByte('}')
	default:
		fmt.Fprintf(sb, "<kind %d>", e.Kind)
	}
}
