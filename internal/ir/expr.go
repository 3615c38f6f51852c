package ir

// ExprKind enumerates IR expression kinds.
type ExprKind uint8

const (
	// ExprVar references a let- or parameter-bound variable by name.
	ExprVar ExprKind = iota + 1
	// ExprGlobal references a module-level function by name.
	ExprGlobal
	// ExprIntrinsic references a builtin tensor operation. Intrinsic
	// references appear only inside primitive function bodies, which the
	// normalizer and compiler treat as opaque.
	ExprIntrinsic
	// ExprFunc is a function literal.
	ExprFunc
	// ExprCall applies an operator expression to argument expressions.
	ExprCall
	// ExprLet binds a value to a name inside a body expression.
	ExprLet
	// ExprIf is a conditional over a boolean scalar tensor.
	ExprIf
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprVar:
		return "Var"
	case ExprGlobal:
		return "Global"
	case ExprIntrinsic:
		return "Intrinsic"
	case ExprFunc:
		return "Func"
	case ExprCall:
		return "Call"
	case ExprLet:
		return "Let"
	case ExprIf:
		return "If"
	default:
		return "Unknown"
	}
}

// Expr is an IR expression. The checked tensor type is populated by the
// external frontend before the expression reaches this package; the compiler
// relies on it when sizing result buffers.
type Expr struct {
	Kind ExprKind
	Type *TensorType

	Var       VarExpr
	Global    GlobalExpr
	Intrinsic IntrinsicExpr
	Fn        *Func
	Call      CallExpr
	Let       LetExpr
	If        IfExpr
}

// VarExpr references a bound variable.
type VarExpr struct {
	Name string
}

// GlobalExpr references a module-level function.
type GlobalExpr struct {
	Name string
}

// IntrinsicExpr references a builtin tensor operation by name.
type IntrinsicExpr struct {
	Name string
}

// CallExpr applies Op to Args.
type CallExpr struct {
	Op   *Expr
	Args []*Expr
}

// LetExpr binds Value to Name within Body.
type LetExpr struct {
	Name  string
	Value *Expr
	Body  *Expr
}

// IfExpr selects Then or Else on a boolean scalar condition.
type IfExpr struct {
	Cond *Expr
	Then *Expr
	Else *Expr
}

// NewVar builds a variable reference.
func NewVar(name string) *Expr {
	return &Expr{Kind: ExprVar, Var: VarExpr{Name: name}}
}

// NewGlobal builds a global function reference.
func NewGlobal(name string) *Expr {
	return &Expr{Kind: ExprGlobal, Global: GlobalExpr{Name: name}}
}

// NewIntrinsic builds an intrinsic operation reference.
func NewIntrinsic(name string) *Expr {
	return &Expr{Kind: ExprIntrinsic, Intrinsic: IntrinsicExpr{Name: name}}
}

// NewFuncLit wraps a function as a literal expression.
func NewFuncLit(fn *Func) *Expr {
	return &Expr{Kind: ExprFunc, Fn: fn}
}

// NewCall builds a call with the given checked result type.
func NewCall(ty *TensorType, op *Expr, args ...*Expr) *Expr {
	return &Expr{Kind: ExprCall, Type: ty, Call: CallExpr{Op: op, Args: args}}
}

// NewLet binds value to name within body.
func NewLet(name string, value, body *Expr) *Expr {
	return &Expr{Kind: ExprLet, Let: LetExpr{Name: name, Value: value, Body: body}}
}

// NewIf builds a conditional expression.
func NewIf(cond, then, els *Expr) *Expr {
	return &Expr{Kind: ExprIf, If: IfExpr{Cond: cond, Then: then, Else: els}}
}
