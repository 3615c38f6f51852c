package compiler

import "fmt"

// Code identifies the type of compile failure.
type Code int

// Stable compile error codes - do not change values.
const (
	CodeUnsupportedConstruct Code = 2001 // CE2001: expression form outside the compiled subset
	CodeNestedFunction       Code = 2002 // CE2002: function literal below the top level
	CodeArityBound           Code = 2003 // CE2003: packed call arity above the configured bound
	CodeUntypedCall          Code = 2004 // CE2004: call expression without a checked tensor type
	CodeUnknownGlobal        Code = 2005 // CE2005: call to a global absent from the module
	CodeLowering             Code = 2006 // CE2006: kernel lowering failed
)

// String returns the code as "CE2001" format.
func (c Code) String() string {
	return fmt.Sprintf("CE%d", c)
}

// Error is a typed compile failure returned to the caller instead of
// aborting; it always prevents producing a program.
type Error struct {
	Code    Code
	Fn      string // enclosing top-level function, when known
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Fn != "" {
		return fmt.Sprintf("compile %s in %s: %s", e.Code, e.Fn, e.Message)
	}
	return fmt.Sprintf("compile %s: %s", e.Code, e.Message)
}

func compileErr(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
