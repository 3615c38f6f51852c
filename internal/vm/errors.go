package vm

import (
	"fmt"
	"strings"
)

// Code identifies the type of runtime failure.
type Code int

// Stable runtime error codes - do not change values.
const (
	CodeBadProgram   Code = 3001 // RT3001: malformed or inconsistent program
	CodeStackBounds  Code = 3002 // RT3002: stack access outside the live region
	CodeTypeMismatch Code = 3003 // RT3003: value has the wrong runtime type
	CodeKernelTrap   Code = 3004 // RT3004: kernel reported a failure
	CodeAlloc        Code = 3005 // RT3005: tensor allocation failed
)

// String returns the code as "RT3001" format.
func (c Code) String() string {
	return fmt.Sprintf("RT%d", c)
}

// BacktraceEntry is one live activation at the point of failure, innermost
// first.
type BacktraceEntry struct {
	Fn string
	PC int
}

// RuntimeError is a typed execution failure. Faults surface as values so a
// host embedding the machine can inspect the code and backtrace and keep
// running; the stacks are rewound by Invoke before the error is returned.
type RuntimeError struct {
	Code      Code
	Fn        string // function executing at the fault
	PC        int
	Message   string
	Backtrace []BacktraceEntry
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime %s in %s at pc %d: %s", e.Code, e.Fn, e.PC, e.Message)
}

// BacktraceString renders the backtrace one frame per line, innermost
// first.
func (e *RuntimeError) BacktraceString() string {
	var b strings.Builder
	for i, fr := range e.Backtrace {
		fmt.Fprintf(&b, "#%d %s pc=%d\n", i, fr.Fn, fr.PC)
	}
	return b.String()
}

// errorBuilder snapshots VM state into runtime errors. Capturing happens at
// the fault site, before Invoke rewinds the stacks.
type errorBuilder struct {
	vm *VM
}

func (b errorBuilder) makeError(code Code, format string, args ...any) *RuntimeError {
	vm := b.vm
	e := &RuntimeError{
		Code:    code,
		Fn:      vm.funcName(vm.fnIndex),
		PC:      vm.pc,
		Message: fmt.Sprintf(format, args...),
	}
	e.Backtrace = append(e.Backtrace, BacktraceEntry{Fn: e.Fn, PC: vm.pc})
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := vm.frames[i]
		if fr.FuncIndex < 0 {
			// Frame pushed by a top-level invocation; the machine was idle
			// beneath it.
			break
		}
		e.Backtrace = append(e.Backtrace, BacktraceEntry{Fn: vm.funcName(fr.FuncIndex), PC: fr.RetPC})
	}
	return e
}
