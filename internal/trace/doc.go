// Package trace provides leveled event tracing for the compile pipeline
// and the virtual machine.
//
// Events carry a Scope (driver, pass, function, instr) ordered from
// coarse to fine; the configured Level decides which scopes pass. Sinks
// include a line-oriented stream (text or NDJSON), an in-memory ring
// buffer, and a fan-out over several sinks. The nop tracer makes
// tracing free when disabled.
package trace
