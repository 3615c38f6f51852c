// Package driver orchestrates the compile pipeline: normalization, the
// normalized-form check, parallel per-function compilation, program
// assembly, and the optional disk cache for compiled programs.
package driver

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"loom/internal/bytecode"
	"loom/internal/compiler"
	"loom/internal/ir"
	"loom/internal/kernel"
	"loom/internal/trace"
)

// Options configures one pipeline run.
type Options struct {
	// Target selects the kernel backend. Empty means host.
	Target string
	// MaxArity bounds packed-call arity; zero means the compiler default.
	MaxArity int
	// Jobs bounds compile parallelism; zero or negative means GOMAXPROCS.
	Jobs int
	// Cache, when non-nil, is consulted before compiling and updated
	// after. Cache failures degrade to a plain compile.
	Cache *ProgramCache
	// Tracer receives pipeline events. Nil means no tracing.
	Tracer trace.Tracer
}

// Build runs the whole pipeline over a module and returns an executable
// program. The input module is not mutated.
func Build(ctx context.Context, m *ir.Module, opts Options) (*bytecode.Program, error) {
	tr := opts.Tracer
	if tr == nil {
		tr = trace.Nop()
	}
	copts := compiler.Options{Target: opts.Target, MaxArity: opts.MaxArity}

	sp := trace.BeginSpan(tr, trace.ScopeDriver, "driver.build", map[string]string{
		"funcs":  strconv.Itoa(len(m.Funcs)),
		"target": opts.Target,
	})
	prog, err := build(ctx, m, opts, copts, tr)
	if err != nil {
		sp.End("error: " + err.Error())
		return nil, err
	}
	sp.End("ok")
	return prog, nil
}

func build(ctx context.Context, m *ir.Module, opts Options, copts compiler.Options, tr trace.Tracer) (*bytecode.Program, error) {
	nsp := trace.BeginSpan(tr, trace.ScopePass, "normalize", nil)
	norm := ir.Normalize(m)
	err := ir.CheckNormalized(norm)
	if err != nil {
		nsp.End("failed")
		return nil, fmt.Errorf("normalized-form check: %w", err)
	}
	nsp.End("ok")

	backend, err := kernel.For(opts.Target)
	if err != nil {
		return nil, err
	}

	key := ProgramDigest(norm, opts.Target, opts.MaxArity)
	if prog, ok := lookupCache(opts.Cache, key, backend, tr); ok {
		return prog, nil
	}

	csp := trace.BeginSpan(tr, trace.ScopePass, "compile", nil)
	results, err := CompileFunctions(ctx, norm, copts, backend, opts.Jobs, tr)
	if err != nil {
		csp.End("failed")
		return nil, err
	}
	prog, err := compiler.AssembleProgram(results, copts, backend)
	if err != nil {
		csp.End("failed")
		return nil, err
	}
	if entry := slices.Index(norm.Names(), compiler.EntryName); entry >= 0 {
		prog.Entry = entry
	}
	csp.End("ok")

	storeCache(opts.Cache, key, prog, collectRequests(results), opts.Target, tr)
	return prog, nil
}

// lookupCache tries to decode a cached program. A miss or a decode failure
// is reported through the tracer only; the pipeline recompiles either way.
func lookupCache(cache *ProgramCache, key Digest, backend kernel.Backend, tr trace.Tracer) (*bytecode.Program, bool) {
	if cache == nil {
		return nil, false
	}
	var payload programPayload
	ok, err := cache.Get(key, &payload)
	if err != nil || !ok {
		tracePoint(tr, "cache.miss", err)
		return nil, false
	}
	prog, err := decodeProgram(&payload, backend)
	if err != nil {
		tracePoint(tr, "cache.decode", err)
		return nil, false
	}
	tracePoint(tr, "cache.hit", nil)
	return prog, true
}

// storeCache writes the compiled program back. Programs whose kernels
// cannot be serialized are simply not cached.
func storeCache(cache *ProgramCache, key Digest, prog *bytecode.Program, reqs []kernel.Descriptor, target string, tr trace.Tracer) {
	if cache == nil {
		return
	}
	payload, err := encodeProgram(prog, reqs, target)
	if err != nil {
		tracePoint(tr, "cache.encode", err)
		return
	}
	if err := cache.Put(key, payload); err != nil {
		tracePoint(tr, "cache.put", err)
	}
}

func collectRequests(results []*compiler.Result) []kernel.Descriptor {
	var descs []kernel.Descriptor
	for _, res := range results {
		descs = append(descs, res.Requests...)
	}
	return descs
}

func tracePoint(tr trace.Tracer, name string, err error) {
	if !tr.Enabled() {
		return
	}
	ev := &trace.Event{Kind: trace.KindPoint, Scope: trace.ScopePass, Name: name}
	if err != nil {
		ev.Detail = err.Error()
	}
	tr.Emit(ev)
}
