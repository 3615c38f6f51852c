package driver

import (
	"context"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"loom/internal/compiler"
	"loom/internal/ir"
	"loom/internal/kernel"
	"loom/internal/trace"
)

// CompileFunctions compiles every function of a normalized module, fanning
// the work out over a bounded worker group. Results come back in sorted-name
// order regardless of completion order, so downstream assembly is
// deterministic. Each goroutine writes only its own results slot, so no
// mutex is needed.
func CompileFunctions(ctx context.Context, m *ir.Module, opts compiler.Options, backend kernel.Backend, jobs int, tr trace.Tracer) ([]*compiler.Result, error) {
	names := m.Names()
	funcIdx := make(map[string]int, len(names))
	for i, name := range names {
		funcIdx[name] = i
	}

	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]*compiler.Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(names), 1)))

	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			sp := trace.BeginSpan(tr, trace.ScopeFunction, "compile.func", map[string]string{"fn": name})
			res, err := compiler.CompileFunc(name, m.Funcs[name], funcIdx, backend, opts)
			if err != nil {
				sp.End("error: " + err.Error())
				return err
			}
			sp.End("instrs=" + strconv.Itoa(len(res.Func.Instrs)))
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
