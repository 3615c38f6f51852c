package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"loom/internal/driver"
	"loom/internal/project"
	"loom/internal/trace"
)

// buildOptions assembles driver options from the manifest (when one governs
// the working directory) overridden by command-line flags. The returned
// cleanup flushes and closes the tracer.
func buildOptions(cmd *cobra.Command) (driver.Options, func(), error) {
	manifest, _, err := project.Load(".")
	if err != nil {
		return driver.Options{}, nil, err
	}

	var opts driver.Options
	if manifest != nil {
		opts.Target = manifest.Config.Build.Target
		opts.MaxArity = manifest.Config.Build.MaxArity
		opts.Jobs = manifest.Config.Build.Jobs
	}

	flags := cmd.Root().PersistentFlags()
	if target, err := flags.GetString("target"); err == nil && target != "" {
		opts.Target = target
	}
	if jobs, err := flags.GetInt("jobs"); err == nil && jobs > 0 {
		opts.Jobs = jobs
	}
	if arity, err := flags.GetInt("max-arity"); err == nil && arity > 0 {
		opts.MaxArity = arity
	}

	noCache, _ := flags.GetBool("no-cache")
	if manifest != nil && manifest.Config.Build.NoCache {
		noCache = true
	}
	if !noCache {
		cache, err := driver.OpenProgramCache("loom")
		if err != nil {
			return driver.Options{}, nil, fmt.Errorf("open program cache: %w", err)
		}
		opts.Cache = cache
	}

	tracer, err := setupTracing(cmd, manifest)
	if err != nil {
		return driver.Options{}, nil, err
	}
	opts.Tracer = tracer

	cleanup := func() {
		tracer.Flush()
		tracer.Close()
	}
	return opts, cleanup, nil
}

// setupTracing builds a tracer from flags, falling back to the manifest's
// trace section when no flag asks for tracing.
func setupTracing(cmd *cobra.Command, manifest *project.Manifest) (trace.Tracer, error) {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-format flag: %w", err)
	}

	if output == "" && levelStr == "" {
		return manifest.Tracer()
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Format:     format,
		OutputPath: output,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	return tracer, nil
}
