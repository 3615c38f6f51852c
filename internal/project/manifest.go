// Package project loads the loom.toml manifest that configures a build:
// package identity, compile settings, and tracing.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"loom/internal/trace"
)

// Manifest is a located, parsed loom.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the manifest file layout.
type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Trace   TraceConfig   `toml:"trace"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

// BuildConfig carries compile settings. Zero values defer to the compiler
// and driver defaults.
type BuildConfig struct {
	Target   string `toml:"target"`
	MaxArity int    `toml:"max_arity"`
	Jobs     int    `toml:"jobs"`
	NoCache  bool   `toml:"no_cache"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
	Ring   int    `toml:"ring"`
}

// Find walks from startDir toward the filesystem root looking for
// loom.toml.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "loom.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load finds and parses the manifest governing startDir. The boolean
// reports whether one was found at all.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := parseFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func parseFile(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return validate(path, cfg, meta)
}

// Parse decodes manifest text, for callers that hold the bytes already.
func Parse(path, text string) (Config, error) {
	var cfg Config
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	return validate(path, cfg, meta)
}

func validate(path string, cfg Config, meta toml.MetaData) (Config, error) {
	if !meta.IsDefined("package") {
		return Config{}, fmt.Errorf("%s: missing [package]", path)
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: missing [package].name", path)
	}
	if meta.IsDefined("build", "max_arity") && cfg.Build.MaxArity < 2 {
		return Config{}, fmt.Errorf("%s: [build].max_arity must be at least 2", path)
	}
	if meta.IsDefined("trace", "level") {
		if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
			return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
		}
	}
	if meta.IsDefined("trace", "format") {
		if _, err := trace.ParseFormat(cfg.Trace.Format); err != nil {
			return Config{}, fmt.Errorf("%s: [trace].format: %w", path, err)
		}
	}
	return cfg, nil
}

// Tracer builds the tracer the manifest asks for. An absent or off trace
// section yields the nop tracer.
func (m *Manifest) Tracer() (trace.Tracer, error) {
	if m == nil {
		return trace.Nop(), nil
	}
	level, err := trace.ParseLevel(m.Config.Trace.Level)
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(m.Config.Trace.Format)
	if err != nil {
		return nil, err
	}
	out := m.Config.Trace.Output
	if out != "" && !filepath.IsAbs(out) {
		out = filepath.Join(m.Root, out)
	}
	return trace.New(trace.Config{
		Level:      level,
		Format:     format,
		OutputPath: out,
		RingSize:   m.Config.Trace.Ring,
	})
}
