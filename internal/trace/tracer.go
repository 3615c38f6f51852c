package trace

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// Tracer receives pipeline and VM events. Implementations must be safe
// for concurrent Emit calls.
type Tracer interface {
	// Emit records one event. The tracer fills Time and Seq if they are
	// zero. Events whose scope exceeds the level are dropped.
	Emit(ev *Event)
	// Enabled reports whether any events can pass the filter at all.
	// Callers use it to skip building Attrs maps on hot paths.
	Enabled() bool
	// Level returns the configured verbosity.
	Level() Level
	// Flush forces buffered output to the sink.
	Flush() error
	// Close flushes and releases the underlying output.
	Close() error
}

// Format selects the stream encoding.
type Format uint8

const (
	FormatText Format = iota
	FormatNDJSON
)

// ParseFormat maps a config string to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown trace format %q", s)
	}
}

// Config describes a tracer to construct.
type Config struct {
	Level  Level
	Format Format
	// Output receives stream output. When nil, OutputPath is opened;
	// when that is empty too, stderr is used.
	Output     io.Writer
	OutputPath string
	// RingSize, when positive, buffers the last N events in memory in
	// addition to (or, with no output, instead of) streaming.
	RingSize int
}

// New builds a tracer from cfg. LevelOff yields the nop tracer.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop(), nil
	}
	var sinks []Tracer
	if cfg.Output != nil || cfg.OutputPath != "" || cfg.RingSize <= 0 {
		w, closer, err := openOutput(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, newStream(cfg.Level, cfg.Format, w, closer))
	}
	if cfg.RingSize > 0 {
		sinks = append(sinks, NewRing(cfg.Level, cfg.RingSize))
	}
	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return NewMulti(cfg.Level, sinks...), nil
}

func openOutput(cfg Config) (io.Writer, io.Closer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil, nil
	}
	if cfg.OutputPath == "" {
		return os.Stderr, nil, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("trace: open output: %w", err)
	}
	return f, f, nil
}

var seqCounter atomic.Uint64

// nextSeq hands out globally ordered sequence numbers so events from
// concurrent sinks can be merged after the fact.
func nextSeq() uint64 {
	return seqCounter.Add(1)
}

var spanCounter atomic.Uint64

func nextSpanID() uint64 {
	return spanCounter.Add(1)
}
