package trace

import (
	"bufio"
	"io"
	"sync"
	"time"
)

// streamTracer writes each event to an output as it arrives.
type streamTracer struct {
	level  Level
	format Format

	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

func newStream(level Level, format Format, w io.Writer, closer io.Closer) *streamTracer {
	return &streamTracer{
		level:  level,
		format: format,
		w:      bufio.NewWriter(w),
		closer: closer,
	}
}

func (t *streamTracer) Emit(ev *Event) {
	if !t.level.allows(ev.Scope) {
		return
	}
	stamp(ev)
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	switch t.format {
	case FormatNDJSON:
		writeNDJSON(t.w, ev)
	default:
		writeText(t.w, ev)
	}
}

func (t *streamTracer) Enabled() bool { return true }
func (t *streamTracer) Level() Level  { return t.level }

func (t *streamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.Flush()
}

func (t *streamTracer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	err := t.w.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// stamp fills the bookkeeping fields the caller left zero.
func stamp(ev *Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	if ev.Seq == 0 {
		ev.Seq = nextSeq()
	}
}
