package trace

import "sync"

// RingTracer keeps the last N events in memory. It is the cheap way to
// get a backtrace of VM activity without streaming every step to disk.
type RingTracer struct {
	level Level

	mu      sync.Mutex
	buf     []Event
	next    int
	wrapped bool
}

func NewRing(level Level, size int) *RingTracer {
	if size < 1 {
		size = 1
	}
	return &RingTracer{level: level, buf: make([]Event, size)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.level.allows(ev.Scope) {
		return
	}
	stamp(ev)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf[t.next] = *ev
	t.next++
	if t.next == len(t.buf) {
		t.next = 0
		t.wrapped = true
	}
}

func (t *RingTracer) Enabled() bool { return true }
func (t *RingTracer) Level() Level  { return t.level }
func (t *RingTracer) Flush() error  { return nil }
func (t *RingTracer) Close() error  { return nil }

// Snapshot returns the buffered events in arrival order.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.wrapped {
		out := make([]Event, t.next)
		copy(out, t.buf[:t.next])
		return out
	}
	out := make([]Event, 0, len(t.buf))
	out = append(out, t.buf[t.next:]...)
	out = append(out, t.buf[:t.next]...)
	return out
}
