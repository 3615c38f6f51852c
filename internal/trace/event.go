package trace

import "time"

// Kind tags what an event marks.
type Kind uint8

const (
	// KindSpanBegin opens a span; a matching KindSpanEnd closes it.
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	// KindPoint marks an instantaneous occurrence.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "?"
	}
}

// Scope says which layer of the system produced an event. Scopes are
// ordered from coarse to fine; Level filtering compares against this
// ordering.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1
	ScopePass
	ScopeFunction
	ScopeInstr
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeFunction:
		return "function"
	case ScopeInstr:
		return "instr"
	default:
		return "?"
	}
}

// Event is a single trace record. Attrs carries small key/value details;
// sinks must treat it as read-only after Emit.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string
	Detail   string
	Attrs    map[string]string
}
