package trace

import (
	"fmt"
	"strings"
)

// Level controls how much of the pipeline is traced. Each level includes
// everything below it.
type Level uint8

const (
	// LevelOff emits nothing.
	LevelOff Level = iota
	// LevelError emits driver-scope events only.
	LevelError
	// LevelPhase adds pass boundaries (normalize, compile, link).
	LevelPhase
	// LevelDetail adds per-function events.
	LevelDetail
	// LevelDebug adds per-instruction VM stepping.
	LevelDebug
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", uint8(l))
	}
}

// ParseLevel maps a config string to a Level. The empty string means off.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("unknown trace level %q", s)
	}
}

// allows reports whether events at scope s pass the level filter.
func (l Level) allows(s Scope) bool {
	switch l {
	case LevelOff:
		return false
	case LevelError:
		return s == ScopeDriver
	case LevelPhase:
		return s <= ScopePass
	case LevelDetail:
		return s <= ScopeFunction
	default:
		return true
	}
}
