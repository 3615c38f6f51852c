package trace

import "errors"

// multiTracer fans events out to several sinks.
type multiTracer struct {
	level Level
	sinks []Tracer
}

func NewMulti(level Level, sinks ...Tracer) Tracer {
	return &multiTracer{level: level, sinks: sinks}
}

func (t *multiTracer) Emit(ev *Event) {
	if !t.level.allows(ev.Scope) {
		return
	}
	stamp(ev)
	for _, s := range t.sinks {
		s.Emit(ev)
	}
}

func (t *multiTracer) Enabled() bool { return true }
func (t *multiTracer) Level() Level  { return t.level }

func (t *multiTracer) Flush() error {
	var errs []error
	for _, s := range t.sinks {
		errs = append(errs, s.Flush())
	}
	return errors.Join(errs...)
}

func (t *multiTracer) Close() error {
	var errs []error
	for _, s := range t.sinks {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
