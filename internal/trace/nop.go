package trace

type nopTracer struct{}

// Nop returns a tracer that drops everything. Safe to share.
func Nop() Tracer { return nopTracer{} }

func (nopTracer) Emit(*Event)   {}
func (nopTracer) Enabled() bool { return false }
func (nopTracer) Level() Level  { return LevelOff }
func (nopTracer) Flush() error  { return nil }
func (nopTracer) Close() error  { return nil }
