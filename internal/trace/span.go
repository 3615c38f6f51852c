package trace

// Span pairs a begin event with its end. End is safe on the zero value,
// so callers can unconditionally defer it.
type Span struct {
	tr    Tracer
	id    uint64
	scope Scope
	name  string
}

// BeginSpan emits a span-begin event and returns the handle that closes
// it. When the scope is filtered out, the returned span is inert.
func BeginSpan(tr Tracer, scope Scope, name string, attrs map[string]string) Span {
	if tr == nil || !tr.Enabled() || !tr.Level().allows(scope) {
		return Span{}
	}
	id := nextSpanID()
	tr.Emit(&Event{
		Kind:   KindSpanBegin,
		Scope:  scope,
		SpanID: id,
		Name:   name,
		Attrs:  attrs,
	})
	return Span{tr: tr, id: id, scope: scope, name: name}
}

// End closes the span. Detail, when non-empty, is attached to the end
// event (e.g. an outcome or a count).
func (s Span) End(detail string) {
	if s.tr == nil {
		return
	}
	s.tr.Emit(&Event{
		Kind:   KindSpanEnd,
		Scope:  s.scope,
		SpanID: s.id,
		Name:   s.name,
		Detail: detail,
	})
}
