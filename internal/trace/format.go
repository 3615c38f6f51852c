package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// writeText renders one event per line, timestamp first, attrs sorted so
// output is diffable.
func writeText(w io.Writer, ev *Event) {
	var b strings.Builder
	b.Grow(96)
	b.WriteString(ev.Time.Format("15:04:05.000000"))
	fmt.Fprintf(&b, " %6d %-5s %-8s %s", ev.Seq, ev.Kind, ev.Scope, ev.Name)
	if ev.SpanID != 0 {
		fmt.Fprintf(&b, " span=%d", ev.SpanID)
	}
	if ev.Detail != "" {
		b.WriteByte(' ')
		b.WriteString(ev.Detail)
	}
	for _, k := range sortedKeys(ev.Attrs) {
		fmt.Fprintf(&b, " %s=%s", k, ev.Attrs[k])
	}
	b.WriteByte('\n')
	io.WriteString(w, b.String())
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span,omitempty"`
	ParentID uint64            `json:"parent,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

func writeNDJSON(w io.Writer, ev *Event) {
	rec := jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Name:     ev.Name,
		Detail:   ev.Detail,
		Attrs:    ev.Attrs,
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return
	}
	w.Write(append(line, '\n'))
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
