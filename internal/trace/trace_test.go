package trace

import (
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	cases := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelError, ScopeDriver, true},
		{LevelError, ScopePass, false},
		{LevelPhase, ScopePass, true},
		{LevelPhase, ScopeFunction, false},
		{LevelDetail, ScopeFunction, true},
		{LevelDetail, ScopeInstr, false},
		{LevelDebug, ScopeInstr, true},
	}
	for _, tc := range cases {
		if got := tc.level.allows(tc.scope); got != tc.want {
			t.Errorf("%s allows %s = %v, want %v", tc.level, tc.scope, got, tc.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{
		"":         LevelOff,
		"off":      LevelOff,
		"phase":    LevelPhase,
		"Debug":    LevelDebug,
		" detail ": LevelDetail,
	} {
		got, err := ParseLevel(s)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", s, got, want)
		}
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Error("ParseLevel accepted unknown level")
	}
}

func TestStreamText(t *testing.T) {
	var sb strings.Builder
	tr := newStream(LevelDebug, FormatText, &sb, nil)
	tr.Emit(&Event{Kind: KindPoint, Scope: ScopeInstr, Name: "vm.step", Attrs: map[string]string{"pc": "3"}})
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "vm.step") || !strings.Contains(out, "pc=3") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRingWraps(t *testing.T) {
	tr := NewRing(LevelDebug, 3)
	for i := 0; i < 5; i++ {
		tr.Emit(&Event{Kind: KindPoint, Scope: ScopeInstr, Name: "vm.step", Detail: string(rune('a' + i))})
	}
	snap := tr.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot size = %d, want 3", len(snap))
	}
	var got []string
	for _, ev := range snap {
		got = append(got, ev.Detail)
	}
	want := []string{"c", "d", "e"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot order = %v, want %v", got, want)
		}
	}
}

func TestSpanInertWhenFiltered(t *testing.T) {
	tr := NewRing(LevelPhase, 8)
	sp := BeginSpan(tr, ScopeInstr, "vm.run", nil)
	sp.End("")
	if n := len(tr.Snapshot()); n != 0 {
		t.Fatalf("filtered span produced %d events", n)
	}
	sp = BeginSpan(tr, ScopePass, "normalize", nil)
	sp.End("ok")
	snap := tr.Snapshot()
	if len(snap) != 2 || snap[0].Kind != KindSpanBegin || snap[1].Kind != KindSpanEnd {
		t.Fatalf("unexpected span events %+v", snap)
	}
	if snap[0].SpanID == 0 || snap[0].SpanID != snap[1].SpanID {
		t.Fatalf("span ids do not match: %d vs %d", snap[0].SpanID, snap[1].SpanID)
	}
}
