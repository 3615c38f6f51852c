package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersionIsSemver(t *testing.T) {
	if got := strings.Count(Version, "."); got != 2 {
		t.Fatalf("Version %q has %d dots, want 2", Version, got)
	}
	if !strings.HasSuffix(Version, "-dev") {
		t.Fatalf("Version %q missing -dev suffix", Version)
	}
}

func TestStringMatchesVersionWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	if got := String(); got != Version {
		t.Fatalf("String() = %q without color, want %q", got, Version)
	}
}

func TestStringFallsBackOnOddVersion(t *testing.T) {
	prev := Version
	Version = "nightly"
	defer func() { Version = prev }()

	if got := String(); got != "nightly" {
		t.Fatalf("String() = %q, want the version passed through", got)
	}
}
