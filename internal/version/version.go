// Package version carries the build fingerprints stamped into the loom
// binary. The variables are plain strings so release builds can override
// them with -ldflags; coloring happens at render time.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of this build.
	Version = "0.1.0-dev"

	// GitCommit is the commit hash the binary was built from, when stamped.
	GitCommit = ""

	// BuildDate is the build timestamp in ISO-8601, when stamped.
	BuildDate = ""
)

var componentColors = [...]*color.Color{
	color.New(color.FgCyan, color.Bold),
	color.New(color.FgMagenta, color.Bold),
	color.New(color.FgWhite, color.Bold),
}

// String renders Version with each semver component colored. The
// pre-release suffix stays uncolored, and anything that is not a dotted
// triple falls back to the plain string.
func String() string {
	core, suffix, _ := strings.Cut(Version, "-")
	parts := strings.Split(core, ".")
	if len(parts) != len(componentColors) {
		return Version
	}
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = componentColors[i].Sprint(p)
	}
	s := strings.Join(out, ".")
	if suffix != "" {
		s += "-" + suffix
	}
	return s
}
