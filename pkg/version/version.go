// Package version holds the firmware revision and build information.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the firmware revision reported to accessory controllers.
const Current = "1.0"

// Set at build time with -ldflags "-X .../version.Commit=...".
var (
	Commit    = "unknown"
	BuildDate = ""
)

// Revision is a parsed "major.minor" firmware revision.
type Revision struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" revision string.
func Parse(s string) (Revision, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Revision{}, fmt.Errorf("invalid revision %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Revision{}, fmt.Errorf("invalid revision %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Revision{}, fmt.Errorf("invalid revision %q: bad minor component", s)
	}

	return Revision{Major: uint16(major), Minor: uint16(minor)}, nil
}

// String returns the revision as "major.minor".
func (r Revision) String() string {
	return fmt.Sprintf("%d.%d", r.Major, r.Minor)
}

// Info returns a one-line description for -version output.
func Info(program string) string {
	s := fmt.Sprintf("%s %s (commit %s", program, Current, Commit)
	if BuildDate != "" {
		s += ", built " + BuildDate
	}
	return s + ")"
}
