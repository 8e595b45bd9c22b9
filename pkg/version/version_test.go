package version

import (
	"strings"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
	}{
		{"1.0", 1, 0},
		{"1.1", 1, 1},
		{"2.0", 2, 0},
		{"10.23", 10, 23},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if r.Major != tt.major {
				t.Errorf("Major = %d, want %d", r.Major, tt.major)
			}
			if r.Minor != tt.minor {
				t.Errorf("Minor = %d, want %d", r.Minor, tt.minor)
			}
			if r.String() != tt.input {
				t.Errorf("String() = %q, want %q", r.String(), tt.input)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"1",
		"abc",
		"1.0.0",
		"1.x",
		"-1.0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			if _, err := Parse(input); err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestCurrentParses(t *testing.T) {
	if _, err := Parse(Current); err != nil {
		t.Fatalf("Current %q does not parse: %v", Current, err)
	}
}

func TestInfo(t *testing.T) {
	oldCommit, oldDate := Commit, BuildDate
	defer func() { Commit, BuildDate = oldCommit, oldDate }()

	Commit, BuildDate = "abc123", ""
	if got := Info("multisensor"); got != "multisensor 1.0 (commit abc123)" {
		t.Errorf("Info() = %q", got)
	}

	BuildDate = "2026-10-19"
	if got := Info("multisensor"); !strings.HasSuffix(got, "built 2026-10-19)") {
		t.Errorf("Info() = %q", got)
	}
}
