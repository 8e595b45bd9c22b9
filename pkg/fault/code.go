package fault

import "time"

// Code identifies a condition shown on the status indicator.
type Code uint8

const (
	// SensorError indicates a failed sensor read.
	SensorError Code = iota + 1
	// GenericError indicates an unexpected interrupt or other unclassified fault.
	GenericError
	// Identify is shown when a client asks the accessory to identify itself.
	Identify
	// ConfigReset is shown before the accessory configuration is reset.
	ConfigReset
	// ConfigWipe is shown before all stored state is erased.
	ConfigWipe
)

// String returns the code name.
func (c Code) String() string {
	switch c {
	case SensorError:
		return "SENSOR_ERROR"
	case GenericError:
		return "GENERIC_ERROR"
	case Identify:
		return "IDENTIFY"
	case ConfigReset:
		return "CONFIG_RESET"
	case ConfigWipe:
		return "CONFIG_WIPE"
	default:
		return "UNKNOWN"
	}
}

// ParseCode returns the code with the given name.
func ParseCode(name string) (Code, bool) {
	for c := SensorError; c <= ConfigWipe; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// Step is one segment of a pattern: the indicator held at Level for Duration.
type Step struct {
	Level    bool
	Duration time.Duration
}

// Pattern is a fixed sequence of indicator steps.
type Pattern []Step

// Duration returns the total play time of the pattern.
func (p Pattern) Duration() time.Duration {
	var d time.Duration
	for _, s := range p {
		d += s.Duration
	}
	return d
}

// Pulses returns how many times the indicator turns on.
func (p Pattern) Pulses() int {
	var n int
	for _, s := range p {
		if s.Level {
			n++
		}
	}
	return n
}

// Blinks builds a pattern of n on/off pulses.
func Blinks(n int, on, off time.Duration) Pattern {
	p := make(Pattern, 0, 2*n)
	for i := 0; i < n; i++ {
		p = append(p, Step{Level: true, Duration: on}, Step{Level: false, Duration: off})
	}
	return p
}

// Patterns maps every code to the sequence it plays.
type Patterns map[Code]Pattern

// DefaultPatterns returns the standard pattern for every code.
func DefaultPatterns() Patterns {
	return Patterns{
		SensorError:  Blinks(3, 100*time.Millisecond, 100*time.Millisecond),
		GenericError: Blinks(2, 500*time.Millisecond, 250*time.Millisecond),
		Identify:     Blinks(5, 200*time.Millisecond, 200*time.Millisecond),
		ConfigReset:  Blinks(4, 50*time.Millisecond, 50*time.Millisecond),
		ConfigWipe:   Blinks(8, 50*time.Millisecond, 50*time.Millisecond),
	}
}

// Scale returns a copy of the patterns with every step duration multiplied
// by factor. Tests use it to shorten playback.
func (ps Patterns) Scale(factor float64) Patterns {
	out := make(Patterns, len(ps))
	for c, p := range ps {
		q := make(Pattern, len(p))
		for i, s := range p {
			q[i] = Step{Level: s.Level, Duration: time.Duration(float64(s.Duration) * factor)}
		}
		out[c] = q
	}
	return out
}
