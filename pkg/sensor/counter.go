package sensor

// SampleCounter decides on which cycles a quantity is logged.
//
// The counter starts at Phase. Every Tick increments it; when it reaches
// Period it resets to zero and Tick reports true. A Period of zero or less
// never fires. A counter is owned by one producer goroutine and is not safe
// for concurrent use.
type SampleCounter struct {
	period int
	count  int
}

// NewSampleCounter creates a counter firing every period ticks, the first
// time after period-phase ticks.
func NewSampleCounter(period, phase int) SampleCounter {
	if phase < 0 || (period > 0 && phase >= period) {
		phase = 0
	}
	return SampleCounter{period: period, count: phase}
}

// Tick advances the counter and reports whether this cycle should log.
func (c *SampleCounter) Tick() bool {
	if c.period <= 0 {
		return false
	}
	c.count++
	if c.count >= c.period {
		c.count = 0
		return true
	}
	return false
}

// Count returns the current count.
func (c SampleCounter) Count() int { return c.count }

// Period returns the configured period.
func (c SampleCounter) Period() int { return c.period }
