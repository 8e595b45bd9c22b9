package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleCounterFiresOnPeriod(t *testing.T) {
	c := NewSampleCounter(10, 0)

	var fired []int
	for cycle := 1; cycle <= 30; cycle++ {
		if c.Tick() {
			fired = append(fired, cycle)
		}
	}
	assert.Equal(t, []int{10, 20, 30}, fired)
}

func TestSampleCounterPhase(t *testing.T) {
	c := NewSampleCounter(10, 5)

	var fired []int
	for cycle := 1; cycle <= 25; cycle++ {
		if c.Tick() {
			fired = append(fired, cycle)
		}
	}
	assert.Equal(t, []int{5, 15, 25}, fired)
}

func TestSampleCounterResetsIffFired(t *testing.T) {
	c := NewSampleCounter(5, 0)
	for i := 0; i < 50; i++ {
		before := c.Count()
		fired := c.Tick()
		if fired {
			assert.Equal(t, 0, c.Count(), "reset after firing")
		} else {
			assert.Equal(t, before+1, c.Count(), "increment when not firing")
		}
	}
}

func TestSampleCounterDisabled(t *testing.T) {
	c := NewSampleCounter(0, 0)
	for i := 0; i < 100; i++ {
		assert.False(t, c.Tick())
	}
}

func TestSampleCounterInvalidPhase(t *testing.T) {
	assert.Equal(t, 0, NewSampleCounter(10, 10).Count())
	assert.Equal(t, 0, NewSampleCounter(10, -1).Count())
	assert.Equal(t, 3, NewSampleCounter(10, 3).Count())
	assert.Equal(t, 10, NewSampleCounter(10, 3).Period())
}
