package hal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEdgeString(t *testing.T) {
	assert.Equal(t, "rising", EdgeRising.String())
	assert.Equal(t, "falling", EdgeFalling.String())
	assert.Equal(t, "both", EdgeBoth.String())
	assert.Equal(t, "none", EdgeNone.String())
}

func TestEdgeMatches(t *testing.T) {
	tests := []struct {
		edge  Edge
		level bool
		want  bool
	}{
		{EdgeBoth, true, true},
		{EdgeBoth, false, true},
		{EdgeRising, true, true},
		{EdgeRising, false, false},
		{EdgeFalling, false, true},
		{EdgeFalling, true, false},
		{EdgeNone, true, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.edge.Matches(tt.level), "%s level=%v", tt.edge, tt.level)
	}
}
