package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multisensor/multisensor-go/pkg/fault"
)

func TestAwaitResetWaitsForPattern(t *testing.T) {
	patterns := fault.DefaultPatterns().Scale(0.5)
	resets := make(chan fault.Code, 1)
	resets <- fault.ConfigWipe

	start := time.Now()
	code, err := awaitReset(context.Background(), resets, patterns)
	require.NoError(t, err)

	assert.Equal(t, fault.ConfigWipe, code)
	assert.GreaterOrEqual(t, time.Since(start), patterns[fault.ConfigWipe].Duration(),
		"bridge must outlive the reset pattern")
}

func TestAwaitResetCancelledDuringPattern(t *testing.T) {
	patterns := fault.Patterns{fault.ConfigReset: fault.Blinks(1, time.Hour, 0)}
	resets := make(chan fault.Code, 1)
	resets <- fault.ConfigReset

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := awaitReset(ctx, resets, patterns)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitResetCancelledBeforeReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := awaitReset(ctx, make(chan fault.Code), fault.DefaultPatterns())
	assert.ErrorIs(t, err, context.Canceled)
}
