package sensor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multisensor/multisensor-go/pkg/dispatch"
	"github.com/multisensor/multisensor-go/pkg/hal/sim"
	"github.com/multisensor/multisensor-go/pkg/model"
)

func TestLevel(t *testing.T) {
	assert.Equal(t, 724.0, Level(300, 1024))
	assert.Equal(t, 1024.0, Level(0, 1024))
	assert.Equal(t, 0.0, Level(1024, 1024))
	assert.Equal(t, 0.0, Level(4095, 1024), "clamped")
}

func TestLightScenario(t *testing.T) {
	f := newFixture()
	adc := sim.NewADC(300)
	p := NewLightProducer(adc, f.set.AmbientLight, DefaultLightConfig(), f.out)
	ctx := context.Background()

	for cycle := 1; cycle <= 10; cycle++ {
		require.NoError(t, p.Cycle(ctx))
		assert.Equal(t, 724.0, f.set.AmbientLight.Float())
		assert.Equal(t, cycle, f.notified.count(model.PathAmbientLight))

		reqs := f.reqs.take()
		if cycle < 10 {
			assert.Empty(t, reqs, "cycle %d", cycle)
			continue
		}
		require.Len(t, reqs, 1)
		assert.Equal(t, dispatch.TableLight, reqs[0].Table)
		assert.Equal(t,
			"sql=insert into homekit.lightsensorlog (LightSensorName, LightLevel) values ('Multi-Sensor-1A2B3C', 724.000000)",
			reqs[0].Command())
		assert.Equal(t, 0, p.Counter().Count())
	}
}

func TestLightCustomScale(t *testing.T) {
	f := newFixture()
	adc := sim.NewADC(1000)
	cfg := LightConfig{MaxADC: 4096, Light: Schedule{Period: 1}}
	p := NewLightProducer(adc, f.set.AmbientLight, cfg, f.out)

	require.NoError(t, p.Cycle(context.Background()))
	assert.Equal(t, 3096.0, f.set.AmbientLight.Float())
	assert.Len(t, f.reqs.take(), 1)
}

func TestLightRun(t *testing.T) {
	f := newFixture()
	adc := sim.NewADC(24)
	cfg := DefaultLightConfig()
	cfg.Interval = time.Millisecond
	p := NewLightProducer(adc, f.set.AmbientLight, cfg, f.out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return adc.Reads() >= 3 }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1000.0, f.set.AmbientLight.Float())
}
