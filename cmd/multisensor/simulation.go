package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/multisensor/multisensor-go/pkg/hal"
)

// simulationTick is how often simulated readings move.
const simulationTick = 3 * time.Second

// Simulator drifts the simulated sensors and raises occasional motion.
type Simulator struct {
	hw     *simulatedHardware
	logger *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool

	temp  float64
	hum   float64
	light uint16
}

// NewSimulator creates a stopped simulator.
func NewSimulator(hw *simulatedHardware, logger *slog.Logger) *Simulator {
	return &Simulator{
		hw:     hw,
		logger: logger.With("component", "sim"),
		temp:   21.5,
		hum:    40,
		light:  300,
	}
}

// Start begins drifting readings until Stop or ctx is cancelled.
func (s *Simulator) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	go s.run(ctx)
	s.logger.Info("simulation started")
}

// Stop halts the simulation.
func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.running = false
	s.logger.Info("simulation stopped")
}

// Running reports whether the simulation is active.
func (s *Simulator) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Simulator) run(ctx context.Context) {
	ticker := time.NewTicker(simulationTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Simulator) step() {
	s.temp = clamp(s.temp+rand.Float64()-0.5, 15, 30)
	s.hum = clamp(s.hum+2*rand.Float64()-1, 20, 80)
	s.hw.climate.Update(hal.ClimateReading{Temperature: s.temp, Humidity: s.hum})

	delta := rand.IntN(61) - 30
	s.light = uint16(clamp(float64(int(s.light)+delta), 0, 1023))
	s.hw.adc.Set(s.light)

	// Roughly one motion edge a minute.
	if rand.IntN(20) == 0 {
		s.hw.motion.Drive(!s.hw.motion.Get())
	}

	s.logger.Debug("simulated readings", "temperature", s.temp, "humidity", s.hum, "light_raw", s.light)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
