// Package soilsim simulates the dashboard's soil sensors.
//
// There are no real sensors. Each reading is the previous one plus a small
// uniform random delta per field, clamped to the field's valid range, so
// values wander around the baseline but can never leave their bounds.
package soilsim

import (
	"context"
	"iter"
	"math/rand/v2"
	"time"

	"github.com/edithfert/fertpro/models"
)

// DefaultInterval is the time between two readings on the dashboard.
const DefaultInterval = 5 * time.Second

// Half-widths of the per-step deltas: moisture moves by up to ±2.5 points,
// pH by ±0.1, each nutrient by ±1.5.
const (
	moistureSpread = 5.0
	phSpread       = 0.2
	nutrientSpread = 3.0
)

// Step returns the next reading after prev.
func Step(prev models.SoilReading, rng *rand.Rand) models.SoilReading {
	next := models.SoilReading{
		Moisture:   prev.Moisture + jitter(rng, moistureSpread),
		PH:         prev.PH + jitter(rng, phSpread),
		Nitrogen:   prev.Nitrogen + jitter(rng, nutrientSpread),
		Phosphorus: prev.Phosphorus + jitter(rng, nutrientSpread),
		Potassium:  prev.Potassium + jitter(rng, nutrientSpread),
	}
	return next.Clamp()
}

func jitter(rng *rand.Rand, spread float64) float64 {
	return (rng.Float64() - 0.5) * spread
}

// Readings yields start (clamped) and then an endless walk from it.
// Nothing is computed until the consumer asks for the next value.
func Readings(start models.SoilReading, rng *rand.Rand) iter.Seq[models.SoilReading] {
	return func(yield func(models.SoilReading) bool) {
		cur := start.Clamp()
		for {
			if !yield(cur) {
				return
			}
			cur = Step(cur, rng)
		}
	}
}

// Simulator runs the walk on a fixed cadence.
// A zero Simulator is not usable; create one with New.
type Simulator struct {
	interval time.Duration
	start    models.SoilReading
	newRand  func() *rand.Rand
}

// Option customizes a Simulator.
type Option func(*Simulator)

// WithStart replaces the baseline the walk begins from.
func WithStart(r models.SoilReading) Option {
	return func(s *Simulator) { s.start = r }
}

// WithRand replaces the source of randomness. fn is called once per Run.
func WithRand(fn func() *rand.Rand) Option {
	return func(s *Simulator) { s.newRand = fn }
}

// New creates a Simulator ticking every interval. A non-positive interval
// means DefaultInterval.
func New(interval time.Duration, opts ...Option) *Simulator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Simulator{
		interval: interval,
		start:    models.SoilBaseline(),
		newRand: func() *rand.Rand {
			return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the cadence.
func (s *Simulator) Interval() time.Duration {
	return s.interval
}

// Start returns the reading a new run begins with.
func (s *Simulator) Start() models.SoilReading {
	return s.start.Clamp()
}

// Run emits the starting reading immediately and then one new reading per
// interval until ctx is done. Every call starts from the baseline with its
// own random source, so two runs never share state.
//
// Run blocks; it returns once ctx is done and never calls emit afterwards.
func (s *Simulator) Run(ctx context.Context, emit func(models.SoilReading)) {
	if ctx.Err() != nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for r := range Readings(s.start, s.newRand()) {
		emit(r)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
