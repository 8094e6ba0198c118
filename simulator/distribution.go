package simulator

import (
	"math"
	"math/rand"
	"time"
)

// Sampler generates random durations (in model seconds) for a given rate.
// Implementations are NOT safe for concurrent use; create one per goroutine.
type Sampler interface {
	Sample(rate float64) float64
}

// ExpSampler draws exponentially distributed values via inverse transform
// sampling: X = -ln(1-U) / rate. Each sampler owns an independently seeded
// generator; reseeding per call would collapse near-simultaneous streams
// onto identical sequences.
type ExpSampler struct {
	rng *rand.Rand
}

// NewExpSampler creates an exponential sampler with a specific seed.
// Seed 0 draws a fresh high-entropy seed, matching the convention used by
// SimConfig.RandomSeed (0 = not reproducible, anything else = reproducible).
func NewExpSampler(seed int64) *ExpSampler {
	if seed == 0 {
		seed = rand.Int63()
	}
	return &ExpSampler{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns one exponential draw with the given rate, in model seconds.
// The result is always finite and non-negative: Float64 yields u in [0, 1),
// so 1-u is in (0, 1] and the log argument never reaches zero.
func (s *ExpSampler) Sample(rate float64) float64 {
	u := s.rng.Float64()
	if u >= 1.0 {
		u = 1.0 - 1e-12 // Avoid log(0)
	}
	return -math.Log(1.0-u) / rate
}

// ScaleToWall converts a model-second duration into a wall-clock duration
// using the experiment's time scale factor
func ScaleToWall(modelSeconds, timeScale float64) time.Duration {
	return time.Duration(modelSeconds * timeScale * float64(time.Second))
}
