// Package sampler provides the bounded stochastic draws used by facility
// generation and the weekly simulation loop.
//
// All draws come from one Sampler wrapping a single *rand.Rand seeded from
// the configuration. The generator's reproducibility contract is that two
// runs with the same seed produce the same sequence of draws, so every call
// site must keep its draw order stable: reordering a single call shifts
// every draw after it.
package sampler

import (
	"math"
	"math/rand"
	"sort"
)

// Sampler wraps a deterministic pseudo-random source.
type Sampler struct {
	rng *rand.Rand
}

// New creates a Sampler seeded for one generation run.
func New(seed int64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewSource(seed))}
}

// Uniform draws uniformly from [min, max).
func (s *Sampler) Uniform(min, max float64) float64 {
	return min + s.rng.Float64()*(max-min)
}

// Normal draws from a normal distribution with the given mean and standard
// deviation. Unbounded; callers clip where the model requires it.
func (s *Sampler) Normal(mean, std float64) float64 {
	return mean + std*s.rng.NormFloat64()
}

// NormalBounded draws from normal(mean, std) and clips to [min, max].
func (s *Sampler) NormalBounded(mean, std, min, max float64) float64 {
	return clip(s.Normal(mean, std), min, max)
}

// LognormalBounded draws from lognormal(ln(mean), sigma) and clips to
// [min, max]. The mean parameter is the median of the unclipped
// distribution, matching how the facility volume and cycle-mass
// distributions are specified in the configuration.
func (s *Sampler) LognormalBounded(mean, sigma, min, max float64) float64 {
	v := math.Exp(s.Normal(math.Log(mean), sigma))
	return clip(v, min, max)
}

// IntBetween draws an integer uniformly from [min, max] inclusive.
func (s *Sampler) IntBetween(min, max int) int {
	if max <= min {
		return min
	}
	return min + s.rng.Intn(max-min+1)
}

// WeightedChoice draws an index in [0, len(weights)) with probability
// proportional to each weight. Weights need not sum to 1; they are
// normalized internally. Panics on an empty slice; a non-positive total is
// a configuration error callers must reject before sampling.
func (s *Sampler) WeightedChoice(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	r := s.rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if r < cum {
			return i
		}
	}
	return len(weights) - 1
}

// PickN selects n distinct values from pool uniformly at random and returns
// them sorted ascending. The pool is not modified. n is clamped to the pool
// size.
func (s *Sampler) PickN(pool []int, n int) []int {
	if n > len(pool) {
		n = len(pool)
	}
	scratch := make([]int, len(pool))
	copy(scratch, pool)
	for i := 0; i < n; i++ {
		j := i + s.rng.Intn(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	picked := scratch[:n]
	sort.Ints(picked)
	return picked
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
