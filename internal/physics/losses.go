package physics

import (
	"github.com/couchcryptid/uhs-mrv-generator/internal/sampler"
)

// SampleLossFraction draws a dimensionless dynamic loss fraction uniformly
// from the configured bounds. One draw.
func SampleLossFraction(loss LossConfig, s *sampler.Sampler) float64 {
	return s.Uniform(loss.LossMin, loss.LossMax)
}

// CycleLossesKg computes dynamic cycle losses as a proportion of current
// working gas. Returns 0 when there is no gas to lose or the fraction is
// non-positive.
func CycleLossesKg(workingGasKg, lossFraction float64) float64 {
	if workingGasKg <= 0 || lossFraction <= 0 {
		return 0
	}
	return workingGasKg * lossFraction
}

// SampleInletPurity draws inlet hydrogen purity [%] from a normal
// distribution clipped to the configured inlet bounds. One draw.
func SampleInletPurity(purity PurityConfig, s *sampler.Sampler) float64 {
	return s.NormalBounded(purity.InletMean, purity.InletStd, purity.InletMin, purity.InletMax)
}

// OutletPurity derives outlet purity [%] as inlet purity plus a small noise
// term, allowing minor drift across the facility. The result is clipped
// twice: to [0, 100] and then to the configured inlet bounds. One draw.
func OutletPurity(purityInPct float64, purity PurityConfig, s *sampler.Sampler) float64 {
	out := purityInPct + s.Normal(purity.OutletNoiseMean, purity.OutletNoiseStd)

	if out < 0 {
		out = 0
	}
	if out > 100 {
		out = 100
	}
	if out < purity.InletMin {
		out = purity.InletMin
	}
	if out > purity.InletMax {
		out = purity.InletMax
	}
	return out
}
