package physics

import "math"

// residualEpsilon guards the residual denominator for weeks with zero
// injection.
const residualEpsilon = 1e-9

// MassBalanceResidual computes the normalized mass-balance discrepancy for
// one active week:
//
//	residual = |in − out − losses − Δstorage| / max(|in|, ε)
//
// Values near zero indicate a numerically consistent update; the clamp
// corrections in the inventory enforcer are the usual source of nonzero
// residuals. Diagnostic only, never a failure.
func MassBalanceResidual(injectedKg, withdrawnKg, lossesKg, deltaStorageKg float64) float64 {
	numerator := math.Abs(injectedKg - withdrawnKg - lossesKg - deltaStorageKg)
	return numerator / max(math.Abs(injectedKg), residualEpsilon)
}

// MassBalanceOK reports whether the residual is within the configured
// tolerance.
func MassBalanceOK(injectedKg, withdrawnKg, lossesKg, deltaStorageKg float64, v ValidationConfig) bool {
	return MassBalanceResidual(injectedKg, withdrawnKg, lossesKg, deltaStorageKg) <= v.MassBalanceToleranceFrac
}

// PressureWithinBounds reports whether a pressure lies in
// [pMin − margin, pMax + margin].
func PressureWithinBounds(pressureMPa, pMinMPa, pMaxMPa, marginMPa float64) bool {
	return pressureMPa >= pMinMPa-marginMPa && pressureMPa <= pMaxMPa+marginMPa
}

// TemperatureInRange reports whether a temperature is inside the validation
// bounds.
func TemperatureInRange(temperatureC float64, v ValidationConfig) bool {
	return temperatureC >= v.TemperatureMinC && temperatureC <= v.TemperatureMaxC
}

// PurityInRange reports whether a purity percentage is inside the validation
// bounds.
func PurityInRange(purityPct float64, v ValidationConfig) bool {
	return purityPct >= v.PurityMinPct && purityPct <= v.PurityMaxPct
}

// LossFractionInRange reports whether a loss fraction is inside the
// validation bounds.
func LossFractionInRange(lossFraction float64, v ValidationConfig) bool {
	return lossFraction >= v.LossFractionMin && lossFraction <= v.LossFractionMax
}
