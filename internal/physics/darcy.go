package physics

// darcy unit conversions.
const (
	centipoiseToPaS = 1.0e-3
	millidarcyToM2  = 9.869e-16
)

// DarcyPressureChangeMPa estimates a single-phase Darcy pressure drop [MPa]
// across reservoir rock:
//
//	ΔP = Q·μ·L / (k·A)
//
// with flow rate Q [m³/s], viscosity μ [cP], length L [m], permeability k
// [mD] and area A [m²]. It is a standalone trend helper for porous
// reservoirs and is not part of the weekly mass-balance loop. Returns 0 for
// non-positive rate, area or permeability.
func DarcyPressureChangeMPa(rateM3PerS, viscosityCP, lengthM, permeabilityMD, areaM2 float64) float64 {
	if rateM3PerS <= 0 || areaM2 <= 0 || permeabilityMD <= 0 {
		return 0
	}

	muPaS := viscosityCP * centipoiseToPaS
	kM2 := permeabilityMD * millidarcyToM2

	deltaPa := (rateM3PerS * muPaS * lengthM) / (kM2 * areaM2)
	deltaMPa := deltaPa / mpaToPa
	if deltaMPa < 0 {
		return 0
	}
	return deltaMPa
}
