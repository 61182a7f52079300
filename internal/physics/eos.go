package physics

import (
	"github.com/couchcryptid/uhs-mrv-generator/internal/sampler"
)

const (
	kelvinOffset = 273.15
	mpaToPa      = 1.0e6

	// pressureIterations is the fixed-point iteration count for the
	// mass → pressure inversion. Part of the reproducibility contract;
	// see the package doc before touching it.
	pressureIterations = 5

	// initialPressurePa seeds the fixed-point solve at ~10 MPa.
	initialPressurePa = 1.0e7
)

// CompressibilityZ returns the compressibility factor for a pressure in MPa.
// Pressures outside every configured band fall back to the last segment's Z
// (the table is open-ended above its highest bound).
func CompressibilityZ(pressureMPa float64, thermo ThermoConfig) float64 {
	for _, seg := range thermo.Segments {
		if pressureMPa >= seg.PressureMinMPa && pressureMPa < seg.PressureMaxMPa {
			return seg.Z
		}
	}
	return thermo.Segments[len(thermo.Segments)-1].Z
}

// MassFromPVT computes hydrogen mass in kg from pressure [MPa], temperature
// [°C] and volume [m³] via P·V = Z·n·R·T, mass = n·M. Returns 0 for a
// non-positive volume; the result is floored at 0.
func MassFromPVT(pressureMPa, temperatureC, volumeM3 float64, thermo ThermoConfig) float64 {
	if volumeM3 <= 0 {
		return 0
	}

	pressurePa := pressureMPa * mpaToPa
	temperatureK := temperatureC + kelvinOffset

	z := CompressibilityZ(pressureMPa, thermo)
	moles := (pressurePa * volumeM3) / (z * thermo.GasConstantJPerMolK * temperatureK)
	massKg := moles * thermo.MolarMassH2KgPerMol

	if massKg < 0 {
		return 0
	}
	return massKg
}

// PressureFromMass inverts MassFromPVT: pressure [MPa] from mass [kg],
// temperature [°C] and volume [m³]. Because Z depends on the pressure being
// solved for, the solve runs a fixed five-iteration fixed-point update
// seeded at 10 MPa. Returns 0 when volume or mass is non-positive.
func PressureFromMass(massKg, temperatureC, volumeM3 float64, thermo ThermoConfig) float64 {
	if volumeM3 <= 0 || massKg <= 0 {
		return 0
	}

	temperatureK := temperatureC + kelvinOffset
	moles := massKg / thermo.MolarMassH2KgPerMol

	pressurePa := initialPressurePa
	for i := 0; i < pressureIterations; i++ {
		z := CompressibilityZ(pressurePa/mpaToPa, thermo)
		pressurePa = (z * moles * thermo.GasConstantJPerMolK * temperatureK) / max(volumeM3, 1e-9)
	}

	pressureMPa := pressurePa / mpaToPa
	if pressureMPa < 0 {
		return 0
	}
	return pressureMPa
}

// TemperatureAtDepth computes temperature [°C] from a linear geothermal
// gradient plus an optional noise draw:
//
//	T = base + gradient·depth_km + noise
//
// Exactly one draw is consumed when the noise distribution is "normal";
// none otherwise. Callers rely on this for draw-order stability.
func TemperatureAtDepth(depthM, baseTemperatureC, gradientCPerKm float64, noise TemperatureNoiseConfig, s *sampler.Sampler) float64 {
	temperature := baseTemperatureC + gradientCPerKm*depthM/1000.0

	if noise.Distribution == "normal" {
		temperature += s.Normal(noise.Mean, noise.Std)
	}
	return temperature
}
