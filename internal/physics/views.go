package physics

// ZSegment is one band of the piecewise compressibility table:
// [PressureMinMPa, PressureMaxMPa) → Z. Segments are ordered and
// non-overlapping; config validation enforces both.
type ZSegment struct {
	PressureMinMPa float64
	PressureMaxMPa float64
	Z              float64
}

// ThermoConfig holds the thermodynamic constants and the compressibility
// table. Built once from the configuration document and never mutated.
type ThermoConfig struct {
	GasConstantJPerMolK float64
	MolarMassH2KgPerMol float64
	Segments            []ZSegment
}

// TemperatureNoiseConfig describes the noise term added to the geothermal
// gradient. Distribution is "normal" or empty for no noise.
type TemperatureNoiseConfig struct {
	Distribution string
	Mean         float64
	Std          float64
}

// LossConfig bounds the dynamic per-cycle loss fraction and the per-facility
// static leak rate.
type LossConfig struct {
	LossMin             float64
	LossMax             float64
	StaticLeakMinKgYear float64
	StaticLeakMaxKgYear float64
}

// PurityConfig parameterizes inlet purity and the inlet→outlet noise term,
// all in percent. The outlet noise min/max bounds are carried from the
// configuration but the model clips the resulting outlet purity (to [0,100]
// then to the inlet bounds) rather than the noise draw itself.
type PurityConfig struct {
	InletMean       float64
	InletStd        float64
	InletMin        float64
	InletMax        float64
	OutletNoiseMean float64
	OutletNoiseStd  float64
	OutletNoiseMin  float64
	OutletNoiseMax  float64
}

// ValidationConfig holds the downstream quality bounds. The simulation only
// uses PressureMarginMPa (pressure clamping) and the mass-balance tolerance;
// the rest drive cmd/validate.
type ValidationConfig struct {
	PressureMarginMPa        float64
	TemperatureMinC          float64
	TemperatureMaxC          float64
	PurityMinPct             float64
	PurityMaxPct             float64
	LossFractionMin          float64
	LossFractionMax          float64
	AllowMissingValues       bool
	MassBalanceToleranceFrac float64
}
