// Package config loads and validates the generator's YAML configuration
// document. Every numeric range, weight and constant the simulation uses
// lives here; validation is fatal and runs before any simulation step, so
// the core never sees a malformed value.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/uhs-mrv-generator/internal/physics"
)

// Range is a [Min, Max] pair for uniform draws.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// LognormalRange parameterizes a bounded lognormal draw.
type LognormalRange struct {
	Mean  float64 `yaml:"mean"`
	Sigma float64 `yaml:"sigma"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// NormalDist is a mean/std pair, optionally with clip bounds.
type NormalDist struct {
	Mean float64 `yaml:"mean"`
	Std  float64 `yaml:"std"`
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
}

// TypeWeights fixes the facility-type mix. The field order doubles as the
// draw order for the weighted type choice, so it must not change.
type TypeWeights struct {
	SaltCavern      float64 `yaml:"salt_cavern"`
	PorousReservoir float64 `yaml:"porous_reservoir"`
}

// Simulation sets the weekly time axis.
type Simulation struct {
	StartDate string `yaml:"start_date"` // ISO date, first simulated week
	NYears    int    `yaml:"n_years"`
}

// Global holds run-wide settings.
type Global struct {
	RandomSeed          int64       `yaml:"random_seed"`
	NFacilities         int         `yaml:"n_facilities"`
	FacilityTypeWeights TypeWeights `yaml:"facility_type_weights"`
	Simulation          Simulation  `yaml:"simulation"`
}

// FacilityTypeParams holds the per-geology parameter set. Porosity and
// permeability apply to porous reservoirs only.
type FacilityTypeParams struct {
	DepthM         Range          `yaml:"depth_m"`
	CavernVolumeM3 LognormalRange `yaml:"cavern_volume_m3"`
	Porosity       Range          `yaml:"porosity"`
	PermeabilityMD LognormalRange `yaml:"permeability_mD"`

	PressureMinMPa float64 `yaml:"pressure_min_mpa"`
	PressureMaxMPa float64 `yaml:"pressure_max_mpa"`

	// WorkingGasFraction is the share of total gas mass (at maximum
	// pressure) that cycles; the remainder is cushion gas.
	WorkingGasFraction float64 `yaml:"working_gas_fraction"`

	BaseTemperatureC          float64 `yaml:"base_temperature_c"`
	TemperatureGradientCPerKm float64 `yaml:"temperature_gradient_c_per_km"`
}

// FacilityTypes carries both parameter sets.
type FacilityTypes struct {
	SaltCavern      FacilityTypeParams `yaml:"salt_cavern"`
	PorousReservoir FacilityTypeParams `yaml:"porous_reservoir"`
}

// ModeMix weighs the three cycle modes. Field order is the draw order of
// the weighted mode choice.
type ModeMix struct {
	InjectionHeavyFraction  float64 `yaml:"injection_heavy_fraction"`
	WithdrawalHeavyFraction float64 `yaml:"withdrawal_heavy_fraction"`
	BalancedFraction        float64 `yaml:"balanced_fraction"`
}

// RampLimit caps how far the applied cycle-mass fraction may move between
// consecutive cycles.
type RampLimit struct {
	PerCycle float64 `yaml:"per_cycle"`
}

// Cycling controls activation scheduling and cycle magnitude.
type Cycling struct {
	MinCyclesPerYear             int       `yaml:"min_cycles_per_year"`
	MaxCyclesPerYear             int       `yaml:"max_cycles_per_year"`
	CycleMassFractionOfCapacity  Range     `yaml:"cycle_mass_fraction_of_capacity"`
	MaxRelativeChangeInCycleMass RampLimit `yaml:"max_relative_change_in_cycle_mass"`
	ModeMix                      ModeMix   `yaml:"mode_mix"`
}

// MassDist parameterizes a lognormal mass draw relative to working capacity.
type MassDist struct {
	RelativeMean          float64 `yaml:"relative_mean"`
	RelativeSigma         float64 `yaml:"relative_sigma"`
	MinFractionOfCapacity float64 `yaml:"min_fraction_of_capacity"`
	MaxFractionOfCapacity float64 `yaml:"max_fraction_of_capacity"`
}

// Distributions holds the stochastic parameters of the weekly loop. The
// withdrawal distribution is carried for config compatibility; the cycle
// state machine derives withdrawals from the injection-side target and the
// selected mode.
type Distributions struct {
	InjectionMassKg  MassDist   `yaml:"injection_mass_kg"`
	WithdrawalMassKg MassDist   `yaml:"withdrawal_mass_kg"`
	PressureNoiseMPa NormalDist `yaml:"pressure_noise_mpa"`
}

// ZSegmentYAML is the YAML form of one compressibility band.
type ZSegmentYAML struct {
	PressureMinMPa float64 `yaml:"pressure_min_mpa"`
	PressureMaxMPa float64 `yaml:"pressure_max_mpa"`
	Z              float64 `yaml:"Z"`
}

// CompressibilityZ wraps the segment table.
type CompressibilityZ struct {
	Segments []ZSegmentYAML `yaml:"segments"`
}

// TemperatureNoise describes the noise on the geothermal gradient.
type TemperatureNoise struct {
	Distribution string  `yaml:"distribution"`
	Mean         float64 `yaml:"mean"`
	Std          float64 `yaml:"std"`
}

// Thermodynamics holds gas constants and the Z table.
type Thermodynamics struct {
	GasConstantJPerMolK float64          `yaml:"gas_constant_R_J_per_molK"`
	MolarMassH2KgPerMol float64          `yaml:"molar_mass_H2_kg_per_mol"`
	CompressibilityZ    CompressibilityZ `yaml:"compressibility_Z"`
	TemperatureNoiseC   TemperatureNoise `yaml:"temperature_noise_c"`
}

// Losses bounds the dynamic loss fraction and static leak rate.
type Losses struct {
	LossFraction        Range `yaml:"loss_fraction"`
	StaticLeakKgPerYear Range `yaml:"static_leak_kg_per_year"`
}

// Purity parameterizes inlet purity and outlet noise, in percent.
type Purity struct {
	InletPurityPct    NormalDist `yaml:"inlet_purity_pct"`
	OutletPurityNoise NormalDist `yaml:"outlet_purity_noise_pct"`
}

// Validation holds downstream data-quality bounds.
type Validation struct {
	PressureBoundsMarginMPa float64 `yaml:"pressure_bounds_margin_mpa"`
	TemperatureC            Range   `yaml:"temperature_c"`
	PurityPct               Range   `yaml:"purity_pct"`
	LossFraction            Range   `yaml:"loss_fraction"`
	AllowMissingValues      bool    `yaml:"allow_missing_values"`
}

// MassBalance sets the residual tolerance.
type MassBalance struct {
	ToleranceFraction float64 `yaml:"tolerance_fraction"`
}

// Config is the full parsed configuration document.
type Config struct {
	Global         Global         `yaml:"global"`
	FacilityTypes  FacilityTypes  `yaml:"facility_types"`
	Cycling        Cycling        `yaml:"cycling"`
	Distributions  Distributions  `yaml:"distributions"`
	Thermodynamics Thermodynamics `yaml:"thermodynamics"`
	Losses         Losses         `yaml:"losses"`
	Purity         Purity         `yaml:"purity"`
	Validation     Validation     `yaml:"validation"`
	MassBalance    MassBalance    `yaml:"mass_balance"`
}

// Load reads and validates a configuration document from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// StartDate parses the simulation start date.
func (c *Config) StartDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Global.Simulation.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start_date %q: %w", c.Global.Simulation.StartDate, err)
	}
	return t.UTC(), nil
}

func (c *Config) validate() error {
	if c.Global.NFacilities <= 0 {
		return fmt.Errorf("global.n_facilities must be positive, got %d", c.Global.NFacilities)
	}
	if c.Global.Simulation.NYears <= 0 {
		return fmt.Errorf("global.simulation.n_years must be positive, got %d", c.Global.Simulation.NYears)
	}
	if _, err := c.StartDate(); err != nil {
		return err
	}
	if w := c.Global.FacilityTypeWeights; w.SaltCavern+w.PorousReservoir <= 0 {
		return fmt.Errorf("global.facility_type_weights must have a positive sum")
	}

	if c.Cycling.MinCyclesPerYear < 0 || c.Cycling.MaxCyclesPerYear < c.Cycling.MinCyclesPerYear {
		return fmt.Errorf("cycling.min/max_cycles_per_year invalid: [%d, %d]",
			c.Cycling.MinCyclesPerYear, c.Cycling.MaxCyclesPerYear)
	}
	mix := c.Cycling.ModeMix
	if mix.InjectionHeavyFraction+mix.WithdrawalHeavyFraction+mix.BalancedFraction <= 0 {
		return fmt.Errorf("cycling.mode_mix must have a positive sum")
	}
	capFrac := c.Cycling.CycleMassFractionOfCapacity
	if capFrac.Min < 0 || capFrac.Max < capFrac.Min {
		return fmt.Errorf("cycling.cycle_mass_fraction_of_capacity invalid: [%g, %g]", capFrac.Min, capFrac.Max)
	}
	if c.Cycling.MaxRelativeChangeInCycleMass.PerCycle < 0 {
		return fmt.Errorf("cycling.max_relative_change_in_cycle_mass.per_cycle must be non-negative")
	}

	if c.Thermodynamics.GasConstantJPerMolK <= 0 {
		return fmt.Errorf("thermodynamics.gas_constant_R_J_per_molK must be positive")
	}
	if c.Thermodynamics.MolarMassH2KgPerMol <= 0 {
		return fmt.Errorf("thermodynamics.molar_mass_H2_kg_per_mol must be positive")
	}
	segs := c.Thermodynamics.CompressibilityZ.Segments
	if len(segs) == 0 {
		return fmt.Errorf("thermodynamics.compressibility_Z.segments must not be empty")
	}
	for i, seg := range segs {
		if seg.PressureMaxMPa <= seg.PressureMinMPa {
			return fmt.Errorf("compressibility segment %d: max %g <= min %g", i, seg.PressureMaxMPa, seg.PressureMinMPa)
		}
		if seg.Z <= 0 {
			return fmt.Errorf("compressibility segment %d: Z must be positive, got %g", i, seg.Z)
		}
		if i > 0 && seg.PressureMinMPa < segs[i-1].PressureMaxMPa {
			return fmt.Errorf("compressibility segment %d overlaps segment %d", i, i-1)
		}
	}

	for _, ft := range []struct {
		name   string
		params FacilityTypeParams
	}{
		{"salt_cavern", c.FacilityTypes.SaltCavern},
		{"porous_reservoir", c.FacilityTypes.PorousReservoir},
	} {
		if ft.params.DepthM.Max < ft.params.DepthM.Min {
			return fmt.Errorf("facility_types.%s.depth_m invalid range", ft.name)
		}
		if ft.params.PressureMaxMPa <= ft.params.PressureMinMPa {
			return fmt.Errorf("facility_types.%s pressure bounds invalid: [%g, %g]",
				ft.name, ft.params.PressureMinMPa, ft.params.PressureMaxMPa)
		}
		if ft.params.WorkingGasFraction <= 0 || ft.params.WorkingGasFraction > 1 {
			return fmt.Errorf("facility_types.%s.working_gas_fraction must be in (0, 1], got %g",
				ft.name, ft.params.WorkingGasFraction)
		}
		if ft.params.CavernVolumeM3.Mean <= 0 {
			return fmt.Errorf("facility_types.%s.cavern_volume_m3.mean must be positive", ft.name)
		}
	}

	if c.Losses.LossFraction.Max < c.Losses.LossFraction.Min || c.Losses.LossFraction.Min < 0 {
		return fmt.Errorf("losses.loss_fraction invalid range")
	}
	if c.MassBalance.ToleranceFraction < 0 {
		return fmt.Errorf("mass_balance.tolerance_fraction must be non-negative")
	}

	return nil
}

// Thermo builds the physics view of the thermodynamic constants.
func (c *Config) Thermo() physics.ThermoConfig {
	segs := make([]physics.ZSegment, len(c.Thermodynamics.CompressibilityZ.Segments))
	for i, s := range c.Thermodynamics.CompressibilityZ.Segments {
		segs[i] = physics.ZSegment{
			PressureMinMPa: s.PressureMinMPa,
			PressureMaxMPa: s.PressureMaxMPa,
			Z:              s.Z,
		}
	}
	return physics.ThermoConfig{
		GasConstantJPerMolK: c.Thermodynamics.GasConstantJPerMolK,
		MolarMassH2KgPerMol: c.Thermodynamics.MolarMassH2KgPerMol,
		Segments:            segs,
	}
}

// TemperatureNoiseView builds the physics view of the temperature noise term.
func (c *Config) TemperatureNoiseView() physics.TemperatureNoiseConfig {
	tn := c.Thermodynamics.TemperatureNoiseC
	return physics.TemperatureNoiseConfig{
		Distribution: tn.Distribution,
		Mean:         tn.Mean,
		Std:          tn.Std,
	}
}

// Loss builds the physics view of the loss model.
func (c *Config) Loss() physics.LossConfig {
	return physics.LossConfig{
		LossMin:             c.Losses.LossFraction.Min,
		LossMax:             c.Losses.LossFraction.Max,
		StaticLeakMinKgYear: c.Losses.StaticLeakKgPerYear.Min,
		StaticLeakMaxKgYear: c.Losses.StaticLeakKgPerYear.Max,
	}
}

// PurityView builds the physics view of the purity model.
func (c *Config) PurityView() physics.PurityConfig {
	return physics.PurityConfig{
		InletMean:       c.Purity.InletPurityPct.Mean,
		InletStd:        c.Purity.InletPurityPct.Std,
		InletMin:        c.Purity.InletPurityPct.Min,
		InletMax:        c.Purity.InletPurityPct.Max,
		OutletNoiseMean: c.Purity.OutletPurityNoise.Mean,
		OutletNoiseStd:  c.Purity.OutletPurityNoise.Std,
		OutletNoiseMin:  c.Purity.OutletPurityNoise.Min,
		OutletNoiseMax:  c.Purity.OutletPurityNoise.Max,
	}
}

// ValidationView builds the physics view of the validation bounds.
func (c *Config) ValidationView() physics.ValidationConfig {
	return physics.ValidationConfig{
		PressureMarginMPa:        c.Validation.PressureBoundsMarginMPa,
		TemperatureMinC:          c.Validation.TemperatureC.Min,
		TemperatureMaxC:          c.Validation.TemperatureC.Max,
		PurityMinPct:             c.Validation.PurityPct.Min,
		PurityMaxPct:             c.Validation.PurityPct.Max,
		LossFractionMin:          c.Validation.LossFraction.Min,
		LossFractionMax:          c.Validation.LossFraction.Max,
		AllowMissingValues:       c.Validation.AllowMissingValues,
		MassBalanceToleranceFrac: c.MassBalance.ToleranceFraction,
	}
}
