package simulate

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
	"github.com/couchcryptid/uhs-mrv-generator/internal/sampler"
)

const simYAML = `
global:
  random_seed: 42
  n_facilities: 4
  facility_type_weights:
    salt_cavern: 0.6
    porous_reservoir: 0.4
  simulation:
    start_date: "2025-01-06"
    n_years: 1

facility_types:
  salt_cavern:
    depth_m: {min: 500, max: 1500}
    cavern_volume_m3: {mean: 500000, sigma: 0.4, min: 100000, max: 1000000}
    pressure_min_mpa: 7.0
    pressure_max_mpa: 20.0
    working_gas_fraction: 0.55
    base_temperature_c: 15.0
    temperature_gradient_c_per_km: 28.0
  porous_reservoir:
    depth_m: {min: 800, max: 2500}
    cavern_volume_m3: {mean: 500000, sigma: 0.4, min: 100000, max: 1000000}
    porosity: {min: 0.1, max: 0.3}
    permeability_mD: {mean: 100, sigma: 0.8, min: 5, max: 1000}
    pressure_min_mpa: 10.0
    pressure_max_mpa: 28.0
    working_gas_fraction: 0.35
    base_temperature_c: 15.0
    temperature_gradient_c_per_km: 30.0

cycling:
  min_cycles_per_year: 4
  max_cycles_per_year: 12
  cycle_mass_fraction_of_capacity: {min: 0.05, max: 0.35}
  max_relative_change_in_cycle_mass:
    per_cycle: 0.1
  mode_mix:
    injection_heavy_fraction: 0.35
    withdrawal_heavy_fraction: 0.35
    balanced_fraction: 0.30

distributions:
  injection_mass_kg:
    relative_mean: 0.15
    relative_sigma: 0.35
    min_fraction_of_capacity: 0.02
    max_fraction_of_capacity: 0.40
  withdrawal_mass_kg:
    relative_mean: 0.15
    relative_sigma: 0.35
    min_fraction_of_capacity: 0.02
    max_fraction_of_capacity: 0.40
  pressure_noise_mpa: {mean: 0.0, std: 0.15}

thermodynamics:
  gas_constant_R_J_per_molK: 8.314
  molar_mass_H2_kg_per_mol: 0.002016
  compressibility_Z:
    segments:
      - {pressure_min_mpa: 0.0, pressure_max_mpa: 10.0, Z: 1.03}
      - {pressure_min_mpa: 10.0, pressure_max_mpa: 20.0, Z: 1.08}
      - {pressure_min_mpa: 20.0, pressure_max_mpa: 35.0, Z: 1.15}
  temperature_noise_c: {distribution: normal, mean: 0.0, std: 0.8}

losses:
  loss_fraction: {min: 0.001, max: 0.01}
  static_leak_kg_per_year: {min: 1000, max: 20000}

purity:
  inlet_purity_pct: {mean: 99.5, std: 0.3, min: 98.0, max: 99.999}
  outlet_purity_noise_pct: {mean: -0.05, std: 0.05, min: -0.5, max: 0.2}

validation:
  pressure_bounds_margin_mpa: 0.5
  temperature_c: {min: -10.0, max: 120.0}
  purity_pct: {min: 80.0, max: 100.0}
  loss_fraction: {min: 0.0, max: 0.05}
  allow_missing_values: true

mass_balance:
  tolerance_fraction: 0.05
`

func simConfig(t *testing.T, replacements ...string) *config.Config {
	t.Helper()
	doc := simYAML
	require.Equal(t, 0, len(replacements)%2, "replacements must be old/new pairs")
	for i := 0; i < len(replacements); i += 2 {
		require.Contains(t, doc, replacements[i])
		doc = strings.Replace(doc, replacements[i], replacements[i+1], 1)
	}
	cfg, err := config.Parse([]byte(doc))
	require.NoError(t, err)
	return cfg
}

// capacityAfterSchedule recovers the capacity SimulateFacility will compute
// by replaying the run's draw sequence on a second sampler: the schedule
// draws advance it to the exact position of the capacity temperature draw.
func capacityAfterSchedule(cfg *config.Config, weeks []time.Time, f domain.Facility) (wcap, cushion float64) {
	s := sampler.New(cfg.Global.RandomSeed)
	BuildSchedule(cfg.Cycling, weeks, s)
	return New(cfg, s).facilityCapacityKg(f)
}

func testFacility() domain.Facility {
	return domain.Facility{
		ID:             "UHS_001",
		Type:           domain.FacilityTypeSaltCavern,
		CountryCode:    "NO",
		Region:         "Nordic",
		DepthM:         1000,
		VolumeM3:       500000,
		PressureMinMPa: 7.0,
		PressureMaxMPa: 20.0,
	}
}

func TestWeeklyIndex(t *testing.T) {
	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	weeks := WeeklyIndex(start, 2)

	require.Len(t, weeks, 104)
	assert.Equal(t, start, weeks[0])
	for i := 1; i < len(weeks); i++ {
		assert.Equal(t, 7*24*time.Hour, weeks[i].Sub(weeks[i-1]))
	}
}

func TestBuildSchedule(t *testing.T) {
	cfg := simConfig(t, "n_years: 1", "n_years: 2")
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, cfg.Global.Simulation.NYears)

	t.Run("per year counts within bounds", func(t *testing.T) {
		sched := BuildSchedule(cfg.Cycling, weeks, sampler.New(7))

		perYear := make(map[int]int)
		for idx, ts := range weeks {
			if sched.Active(idx) {
				perYear[ts.Year()]++
			}
		}
		require.NotEmpty(t, perYear)
		for year, n := range perYear {
			assert.GreaterOrEqual(t, n, cfg.Cycling.MinCyclesPerYear, "year %d", year)
			assert.LessOrEqual(t, n, cfg.Cycling.MaxCyclesPerYear, "year %d", year)
		}
	})

	t.Run("count clamps to weeks in year", func(t *testing.T) {
		clamped := simConfig(t,
			"min_cycles_per_year: 4", "min_cycles_per_year: 60",
			"max_cycles_per_year: 12", "max_cycles_per_year: 60",
		)
		oneYear := WeeklyIndex(start, 1)
		sched := BuildSchedule(clamped.Cycling, oneYear, sampler.New(7))
		assert.Equal(t, len(oneYear), sched.ActiveCount())
	})

	t.Run("deterministic for a seed", func(t *testing.T) {
		a := BuildSchedule(cfg.Cycling, weeks, sampler.New(99))
		b := BuildSchedule(cfg.Cycling, weeks, sampler.New(99))
		for idx := range weeks {
			assert.Equal(t, a.Active(idx), b.Active(idx), "week %d", idx)
		}
	})
}

func TestGenerateFacilities(t *testing.T) {
	cfg := simConfig(t)
	sim := New(cfg, sampler.New(cfg.Global.RandomSeed))
	facilities := sim.GenerateFacilities()

	require.Len(t, facilities, cfg.Global.NFacilities)
	assert.Equal(t, "UHS_001", facilities[0].ID)
	assert.Equal(t, "UHS_004", facilities[3].ID)

	for _, f := range facilities {
		assert.Contains(t, []string{"US", "DE", "NL", "FR", "NO"}, f.CountryCode)
		assert.InDelta(t, 0, f.Latitude, 60)
		assert.InDelta(t, 0, f.Longitude, 180)
		assert.GreaterOrEqual(t, f.VolumeM3, 100000.0)
		assert.LessOrEqual(t, f.VolumeM3, 1000000.0)

		switch f.Type {
		case domain.FacilityTypeSaltCavern:
			assert.Nil(t, f.Porosity)
			assert.Nil(t, f.PermeabilityMD)
			assert.Equal(t, 20.0, f.PressureMaxMPa)
			assert.GreaterOrEqual(t, f.DepthM, 500.0)
			assert.LessOrEqual(t, f.DepthM, 1500.0)
		case domain.FacilityTypePorousReservoir:
			require.NotNil(t, f.Porosity)
			require.NotNil(t, f.PermeabilityMD)
			assert.GreaterOrEqual(t, *f.Porosity, 0.1)
			assert.LessOrEqual(t, *f.Porosity, 0.3)
			assert.GreaterOrEqual(t, *f.PermeabilityMD, 5.0)
			assert.LessOrEqual(t, *f.PermeabilityMD, 1000.0)
			assert.Equal(t, 28.0, f.PressureMaxMPa)
		default:
			t.Fatalf("unexpected facility type %q", f.Type)
		}
	}

	t.Run("deterministic for a seed", func(t *testing.T) {
		again := New(cfg, sampler.New(cfg.Global.RandomSeed)).GenerateFacilities()
		assert.Equal(t, facilities, again)
	})
}

func TestSimulateFacility_AllActive(t *testing.T) {
	cfg := simConfig(t,
		"min_cycles_per_year: 4", "min_cycles_per_year: 52",
		"max_cycles_per_year: 12", "max_cycles_per_year: 52",
	)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	s := sampler.New(cfg.Global.RandomSeed)
	sched := BuildSchedule(cfg.Cycling, weeks, s)
	require.Equal(t, 52, sched.ActiveCount())

	sim := New(cfg, s)
	f := testFacility()
	weekly, cycles, stats := sim.SimulateFacility(f, weeks, sched)

	require.Len(t, weekly, 52)
	require.Len(t, cycles, 52)
	assert.Equal(t, 52, stats.ActiveWeeks)

	wcap, cushion := capacityAfterSchedule(cfg, weeks, f)
	require.Positive(t, wcap)

	for i, r := range weekly {
		assert.Equal(t, f.ID, r.FacilityID)
		assert.True(t, r.CycleActive)
		assert.Equal(t, i+1, r.CycleIndex)
		assert.GreaterOrEqual(t, r.WorkingGasKg, 0.0)
		assert.LessOrEqual(t, r.WorkingGasKg, wcap*(1+1e-9))
		assert.GreaterOrEqual(t, r.PressureMPa, f.PressureMinMPa-0.5)
		assert.LessOrEqual(t, r.PressureMPa, f.PressureMaxMPa+0.5)
		assert.Positive(t, r.LossesKg)
		assert.GreaterOrEqual(t, r.PurityInPct, 98.0)
		assert.LessOrEqual(t, r.PurityInPct, 99.999)
		require.NotNil(t, r.MassBalanceResidual, "week %d", i)
		require.NotNil(t, r.MassBalanceOK, "week %d", i)
		assert.True(t, *r.MassBalanceOK, "week %d residual %g", i, *r.MassBalanceResidual)
		if r.InjectedKg > 0 {
			require.NotNil(t, r.CycleEfficiency)
			assert.InDelta(t, r.WithdrawnKg/r.InjectedKg, *r.CycleEfficiency, 1e-12)
		}
	}

	t.Run("cushion gas stays constant", func(t *testing.T) {
		for _, r := range weekly {
			assert.Equal(t, cushion, r.CushionGasKg)
		}
	})

	t.Run("cycle summaries mirror their week", func(t *testing.T) {
		byIndex := make(map[int]domain.WeeklyRecord)
		for _, r := range weekly {
			byIndex[r.CycleIndex] = r
		}
		for _, c := range cycles {
			w, ok := byIndex[c.CycleIndex]
			require.True(t, ok)
			assert.Equal(t, w.Timestamp, c.CycleStart)
			assert.Equal(t, w.Timestamp.AddDate(0, 0, 7), c.CycleEnd)
			assert.Equal(t, w.InjectedKg, c.TotalInjectedKg)
			assert.Equal(t, w.WithdrawnKg, c.TotalWithdrawnKg)
			assert.Equal(t, w.LossesKg, c.TotalLossesKg)
			assert.Equal(t, w.TemperatureC, c.AvgTemperatureC)
			// Single-week cycles: the average collapses to the week's value.
			assert.Equal(t, w.PressureMPa, c.AvgPressureMPa)
		}
	})
}

func TestSimulateFacility_NoActiveCycles(t *testing.T) {
	cfg := simConfig(t,
		"min_cycles_per_year: 4", "min_cycles_per_year: 0",
		"max_cycles_per_year: 12", "max_cycles_per_year: 0",
	)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	s := sampler.New(cfg.Global.RandomSeed)
	sched := BuildSchedule(cfg.Cycling, weeks, s)
	require.Equal(t, 0, sched.ActiveCount())

	sim := New(cfg, s)
	weekly, cycles, stats := sim.SimulateFacility(testFacility(), weeks, sched)

	require.Len(t, weekly, 52)
	assert.Empty(t, cycles)
	assert.Equal(t, Stats{}, stats)

	for i, r := range weekly {
		assert.False(t, r.CycleActive)
		assert.Equal(t, 0, r.CycleIndex)
		assert.Zero(t, r.InjectedKg)
		assert.Zero(t, r.WithdrawnKg)
		assert.Nil(t, r.CycleEfficiency)
		assert.Nil(t, r.MassBalanceResidual)
		// No cycle ever ran, so purity holds the inlet mean.
		assert.Equal(t, 99.5, r.PurityInPct)
		assert.Equal(t, 99.5, r.PurityOutPct)
		if i > 0 {
			// Only the static leak moves the inventory.
			assert.LessOrEqual(t, r.WorkingGasKg, weekly[i-1].WorkingGasKg)
			assert.Equal(t, weekly[0].LossesKg, r.LossesKg)
		}
	}
}

func TestSimulateFacility_RampPinned(t *testing.T) {
	// With a zero ramp limit the cycle fraction can never leave its 0.1
	// start, so the per-cycle target mass is exactly 0.1 of capacity.
	cfg := simConfig(t,
		"min_cycles_per_year: 4", "min_cycles_per_year: 52",
		"max_cycles_per_year: 12", "max_cycles_per_year: 52",
		"per_cycle: 0.1", "per_cycle: 0.0",
		"injection_heavy_fraction: 0.35", "injection_heavy_fraction: 1.0",
		"withdrawal_heavy_fraction: 0.35", "withdrawal_heavy_fraction: 0.0",
		"balanced_fraction: 0.30", "balanced_fraction: 0.0",
	)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	s := sampler.New(cfg.Global.RandomSeed)
	sched := BuildSchedule(cfg.Cycling, weeks, s)
	sim := New(cfg, s)
	f := testFacility()
	_, cycles, stats := sim.SimulateFacility(f, weeks, sched)

	wcap, _ := capacityAfterSchedule(cfg, weeks, f)
	target := 0.1 * wcap

	require.Len(t, cycles, 52)
	clamped := 0
	for _, c := range cycles {
		// Injection-heavy: injected is the full target unless the capacity
		// clamp trimmed it.
		assert.LessOrEqual(t, c.TotalInjectedKg, target*(1+1e-9))
		assert.LessOrEqual(t, c.TotalWithdrawnKg, 0.6*target)
		if c.TotalInjectedKg < target*(1-1e-9) {
			clamped++
		}
	}
	assert.GreaterOrEqual(t, stats.ExcessClamps, clamped)
	assert.Zero(t, stats.DeficitClamps)
}

func TestSimulateFacility_TinyCapacity(t *testing.T) {
	// A sub-m³ cavern holds only a few kg of working gas, so the weekly
	// static leak dwarfs the inventory and every active week forces a
	// correction. Inventory bounds must hold through all of it.
	cfg := simConfig(t,
		"min_cycles_per_year: 4", "min_cycles_per_year: 52",
		"max_cycles_per_year: 12", "max_cycles_per_year: 52",
	)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	s := sampler.New(cfg.Global.RandomSeed)
	sched := BuildSchedule(cfg.Cycling, weeks, s)
	sim := New(cfg, s)

	f := testFacility()
	f.VolumeM3 = 0.5
	weekly, cycles, stats := sim.SimulateFacility(f, weeks, sched)

	wcap, _ := capacityAfterSchedule(cfg, weeks, f)
	require.Positive(t, wcap)
	require.Less(t, wcap, 100.0, "capacity should be tiny for a 0.5 m3 cavern")

	require.Len(t, weekly, 52)
	require.Len(t, cycles, 52)
	for i, r := range weekly {
		assert.GreaterOrEqual(t, r.WorkingGasKg, 0.0, "week %d", i)
		assert.LessOrEqual(t, r.WorkingGasKg, wcap*(1+1e-9), "week %d", i)
		assert.GreaterOrEqual(t, r.InjectedKg, 0.0, "week %d", i)
		assert.GreaterOrEqual(t, r.WithdrawnKg, 0.0, "week %d", i)
		assert.GreaterOrEqual(t, r.LossesKg, 0.0, "week %d", i)
	}
	assert.Positive(t, stats.DeficitClamps,
		"the static leak must deplete a tiny inventory every active week")
}

func TestSimulateFacility_RampBetweenCycles(t *testing.T) {
	// Injection-heavy mode makes the applied cycle fraction observable as
	// InjectedKg / capacity, provided the capacity clamp never trims the
	// injection. A static leak above the largest possible weekly net gain
	// keeps the inventory away from capacity, so every cycle is observable.
	cfg := simConfig(t,
		"min_cycles_per_year: 4", "min_cycles_per_year: 52",
		"max_cycles_per_year: 12", "max_cycles_per_year: 52",
		"injection_heavy_fraction: 0.35", "injection_heavy_fraction: 1.0",
		"withdrawal_heavy_fraction: 0.35", "withdrawal_heavy_fraction: 0.0",
		"balanced_fraction: 0.30", "balanced_fraction: 0.0",
		"static_leak_kg_per_year: {min: 1000, max: 20000}",
		"static_leak_kg_per_year: {min: 1.0e8, max: 1.0e8}",
	)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	s := sampler.New(cfg.Global.RandomSeed)
	sched := BuildSchedule(cfg.Cycling, weeks, s)
	sim := New(cfg, s)
	f := testFacility()
	weekly, _, stats := sim.SimulateFacility(f, weeks, sched)

	wcap, _ := capacityAfterSchedule(cfg, weeks, f)
	require.Positive(t, wcap)
	require.Zero(t, stats.ExcessClamps, "capacity clamps would hide the applied fraction")

	capFrac := cfg.Cycling.CycleMassFractionOfCapacity
	maxDelta := cfg.Cycling.MaxRelativeChangeInCycleMass.PerCycle

	require.Len(t, weekly, 52)
	prevFrac := weekly[0].InjectedKg / wcap
	for i, r := range weekly[1:] {
		frac := r.InjectedKg / wcap
		assert.GreaterOrEqual(t, frac, capFrac.Min*(1-1e-9), "cycle %d", i+2)
		assert.LessOrEqual(t, frac, capFrac.Max*(1+1e-9), "cycle %d", i+2)
		assert.LessOrEqual(t, frac-prevFrac, maxDelta+1e-9,
			"cycle %d moved up more than the ramp allows", i+2)
		assert.GreaterOrEqual(t, frac-prevFrac, -maxDelta-1e-9,
			"cycle %d moved down more than the ramp allows", i+2)
		prevFrac = frac
	}
}

func TestSimulateFacility_Deterministic(t *testing.T) {
	cfg := simConfig(t)
	start, err := cfg.StartDate()
	require.NoError(t, err)
	weeks := WeeklyIndex(start, 1)

	run := func() ([]domain.WeeklyRecord, []domain.CycleRecord) {
		s := sampler.New(cfg.Global.RandomSeed)
		sched := BuildSchedule(cfg.Cycling, weeks, s)
		sim := New(cfg, s)
		w, c, _ := sim.SimulateFacility(testFacility(), weeks, sched)
		return w, c
	}

	w1, c1 := run()
	w2, c2 := run()
	assert.Equal(t, w1, w2)
	assert.Equal(t, c1, c2)
}

func TestBackfillAvgPressure(t *testing.T) {
	weekly := []domain.WeeklyRecord{
		{CycleIndex: 0, PressureMPa: 11.0},
		{CycleIndex: 1, PressureMPa: 12.0},
		{CycleIndex: 0, PressureMPa: 13.0},
		{CycleIndex: 2, PressureMPa: 14.0},
	}
	cycles := []domain.CycleRecord{
		{CycleIndex: 1},
		{CycleIndex: 2},
	}

	backfillAvgPressure(weekly, cycles)

	assert.Equal(t, 12.0, cycles[0].AvgPressureMPa)
	assert.Equal(t, 14.0, cycles[1].AvgPressureMPa)
}
