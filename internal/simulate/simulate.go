// Package simulate drives the facility-level generation: static facility
// metadata, the shared activation schedule, and the weekly cycle state
// machine that produces the time-series and cycle-summary tables.
//
// Everything here draws from a single sampler in a fixed order so that a
// given seed always yields the same dataset. Do not reorder draws, add
// draws on conditional paths, or consume randomness outside the documented
// sequence.
package simulate

import (
	"time"

	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
	"github.com/couchcryptid/uhs-mrv-generator/internal/physics"
	"github.com/couchcryptid/uhs-mrv-generator/internal/sampler"
)

// Simulator binds the configuration views and the run's sampler. One
// Simulator generates one dataset; its sampler is consumed as it goes.
type Simulator struct {
	cfg        *config.Config
	thermo     physics.ThermoConfig
	tempNoise  physics.TemperatureNoiseConfig
	loss       physics.LossConfig
	purity     physics.PurityConfig
	validation physics.ValidationConfig
	s          *sampler.Sampler
}

// New builds a Simulator from a validated config and a sampler.
func New(cfg *config.Config, s *sampler.Sampler) *Simulator {
	return &Simulator{
		cfg:        cfg,
		thermo:     cfg.Thermo(),
		tempNoise:  cfg.TemperatureNoiseView(),
		loss:       cfg.Loss(),
		purity:     cfg.PurityView(),
		validation: cfg.ValidationView(),
		s:          s,
	}
}

// Stats counts per-facility simulation events that are worth surfacing as
// metrics but do not belong in the dataset itself.
type Stats struct {
	ActiveWeeks   int
	DeficitClamps int // withdrawals reduced to keep working gas >= 0
	ExcessClamps  int // injections reduced to keep working gas <= capacity
}

// facilityCapacityKg derives the working gas capacity and cushion gas mass
// from the facility's volume and a representative temperature at depth.
// Consumes one temperature noise draw.
func (sim *Simulator) facilityCapacityKg(f domain.Facility) (workingCapacityKg, cushionGasKg float64) {
	p := sim.typeParams(f.Type)
	tempC := physics.TemperatureAtDepth(
		f.DepthM, p.BaseTemperatureC, p.TemperatureGradientCPerKm, sim.tempNoise, sim.s,
	)
	totalMassKg := physics.MassFromPVT(p.PressureMaxMPa, tempC, f.VolumeM3, sim.thermo)

	workingCapacityKg = max(totalMassKg*p.WorkingGasFraction, 0)
	cushionGasKg = max(totalMassKg-workingCapacityKg, 0)
	return workingCapacityKg, cushionGasKg
}

// SimulateFacility runs the weekly loop for one facility over the shared
// time axis and schedule. Storage starts half full of working gas; the
// cycle mass fraction ramps from 0.1.
func (sim *Simulator) SimulateFacility(
	f domain.Facility,
	weeks []time.Time,
	sched Schedule,
) ([]domain.WeeklyRecord, []domain.CycleRecord, Stats) {
	p := sim.typeParams(f.Type)
	dist := sim.cfg.Distributions
	cyc := sim.cfg.Cycling

	workingCapacityKg, cushionGasKg := sim.facilityCapacityKg(f)

	staticLeakYearKg := sim.s.Uniform(sim.loss.StaticLeakMinKgYear, sim.loss.StaticLeakMaxKgYear)
	staticLeakWeekKg := staticLeakYearKg / 52.0

	modeWeights := []float64{
		cyc.ModeMix.InjectionHeavyFraction,
		cyc.ModeMix.WithdrawalHeavyFraction,
		cyc.ModeMix.BalancedFraction,
	}

	var (
		records      []domain.WeeklyRecord
		cycleRecords []domain.CycleRecord
		stats        Stats

		workingGasKg      = workingCapacityKg * 0.5
		lastCycleFraction = 0.1
		cycleIndex        = 0
	)

	for idx, ts := range weeks {
		isActive := sched.Active(idx)

		temperatureC := physics.TemperatureAtDepth(
			f.DepthM, p.BaseTemperatureC, p.TemperatureGradientCPerKm, sim.tempNoise, sim.s,
		)

		// Static leak applies every week, active or not.
		workingGasKg = max(workingGasKg-staticLeakWeekKg, 0)
		staticLossesKg := staticLeakWeekKg

		var (
			injectedKg, withdrawnKg float64
			totalLossesKg           float64
			efficiency              *float64
			residual                *float64
			balanceOK               *bool
			purityInPct             float64
			purityOutPct            float64
			hasPurity               bool
		)

		if isActive {
			cycleIndex++
			stats.ActiveWeeks++

			mode := sim.s.WeightedChoice(modeWeights)

			// Target cycle mass fraction, ramped against the previous cycle.
			targetFrac := sim.s.LognormalBounded(
				dist.InjectionMassKg.RelativeMean, dist.InjectionMassKg.RelativeSigma,
				cyc.CycleMassFractionOfCapacity.Min, cyc.CycleMassFractionOfCapacity.Max,
			)
			delta := targetFrac - lastCycleFraction
			maxDelta := cyc.MaxRelativeChangeInCycleMass.PerCycle
			delta = max(-maxDelta, min(delta, maxDelta))
			cycleFrac := lastCycleFraction + delta
			cycleFrac = max(cyc.CycleMassFractionOfCapacity.Min,
				min(cycleFrac, cyc.CycleMassFractionOfCapacity.Max))
			lastCycleFraction = cycleFrac

			targetMassKg := workingCapacityKg * cycleFrac

			switch mode {
			case 0: // injection heavy
				injectedKg = targetMassKg
				withdrawnKg = targetMassKg * sim.s.Uniform(0.1, 0.6)
			case 1: // withdrawal heavy
				withdrawnKg = targetMassKg
				injectedKg = targetMassKg * sim.s.Uniform(0.1, 0.6)
			default: // balanced
				eps := sim.s.Uniform(-0.1, 0.1) * targetMassKg
				injectedKg = max(targetMassKg+eps, 0)
				withdrawnKg = max(targetMassKg-eps, 0)
			}

			lossFraction := physics.SampleLossFraction(sim.loss, sim.s)
			dynamicLossesKg := physics.CycleLossesKg(workingGasKg, lossFraction)

			// Note: the static leak was already subtracted above and is
			// charged to the balance again here.
			prevWorkingKg := workingGasKg
			workingGasKg = workingGasKg + injectedKg - withdrawnKg - dynamicLossesKg - staticLossesKg

			if workingGasKg < 0 {
				reduction := min(-workingGasKg, withdrawnKg)
				withdrawnKg -= reduction
				workingGasKg = 0
				stats.DeficitClamps++
			}
			if workingGasKg > workingCapacityKg {
				reduction := min(workingGasKg-workingCapacityKg, injectedKg)
				injectedKg -= reduction
				workingGasKg = workingCapacityKg
				stats.ExcessClamps++
			}

			totalLossesKg = dynamicLossesKg + staticLossesKg
			deltaStorageKg := workingGasKg - prevWorkingKg

			// Efficiency reflects the post-clamp masses.
			if injectedKg > 0 {
				efficiency = domain.Float64Ptr(withdrawnKg / injectedKg)
			}

			purityInPct = physics.SampleInletPurity(sim.purity, sim.s)
			purityOutPct = physics.OutletPurity(purityInPct, sim.purity, sim.s)
			hasPurity = true

			r := physics.MassBalanceResidual(injectedKg, withdrawnKg, totalLossesKg, deltaStorageKg)
			residual = domain.Float64Ptr(r)
			balanceOK = domain.BoolPtr(r <= sim.validation.MassBalanceToleranceFrac)

			cycleRecords = append(cycleRecords, domain.CycleRecord{
				FacilityID:       f.ID,
				CycleIndex:       cycleIndex,
				CycleStart:       ts,
				CycleEnd:         ts.AddDate(0, 0, 7),
				TotalInjectedKg:  injectedKg,
				TotalWithdrawnKg: withdrawnKg,
				TotalLossesKg:    totalLossesKg,
				AvgTemperatureC:  temperatureC,
				CycleEfficiency:  efficiency,
			})
		} else {
			totalLossesKg = staticLossesKg
		}

		pressureMPa := physics.PressureFromMass(
			workingGasKg+cushionGasKg, temperatureC, f.VolumeM3, sim.thermo,
		)
		pressureMPa += sim.s.Normal(dist.PressureNoiseMPa.Mean, dist.PressureNoiseMPa.Std)
		pressureMPa = max(f.PressureMinMPa-sim.validation.PressureMarginMPa, pressureMPa)
		pressureMPa = min(f.PressureMaxMPa+sim.validation.PressureMarginMPa, pressureMPa)

		// Inactive weeks carry the previous purity forward; before the
		// first cycle, fall back to the inlet mean.
		if !hasPurity {
			if len(records) > 0 {
				purityInPct = records[len(records)-1].PurityInPct
				purityOutPct = records[len(records)-1].PurityOutPct
			} else {
				purityInPct = sim.purity.InletMean
				purityOutPct = sim.purity.InletMean
			}
		}

		weekCycleIndex := 0
		if isActive {
			weekCycleIndex = cycleIndex
		}
		records = append(records, domain.WeeklyRecord{
			FacilityID:          f.ID,
			Timestamp:           ts,
			CycleIndex:          weekCycleIndex,
			CycleActive:         isActive,
			InjectedKg:          injectedKg,
			WithdrawnKg:         withdrawnKg,
			WorkingGasKg:        workingGasKg,
			CushionGasKg:        cushionGasKg,
			LossesKg:            totalLossesKg,
			PressureMPa:         pressureMPa,
			TemperatureC:        temperatureC,
			PurityInPct:         purityInPct,
			PurityOutPct:        purityOutPct,
			CycleEfficiency:     efficiency,
			MassBalanceResidual: residual,
			MassBalanceOK:       balanceOK,
		})
	}

	backfillAvgPressure(records, cycleRecords)
	return records, cycleRecords, stats
}

// backfillAvgPressure fills each cycle's AvgPressureMPa with the mean weekly
// pressure of the weeks carrying its index. Cycles are currently one week
// long, so the mean collapses to that week's pressure, but the aggregation
// stays general.
func backfillAvgPressure(weekly []domain.WeeklyRecord, cycles []domain.CycleRecord) {
	type agg struct {
		sum float64
		n   int
	}
	byCycle := make(map[int]agg)
	for _, r := range weekly {
		if r.CycleIndex == 0 {
			continue
		}
		a := byCycle[r.CycleIndex]
		a.sum += r.PressureMPa
		a.n++
		byCycle[r.CycleIndex] = a
	}
	for i := range cycles {
		if a, ok := byCycle[cycles[i].CycleIndex]; ok && a.n > 0 {
			cycles[i].AvgPressureMPa = a.sum / float64(a.n)
		}
	}
}
