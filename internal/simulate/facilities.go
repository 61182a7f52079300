package simulate

import (
	"fmt"

	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

// Placeholder geography pools. Drawn uniformly per facility; purely
// decorative (see the domain package doc).
var (
	countryCodes = []string{"US", "DE", "NL", "FR", "NO"}
	regionNames  = []string{"Gulf Coast", "North Sea", "Onshore EU", "Offshore EU", "Nordic"}
)

// GenerateFacilities draws static metadata for every facility in the run.
//
// Draw order per facility is fixed: type, country, region, latitude,
// longitude, then the type-specific attributes (salt cavern: depth, volume;
// porous reservoir: depth, porosity, permeability, pore volume). All
// facility draws happen before any simulation draw.
func (sim *Simulator) GenerateFacilities() []domain.Facility {
	weights := []float64{
		sim.cfg.Global.FacilityTypeWeights.SaltCavern,
		sim.cfg.Global.FacilityTypeWeights.PorousReservoir,
	}

	facilities := make([]domain.Facility, 0, sim.cfg.Global.NFacilities)
	for i := 0; i < sim.cfg.Global.NFacilities; i++ {
		f := domain.Facility{ID: fmt.Sprintf("UHS_%03d", i+1)}
		if sim.s.WeightedChoice(weights) == 0 {
			f.Type = domain.FacilityTypeSaltCavern
		} else {
			f.Type = domain.FacilityTypePorousReservoir
		}
		f.CountryCode = countryCodes[sim.s.IntBetween(0, len(countryCodes)-1)]
		f.Region = regionNames[sim.s.IntBetween(0, len(regionNames)-1)]
		f.Latitude = sim.s.Uniform(-60, 60)
		f.Longitude = sim.s.Uniform(-180, 180)

		switch f.Type {
		case domain.FacilityTypeSaltCavern:
			p := sim.cfg.FacilityTypes.SaltCavern
			f.DepthM = sim.s.Uniform(p.DepthM.Min, p.DepthM.Max)
			f.VolumeM3 = sim.sampleVolume(p.CavernVolumeM3)
			f.PressureMinMPa = p.PressureMinMPa
			f.PressureMaxMPa = p.PressureMaxMPa

		case domain.FacilityTypePorousReservoir:
			p := sim.cfg.FacilityTypes.PorousReservoir
			f.DepthM = sim.s.Uniform(p.DepthM.Min, p.DepthM.Max)
			f.Porosity = domain.Float64Ptr(sim.s.Uniform(p.Porosity.Min, p.Porosity.Max))
			f.PermeabilityMD = domain.Float64Ptr(sim.s.LognormalBounded(
				p.PermeabilityMD.Mean, p.PermeabilityMD.Sigma,
				p.PermeabilityMD.Min, p.PermeabilityMD.Max,
			))
			// Porous reservoirs store in pore space; an equivalent pore
			// volume is sampled from the salt-cavern volume distribution.
			f.VolumeM3 = sim.sampleVolume(sim.cfg.FacilityTypes.SaltCavern.CavernVolumeM3)
			f.PressureMinMPa = p.PressureMinMPa
			f.PressureMaxMPa = p.PressureMaxMPa
		}

		facilities = append(facilities, f)
	}
	return facilities
}

func (sim *Simulator) sampleVolume(r config.LognormalRange) float64 {
	return sim.s.LognormalBounded(r.Mean, r.Sigma, r.Min, r.Max)
}

// typeParams returns the parameter set for a facility's geology.
func (sim *Simulator) typeParams(t domain.FacilityType) config.FacilityTypeParams {
	if t == domain.FacilityTypeSaltCavern {
		return sim.cfg.FacilityTypes.SaltCavern
	}
	return sim.cfg.FacilityTypes.PorousReservoir
}
