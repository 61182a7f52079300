package domain

// FacilityType distinguishes the two storage geologies. The type is chosen
// once at facility creation; downstream formulas branch on it rather than
// dispatching dynamically.
type FacilityType string

const (
	// FacilityTypeSaltCavern is a solution-mined salt cavern.
	FacilityTypeSaltCavern FacilityType = "salt_cavern"
	// FacilityTypePorousReservoir is a depleted field or aquifer storage.
	FacilityTypePorousReservoir FacilityType = "porous_reservoir"
)

// Facility holds the static metadata of one storage site. Immutable after
// generation; the simulation loop consumes it read-only.
type Facility struct {
	ID          string       `json:"facility_id"`
	Type        FacilityType `json:"facility_type"`
	CountryCode string       `json:"country_code"`
	Region      string       `json:"region"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`

	DepthM float64 `json:"depth_m"`

	// VolumeM3 is the cavern volume for salt caverns, or the equivalent
	// pore volume for porous reservoirs.
	VolumeM3 float64 `json:"cavern_volume_m3"`

	// Porosity and PermeabilityMD are nil for salt caverns.
	Porosity       *float64 `json:"porosity,omitempty"`
	PermeabilityMD *float64 `json:"permeability_mD,omitempty"`

	PressureMinMPa float64 `json:"pressure_min_mpa"`
	PressureMaxMPa float64 `json:"pressure_max_mpa"`
}
