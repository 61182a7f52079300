package domain

import "time"

// WeeklyRecord is one row of the facility time-series: the state of one
// facility at the end of one simulated week. Immutable once appended.
type WeeklyRecord struct {
	FacilityID  string    `json:"facility_id"`
	Timestamp   time.Time `json:"timestamp"`
	CycleIndex  int       `json:"cycle_index"` // 0 = no active cycle
	CycleActive bool      `json:"is_cycle_active"`

	InjectedKg   float64 `json:"h2_injected_kg"`
	WithdrawnKg  float64 `json:"h2_withdrawn_kg"`
	WorkingGasKg float64 `json:"working_gas_kg"`
	CushionGasKg float64 `json:"cushion_gas_kg"`
	LossesKg     float64 `json:"losses_kg"`

	PressureMPa  float64 `json:"pressure_mpa"`
	TemperatureC float64 `json:"temperature_c"`
	PurityInPct  float64 `json:"purity_in_pct"`
	PurityOutPct float64 `json:"purity_out_pct"`

	// CycleEfficiency is withdrawn/injected for the week's cycle; nil on
	// inactive weeks and when nothing was injected.
	CycleEfficiency *float64 `json:"cycle_efficiency,omitempty"`

	// Mass-balance diagnostics, populated on active weeks only.
	MassBalanceResidual *float64 `json:"mass_balance_residual,omitempty"`
	MassBalanceOK       *bool    `json:"mass_balance_ok,omitempty"`
}

// CycleRecord summarizes one cycle (one active week). Created when the
// cycle occurs; AvgPressureMPa is backfilled after the facility's full
// weekly loop completes.
type CycleRecord struct {
	FacilityID string    `json:"facility_id"`
	CycleIndex int       `json:"cycle_index"`
	CycleStart time.Time `json:"cycle_start"`
	CycleEnd   time.Time `json:"cycle_end"`

	TotalInjectedKg  float64 `json:"total_injected_kg"`
	TotalWithdrawnKg float64 `json:"total_withdrawn_kg"`
	TotalLossesKg    float64 `json:"total_losses_kg"`

	// AvgPressureMPa is the mean weekly pressure over the cycle's weeks,
	// filled by the aggregation pass after simulation.
	AvgPressureMPa  float64  `json:"avg_pressure_mpa"`
	AvgTemperatureC float64  `json:"avg_temperature_c"`
	CycleEfficiency *float64 `json:"cycle_efficiency,omitempty"`
}

// Dataset bundles the three output tables of one generation run.
type Dataset struct {
	Facilities []Facility     `json:"facilities"`
	Weekly     []WeeklyRecord `json:"weekly"`
	Cycles     []CycleRecord  `json:"cycles"`

	// GeneratedAt is stamped from the package clock so tests can freeze it.
	GeneratedAt time.Time `json:"generated_at"`
}

// Float64Ptr returns a pointer to v. Convenience for the nullable record
// fields.
func Float64Ptr(v float64) *float64 { return &v }

// BoolPtr returns a pointer to v.
func BoolPtr(v bool) *bool { return &v }
