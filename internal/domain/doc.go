// Package domain models the synthetic Underground Hydrogen Storage (UHS)
// Monitoring-Reporting-Verification dataset.
//
// # Dataset shape
//
// One generation run produces three tabular datasets:
//
//	facility_metadata    one row per facility (static attributes)
//	facility_timeseries  one row per facility × week
//	cycle_summary        one row per facility × active week
//
// # Facility types
//
// Facilities are either salt caverns or porous reservoirs. Both share one
// simulation code path; the type selects the parameter set (depth and
// pressure bounds, working-gas fraction, geothermal constants). Porosity
// and permeability are defined only for porous reservoirs and are nil for
// caverns; consumers render them as empty CSV cells or SQL NULLs.
//
// # Gas accounting conventions
//
// Working gas is the cycled portion of stored hydrogen; cushion gas is the
// fixed baseline mass that maintains minimum pressure and never changes
// after facility setup. Weekly records always satisfy
// 0 ≤ working_gas_kg ≤ working capacity, enforced by the inventory step
// rather than assumed.
//
// # Cycles
//
// A cycle is one discrete active week of net injection/withdrawal, not a
// multi-week span. Cycle indices count up from 1 per facility; a weekly
// record's cycle_index of 0 means no cycle was active that week. Cycle
// efficiency (withdrawn/injected) is nil when nothing was injected, an
// explicit undefined marker rather than an error.
//
// # Geography
//
// Country, region and coordinates are synthetic placeholders drawn from
// fixed candidate lists; they carry no geological meaning and exist to give
// the dataset a realistic shape for downstream tooling.
package domain
