// Package physics implements the simplified real-gas model behind the
// synthetic UHS dataset.
//
// # Units
//
// Pressure is handled in MPa at package boundaries and converted to Pa
// internally (×1e6). Temperature is °C at boundaries, K internally
// (+273.15). Volume is m³, mass is kg, depth is m. Permeability is
// millidarcy (1 mD ≈ 9.869e-16 m²), viscosity centipoise (1 cP = 1e-3 Pa·s).
//
// # Real-gas relation
//
// The model uses P·V = Z(P)·n·R·T with a piecewise-constant compressibility
// factor Z over pressure bands supplied by configuration. The table's last
// segment extends to infinity: pressures outside every band return the last
// segment's Z. This open-ended fallback is deliberate, not a bug.
//
// Inverting mass → pressure requires solving for P with Z depending on P.
// PressureFromMass uses a fixed-point iteration: exactly five iterations
// seeded at 10 MPa, no convergence check. The iteration count is part of
// the output contract: published datasets were produced with five
// iterations, so changing it (or substituting a convergence-based solver)
// silently changes every pressure column.
//
// # Edge states
//
// Zero or negative volume and zero or negative mass are legitimate physical
// states (an empty cavern), not errors. Functions return 0 for them rather
// than failing; ratio-style quantities use nil to mark "undefined".
package physics
