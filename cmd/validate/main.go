// Command validate checks a written dataset for internal consistency: table
// shape and cross-references, physical bounds, mass-balance bookkeeping, and
// (given the generating config) byte-exact reproducibility.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -config config/uhs_config.yaml \
//	  -data-dir data/generated
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"reflect"

	"github.com/couchcryptid/uhs-mrv-generator/internal/adapter/csvfile"
	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
	"github.com/couchcryptid/uhs-mrv-generator/internal/observability"
	"github.com/couchcryptid/uhs-mrv-generator/internal/physics"
	"github.com/couchcryptid/uhs-mrv-generator/internal/pipeline"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	configPath := flag.String("config", "", "path to the generator configuration")
	dataDir := flag.String("data-dir", "", "directory containing the generated CSV tables")
	flag.Parse()

	if *configPath == "" || *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*configPath, *dataDir); code != 0 {
		os.Exit(code)
	}
}

func run(configPath, dataDir string) int {
	fmt.Println("=== UHS Dataset Validation ===")
	fmt.Println()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		return 1
	}

	ds, err := csvfile.ReadDataset(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateShape(ds, cfg),
		validateBounds(ds, cfg),
		validateMassBalance(ds, cfg),
		validateReproducibility(ds, cfg),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d facilities, %d weekly, %d cycles\n",
		len(ds.Facilities), len(ds.Weekly), len(ds.Cycles))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Table Shape ──
// Row counts, unique keys, and cross-references between the tables.

func validateShape(ds *domain.Dataset, cfg *config.Config) *phase {
	p := &phase{name: "Phase 1: Table Shape & References"}

	if len(ds.Facilities) != cfg.Global.NFacilities {
		p.errorf("facility count: expected %d, got %d", cfg.Global.NFacilities, len(ds.Facilities))
	}

	facilityIDs := make(map[string]bool, len(ds.Facilities))
	for _, f := range ds.Facilities {
		if facilityIDs[f.ID] {
			p.errorf("duplicate facility_id %q", f.ID)
		}
		facilityIDs[f.ID] = true
		if f.Type != domain.FacilityTypeSaltCavern && f.Type != domain.FacilityTypePorousReservoir {
			p.errorf("facility %s: unknown type %q", f.ID, f.Type)
		}
		if f.Type == domain.FacilityTypePorousReservoir && (f.Porosity == nil || f.PermeabilityMD == nil) {
			p.errorf("facility %s: porous reservoir missing porosity or permeability", f.ID)
		}
	}

	weeksPerFacility := cfg.Global.Simulation.NYears * 52
	if expected := len(ds.Facilities) * weeksPerFacility; len(ds.Weekly) != expected {
		p.errorf("weekly count: expected %d, got %d", expected, len(ds.Weekly))
	}

	// Each cycle row must reference exactly one active weekly row.
	activeWeeks := make(map[string]map[int]domain.WeeklyRecord)
	for i, r := range ds.Weekly {
		if !facilityIDs[r.FacilityID] {
			p.errorf("weekly row %d: unknown facility_id %q", i, r.FacilityID)
			continue
		}
		if !r.CycleActive {
			if r.CycleIndex != 0 {
				p.errorf("weekly row %d: inactive week has cycle_index %d", i, r.CycleIndex)
			}
			continue
		}
		if r.CycleIndex <= 0 {
			p.errorf("weekly row %d: active week has cycle_index %d", i, r.CycleIndex)
			continue
		}
		if activeWeeks[r.FacilityID] == nil {
			activeWeeks[r.FacilityID] = make(map[int]domain.WeeklyRecord)
		}
		if _, dup := activeWeeks[r.FacilityID][r.CycleIndex]; dup {
			p.errorf("facility %s: cycle_index %d appears on multiple weeks", r.FacilityID, r.CycleIndex)
		}
		activeWeeks[r.FacilityID][r.CycleIndex] = r
	}

	for i, c := range ds.Cycles {
		if !facilityIDs[c.FacilityID] {
			p.errorf("cycle row %d: unknown facility_id %q", i, c.FacilityID)
			continue
		}
		week, ok := activeWeeks[c.FacilityID][c.CycleIndex]
		if !ok {
			p.errorf("cycle %s/%d: no matching active weekly row", c.FacilityID, c.CycleIndex)
			continue
		}
		if !c.CycleStart.Equal(week.Timestamp) {
			p.errorf("cycle %s/%d: cycle_start %s != weekly timestamp %s",
				c.FacilityID, c.CycleIndex, c.CycleStart.Format("2006-01-02"), week.Timestamp.Format("2006-01-02"))
		}
		if !c.CycleEnd.Equal(week.Timestamp.AddDate(0, 0, 7)) {
			p.errorf("cycle %s/%d: cycle_end is not one week after cycle_start", c.FacilityID, c.CycleIndex)
		}
	}

	return p
}

// ── Phase 2: Physical Bounds ──
// Pressure, temperature, purity, and inventory bounds per weekly row.

func validateBounds(ds *domain.Dataset, cfg *config.Config) *phase {
	p := &phase{name: "Phase 2: Physical Bounds"}
	v := cfg.ValidationView()

	pressureBounds := make(map[string][2]float64, len(ds.Facilities))
	for _, f := range ds.Facilities {
		pressureBounds[f.ID] = [2]float64{f.PressureMinMPa, f.PressureMaxMPa}
	}
	cushion := make(map[string]float64)

	for i, r := range ds.Weekly {
		b, ok := pressureBounds[r.FacilityID]
		if ok && !physics.PressureWithinBounds(r.PressureMPa, b[0], b[1], v.PressureMarginMPa) {
			p.errorf("weekly row %d (%s): pressure %.4f MPa outside [%g, %g] ± %g",
				i, r.FacilityID, r.PressureMPa, b[0], b[1], v.PressureMarginMPa)
		}
		if !physics.TemperatureInRange(r.TemperatureC, v) {
			p.errorf("weekly row %d (%s): temperature %.2f C out of range", i, r.FacilityID, r.TemperatureC)
		}
		if !physics.PurityInRange(r.PurityInPct, v) || !physics.PurityInRange(r.PurityOutPct, v) {
			p.errorf("weekly row %d (%s): purity in=%.3f out=%.3f out of range",
				i, r.FacilityID, r.PurityInPct, r.PurityOutPct)
		}
		if r.WorkingGasKg < 0 {
			p.errorf("weekly row %d (%s): negative working gas %g", i, r.FacilityID, r.WorkingGasKg)
		}
		if r.InjectedKg < 0 || r.WithdrawnKg < 0 || r.LossesKg < 0 {
			p.errorf("weekly row %d (%s): negative flow or loss", i, r.FacilityID)
		}

		// Cushion gas never changes after capacity is fixed.
		if prev, seen := cushion[r.FacilityID]; seen {
			if r.CushionGasKg != prev {
				p.errorf("weekly row %d (%s): cushion gas changed from %g to %g",
					i, r.FacilityID, prev, r.CushionGasKg)
			}
		} else {
			cushion[r.FacilityID] = r.CushionGasKg
		}
	}

	return p
}

// ── Phase 3: Mass Balance ──
// Recorded residuals, efficiency arithmetic, and cycle/weekly agreement.

func validateMassBalance(ds *domain.Dataset, cfg *config.Config) *phase {
	p := &phase{name: "Phase 3: Mass Balance & Cycle Summaries"}
	tolerance := cfg.MassBalance.ToleranceFraction

	activeWeeks := make(map[string]map[int]domain.WeeklyRecord)
	for i, r := range ds.Weekly {
		if !r.CycleActive {
			continue
		}
		if r.MassBalanceResidual == nil || r.MassBalanceOK == nil {
			p.errorf("weekly row %d (%s): active week missing mass-balance columns", i, r.FacilityID)
			continue
		}
		if ok := *r.MassBalanceResidual <= tolerance; ok != *r.MassBalanceOK {
			p.errorf("weekly row %d (%s): mass_balance_ok=%v but residual %g vs tolerance %g",
				i, r.FacilityID, *r.MassBalanceOK, *r.MassBalanceResidual, tolerance)
		}
		if r.InjectedKg > 0 {
			if r.CycleEfficiency == nil {
				p.errorf("weekly row %d (%s): injection without cycle_efficiency", i, r.FacilityID)
			} else if !floatEq(*r.CycleEfficiency, r.WithdrawnKg/r.InjectedKg) {
				p.errorf("weekly row %d (%s): cycle_efficiency %g != withdrawn/injected %g",
					i, r.FacilityID, *r.CycleEfficiency, r.WithdrawnKg/r.InjectedKg)
			}
		}
		if activeWeeks[r.FacilityID] == nil {
			activeWeeks[r.FacilityID] = make(map[int]domain.WeeklyRecord)
		}
		activeWeeks[r.FacilityID][r.CycleIndex] = r
	}

	for _, c := range ds.Cycles {
		week, ok := activeWeeks[c.FacilityID][c.CycleIndex]
		if !ok {
			continue // reported in phase 1
		}
		if !floatEq(c.TotalInjectedKg, week.InjectedKg) || !floatEq(c.TotalWithdrawnKg, week.WithdrawnKg) {
			p.errorf("cycle %s/%d: totals disagree with weekly row", c.FacilityID, c.CycleIndex)
		}
		if !floatEq(c.TotalLossesKg, week.LossesKg) {
			p.errorf("cycle %s/%d: total_losses %g != weekly losses %g",
				c.FacilityID, c.CycleIndex, c.TotalLossesKg, week.LossesKg)
		}
		if !floatEq(c.AvgPressureMPa, week.PressureMPa) {
			p.errorf("cycle %s/%d: avg_pressure %g != weekly pressure %g",
				c.FacilityID, c.CycleIndex, c.AvgPressureMPa, week.PressureMPa)
		}
	}

	return p
}

// ── Phase 4: Reproducibility ──
// Regenerates the dataset from the config and compares it to the files.

func validateReproducibility(ds *domain.Dataset, cfg *config.Config) *phase {
	p := &phase{name: "Phase 4: Reproducibility (regeneration)"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	regen, err := pipeline.New(cfg, nil, logger, observability.NewMetrics()).Run(context.Background())
	if err != nil {
		p.errorf("regeneration failed: %v", err)
		return p
	}

	if !reflect.DeepEqual(ds.Facilities, regen.Facilities) {
		p.errorf("facility metadata differs from a fresh run with this config")
	}
	if !reflect.DeepEqual(ds.Weekly, regen.Weekly) {
		p.errorf("weekly timeseries differs from a fresh run with this config")
	}
	if !reflect.DeepEqual(ds.Cycles, regen.Cycles) {
		p.errorf("cycle summary differs from a fresh run with this config")
	}

	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
