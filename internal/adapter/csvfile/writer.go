// Package csvfile persists a generated dataset as the three CSV tables
// (facility metadata, weekly time-series, cycle summary) and reads them
// back for validation.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

const (
	// FacilityFile, WeeklyFile, and CycleFile are the table file names
	// inside the output directory.
	FacilityFile = "facility_metadata.csv"
	WeeklyFile   = "facility_timeseries.csv"
	CycleFile    = "cycle_summary.csv"

	dateLayout = "2006-01-02"
)

var (
	facilityHeader = []string{
		"facility_id", "facility_type", "country_code", "region",
		"latitude", "longitude", "depth_m", "cavern_volume_m3",
		"porosity", "permeability_mD", "pressure_min_mpa", "pressure_max_mpa",
	}
	weeklyHeader = []string{
		"facility_id", "timestamp", "cycle_index", "is_cycle_active",
		"h2_injected_kg", "h2_withdrawn_kg", "working_gas_kg", "cushion_gas_kg",
		"losses_kg", "pressure_mpa", "temperature_c",
		"purity_in_pct", "purity_out_pct", "cycle_efficiency",
		"mass_balance_residual", "mass_balance_ok",
	}
	cycleHeader = []string{
		"facility_id", "cycle_index", "cycle_start", "cycle_end",
		"total_injected_kg", "total_withdrawn_kg", "total_losses_kg",
		"avg_pressure_mpa", "avg_temperature_c", "cycle_efficiency",
	}
)

// Writer writes the dataset tables into a directory, creating it if needed.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a CSV dataset writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "csv" }

// WriteDataset writes the three tables. Existing files are overwritten.
func (w *Writer) WriteDataset(ctx context.Context, ds *domain.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := w.writeTable(FacilityFile, facilityHeader, facilityRows(ds.Facilities)); err != nil {
		return err
	}
	if err := w.writeTable(WeeklyFile, weeklyHeader, weeklyRows(ds.Weekly)); err != nil {
		return err
	}
	if err := w.writeTable(CycleFile, cycleHeader, cycleRows(ds.Cycles)); err != nil {
		return err
	}

	w.logger.Info("csv tables written", "dir", w.dir,
		"facilities", len(ds.Facilities), "weekly", len(ds.Weekly), "cycles", len(ds.Cycles))
	return nil
}

func (w *Writer) writeTable(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write %s header: %w", name, err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s rows: %w", name, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", name, err)
	}
	return f.Close()
}

func facilityRows(facilities []domain.Facility) [][]string {
	rows := make([][]string, 0, len(facilities))
	for _, f := range facilities {
		rows = append(rows, []string{
			f.ID,
			string(f.Type),
			f.CountryCode,
			f.Region,
			formatFloat(f.Latitude),
			formatFloat(f.Longitude),
			formatFloat(f.DepthM),
			formatFloat(f.VolumeM3),
			formatFloatPtr(f.Porosity),
			formatFloatPtr(f.PermeabilityMD),
			formatFloat(f.PressureMinMPa),
			formatFloat(f.PressureMaxMPa),
		})
	}
	return rows
}

func weeklyRows(weekly []domain.WeeklyRecord) [][]string {
	rows := make([][]string, 0, len(weekly))
	for _, r := range weekly {
		rows = append(rows, []string{
			r.FacilityID,
			r.Timestamp.Format(dateLayout),
			strconv.Itoa(r.CycleIndex),
			strconv.FormatBool(r.CycleActive),
			formatFloat(r.InjectedKg),
			formatFloat(r.WithdrawnKg),
			formatFloat(r.WorkingGasKg),
			formatFloat(r.CushionGasKg),
			formatFloat(r.LossesKg),
			formatFloat(r.PressureMPa),
			formatFloat(r.TemperatureC),
			formatFloat(r.PurityInPct),
			formatFloat(r.PurityOutPct),
			formatFloatPtr(r.CycleEfficiency),
			formatFloatPtr(r.MassBalanceResidual),
			formatBoolPtr(r.MassBalanceOK),
		})
	}
	return rows
}

func cycleRows(cycles []domain.CycleRecord) [][]string {
	rows := make([][]string, 0, len(cycles))
	for _, c := range cycles {
		rows = append(rows, []string{
			c.FacilityID,
			strconv.Itoa(c.CycleIndex),
			c.CycleStart.Format(dateLayout),
			c.CycleEnd.Format(dateLayout),
			formatFloat(c.TotalInjectedKg),
			formatFloat(c.TotalWithdrawnKg),
			formatFloat(c.TotalLossesKg),
			formatFloat(c.AvgPressureMPa),
			formatFloat(c.AvgTemperatureC),
			formatFloatPtr(c.CycleEfficiency),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Nil values become empty cells.
func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatBoolPtr(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
