// Package sqlite persists a generated dataset into a single SQLite file,
// one table per output table. Handy for ad-hoc SQL over large runs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS facility_metadata (
	facility_id      TEXT PRIMARY KEY,
	facility_type    TEXT NOT NULL,
	country_code     TEXT NOT NULL,
	region           TEXT NOT NULL,
	latitude         REAL NOT NULL,
	longitude        REAL NOT NULL,
	depth_m          REAL NOT NULL,
	cavern_volume_m3 REAL NOT NULL,
	porosity         REAL,
	permeability_mD  REAL,
	pressure_min_mpa REAL NOT NULL,
	pressure_max_mpa REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS facility_timeseries (
	facility_id           TEXT NOT NULL REFERENCES facility_metadata(facility_id),
	timestamp             TEXT NOT NULL,
	cycle_index           INTEGER NOT NULL,
	is_cycle_active       INTEGER NOT NULL,
	h2_injected_kg        REAL NOT NULL,
	h2_withdrawn_kg       REAL NOT NULL,
	working_gas_kg        REAL NOT NULL,
	cushion_gas_kg        REAL NOT NULL,
	losses_kg             REAL NOT NULL,
	pressure_mpa          REAL NOT NULL,
	temperature_c         REAL NOT NULL,
	purity_in_pct         REAL NOT NULL,
	purity_out_pct        REAL NOT NULL,
	cycle_efficiency      REAL,
	mass_balance_residual REAL,
	mass_balance_ok       INTEGER,
	PRIMARY KEY (facility_id, timestamp)
);

CREATE TABLE IF NOT EXISTS cycle_summary (
	facility_id        TEXT NOT NULL REFERENCES facility_metadata(facility_id),
	cycle_index        INTEGER NOT NULL,
	cycle_start        TEXT NOT NULL,
	cycle_end          TEXT NOT NULL,
	total_injected_kg  REAL NOT NULL,
	total_withdrawn_kg REAL NOT NULL,
	total_losses_kg    REAL NOT NULL,
	avg_pressure_mpa   REAL NOT NULL,
	avg_temperature_c  REAL NOT NULL,
	cycle_efficiency   REAL,
	PRIMARY KEY (facility_id, cycle_index)
);
`

const dateLayout = "2006-01-02"

// Writer writes the dataset into the SQLite database at path. The file and
// schema are created on first use; rows from earlier runs are replaced.
type Writer struct {
	path   string
	logger *slog.Logger
}

// NewWriter creates a SQLite dataset writer targeting path.
func NewWriter(path string, logger *slog.Logger) *Writer {
	return &Writer{path: path, logger: logger}
}

// Name identifies the sink in logs.
func (w *Writer) Name() string { return "sqlite" }

// WriteDataset inserts all three tables in one transaction.
func (w *Writer) WriteDataset(ctx context.Context, ds *domain.Dataset) error {
	db, err := sql.Open("sqlite", w.path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cycle_summary", "facility_timeseries", "facility_metadata"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertFacilities(ctx, tx, ds.Facilities); err != nil {
		return err
	}
	if err := insertWeekly(ctx, tx, ds.Weekly); err != nil {
		return err
	}
	if err := insertCycles(ctx, tx, ds.Cycles); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	w.logger.Info("sqlite tables written", "path", w.path,
		"facilities", len(ds.Facilities), "weekly", len(ds.Weekly), "cycles", len(ds.Cycles))
	return nil
}

func insertFacilities(ctx context.Context, tx *sql.Tx, facilities []domain.Facility) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO facility_metadata (
		facility_id, facility_type, country_code, region, latitude, longitude,
		depth_m, cavern_volume_m3, porosity, permeability_mD,
		pressure_min_mpa, pressure_max_mpa
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare facility insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range facilities {
		_, err := stmt.ExecContext(ctx,
			f.ID, string(f.Type), f.CountryCode, f.Region, f.Latitude, f.Longitude,
			f.DepthM, f.VolumeM3, nullFloat(f.Porosity), nullFloat(f.PermeabilityMD),
			f.PressureMinMPa, f.PressureMaxMPa,
		)
		if err != nil {
			return fmt.Errorf("insert facility %s: %w", f.ID, err)
		}
	}
	return nil
}

func insertWeekly(ctx context.Context, tx *sql.Tx, weekly []domain.WeeklyRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO facility_timeseries (
		facility_id, timestamp, cycle_index, is_cycle_active,
		h2_injected_kg, h2_withdrawn_kg, working_gas_kg, cushion_gas_kg, losses_kg,
		pressure_mpa, temperature_c, purity_in_pct, purity_out_pct,
		cycle_efficiency, mass_balance_residual, mass_balance_ok
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare weekly insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range weekly {
		_, err := stmt.ExecContext(ctx,
			r.FacilityID, r.Timestamp.Format(dateLayout), r.CycleIndex, r.CycleActive,
			r.InjectedKg, r.WithdrawnKg, r.WorkingGasKg, r.CushionGasKg, r.LossesKg,
			r.PressureMPa, r.TemperatureC, r.PurityInPct, r.PurityOutPct,
			nullFloat(r.CycleEfficiency), nullFloat(r.MassBalanceResidual), nullBool(r.MassBalanceOK),
		)
		if err != nil {
			return fmt.Errorf("insert weekly %s %s: %w", r.FacilityID, r.Timestamp.Format(dateLayout), err)
		}
	}
	return nil
}

func insertCycles(ctx context.Context, tx *sql.Tx, cycles []domain.CycleRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cycle_summary (
		facility_id, cycle_index, cycle_start, cycle_end,
		total_injected_kg, total_withdrawn_kg, total_losses_kg,
		avg_pressure_mpa, avg_temperature_c, cycle_efficiency
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cycle insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range cycles {
		_, err := stmt.ExecContext(ctx,
			c.FacilityID, c.CycleIndex,
			c.CycleStart.Format(dateLayout), c.CycleEnd.Format(dateLayout),
			c.TotalInjectedKg, c.TotalWithdrawnKg, c.TotalLossesKg,
			c.AvgPressureMPa, c.AvgTemperatureC, nullFloat(c.CycleEfficiency),
		)
		if err != nil {
			return fmt.Errorf("insert cycle %s/%d: %w", c.FacilityID, c.CycleIndex, err)
		}
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
