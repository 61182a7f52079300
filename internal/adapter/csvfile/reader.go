package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

// ReadDataset loads the three tables back from dir. Used by cmd/validate to
// check a written dataset without regenerating it.
func ReadDataset(dir string) (*domain.Dataset, error) {
	facilities, err := readFacilities(filepath.Join(dir, FacilityFile))
	if err != nil {
		return nil, err
	}
	weekly, err := readWeekly(filepath.Join(dir, WeeklyFile))
	if err != nil {
		return nil, err
	}
	cycles, err := readCycles(filepath.Join(dir, CycleFile))
	if err != nil {
		return nil, err
	}
	return &domain.Dataset{Facilities: facilities, Weekly: weekly, Cycles: cycles}, nil
}

// table reads a CSV file and returns header-indexed rows.
type table struct {
	path   string
	colIdx map[string]int
	rows   [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", filepath.Base(path))
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[h] = i
	}
	return &table{path: path, colIdx: colIdx, rows: rows[1:]}, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) getFloat(row []string, col string) (float64, error) {
	s := t.get(row, col)
	if s == "" {
		return 0, fmt.Errorf("%s: column %q is empty", filepath.Base(t.path), col)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: column %q: %w", filepath.Base(t.path), col, err)
	}
	return v, nil
}

func (t *table) getFloatPtr(row []string, col string) (*float64, error) {
	if t.get(row, col) == "" {
		return nil, nil
	}
	v, err := t.getFloat(row, col)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (t *table) getInt(row []string, col string) (int, error) {
	v, err := strconv.Atoi(t.get(row, col))
	if err != nil {
		return 0, fmt.Errorf("%s: column %q: %w", filepath.Base(t.path), col, err)
	}
	return v, nil
}

func (t *table) getDate(row []string, col string) (time.Time, error) {
	v, err := time.Parse(dateLayout, t.get(row, col))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: column %q: %w", filepath.Base(t.path), col, err)
	}
	return v, nil
}

func readFacilities(path string) ([]domain.Facility, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	facilities := make([]domain.Facility, 0, len(t.rows))
	for i, row := range t.rows {
		f := domain.Facility{
			ID:          t.get(row, "facility_id"),
			Type:        domain.FacilityType(t.get(row, "facility_type")),
			CountryCode: t.get(row, "country_code"),
			Region:      t.get(row, "region"),
		}
		var rowErr error
		for _, field := range []struct {
			col string
			dst *float64
		}{
			{"latitude", &f.Latitude},
			{"longitude", &f.Longitude},
			{"depth_m", &f.DepthM},
			{"cavern_volume_m3", &f.VolumeM3},
			{"pressure_min_mpa", &f.PressureMinMPa},
			{"pressure_max_mpa", &f.PressureMaxMPa},
		} {
			if *field.dst, rowErr = t.getFloat(row, field.col); rowErr != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
			}
		}
		if f.Porosity, rowErr = t.getFloatPtr(row, "porosity"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if f.PermeabilityMD, rowErr = t.getFloatPtr(row, "permeability_mD"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		facilities = append(facilities, f)
	}
	return facilities, nil
}

func readWeekly(path string) ([]domain.WeeklyRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	weekly := make([]domain.WeeklyRecord, 0, len(t.rows))
	for i, row := range t.rows {
		r := domain.WeeklyRecord{
			FacilityID:  t.get(row, "facility_id"),
			CycleActive: t.get(row, "is_cycle_active") == "true",
		}
		var rowErr error
		if r.Timestamp, rowErr = t.getDate(row, "timestamp"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if r.CycleIndex, rowErr = t.getInt(row, "cycle_index"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		for _, field := range []struct {
			col string
			dst *float64
		}{
			{"h2_injected_kg", &r.InjectedKg},
			{"h2_withdrawn_kg", &r.WithdrawnKg},
			{"working_gas_kg", &r.WorkingGasKg},
			{"cushion_gas_kg", &r.CushionGasKg},
			{"losses_kg", &r.LossesKg},
			{"pressure_mpa", &r.PressureMPa},
			{"temperature_c", &r.TemperatureC},
			{"purity_in_pct", &r.PurityInPct},
			{"purity_out_pct", &r.PurityOutPct},
		} {
			if *field.dst, rowErr = t.getFloat(row, field.col); rowErr != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
			}
		}
		if r.CycleEfficiency, rowErr = t.getFloatPtr(row, "cycle_efficiency"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if r.MassBalanceResidual, rowErr = t.getFloatPtr(row, "mass_balance_residual"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if s := t.get(row, "mass_balance_ok"); s != "" {
			r.MassBalanceOK = domain.BoolPtr(s == "true")
		}
		weekly = append(weekly, r)
	}
	return weekly, nil
}

func readCycles(path string) ([]domain.CycleRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}

	cycles := make([]domain.CycleRecord, 0, len(t.rows))
	for i, row := range t.rows {
		c := domain.CycleRecord{FacilityID: t.get(row, "facility_id")}
		var rowErr error
		if c.CycleIndex, rowErr = t.getInt(row, "cycle_index"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if c.CycleStart, rowErr = t.getDate(row, "cycle_start"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		if c.CycleEnd, rowErr = t.getDate(row, "cycle_end"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		for _, field := range []struct {
			col string
			dst *float64
		}{
			{"total_injected_kg", &c.TotalInjectedKg},
			{"total_withdrawn_kg", &c.TotalWithdrawnKg},
			{"total_losses_kg", &c.TotalLossesKg},
			{"avg_pressure_mpa", &c.AvgPressureMPa},
			{"avg_temperature_c", &c.AvgTemperatureC},
		} {
			if *field.dst, rowErr = t.getFloat(row, field.col); rowErr != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
			}
		}
		if c.CycleEfficiency, rowErr = t.getFloatPtr(row, "cycle_efficiency"); rowErr != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, rowErr)
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}
