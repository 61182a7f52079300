package csvfile

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDataset() *domain.Dataset {
	week1 := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)

	return &domain.Dataset{
		Facilities: []domain.Facility{
			{
				ID: "UHS_001", Type: domain.FacilityTypeSaltCavern,
				CountryCode: "NO", Region: "Nordic",
				Latitude: 58.5, Longitude: 6.25,
				DepthM: 1100, VolumeM3: 480000,
				PressureMinMPa: 7, PressureMaxMPa: 20,
			},
			{
				ID: "UHS_002", Type: domain.FacilityTypePorousReservoir,
				CountryCode: "DE", Region: "Onshore EU",
				Latitude: 52.1, Longitude: 10.4,
				DepthM: 1900, VolumeM3: 610000,
				Porosity:       domain.Float64Ptr(0.22),
				PermeabilityMD: domain.Float64Ptr(140.5),
				PressureMinMPa: 10, PressureMaxMPa: 28,
			},
		},
		Weekly: []domain.WeeklyRecord{
			{
				FacilityID: "UHS_001", Timestamp: week1,
				CycleIndex: 1, CycleActive: true,
				InjectedKg: 120000, WithdrawnKg: 44000,
				WorkingGasKg: 2.1e6, CushionGasKg: 3.4e6, LossesKg: 2300,
				PressureMPa: 14.2, TemperatureC: 45.8,
				PurityInPct: 99.4, PurityOutPct: 99.35,
				CycleEfficiency:     domain.Float64Ptr(44000.0 / 120000.0),
				MassBalanceResidual: domain.Float64Ptr(0),
				MassBalanceOK:       domain.BoolPtr(true),
			},
			{
				FacilityID: "UHS_001", Timestamp: week2,
				WorkingGasKg: 2.0996e6, CushionGasKg: 3.4e6, LossesKg: 120,
				PressureMPa: 14.1, TemperatureC: 46.2,
				PurityInPct: 99.4, PurityOutPct: 99.35,
			},
		},
		Cycles: []domain.CycleRecord{
			{
				FacilityID: "UHS_001", CycleIndex: 1,
				CycleStart: week1, CycleEnd: week2,
				TotalInjectedKg: 120000, TotalWithdrawnKg: 44000, TotalLossesKg: 2300,
				AvgPressureMPa: 14.2, AvgTemperatureC: 45.8,
				CycleEfficiency: domain.Float64Ptr(44000.0 / 120000.0),
			},
		},
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWriteDataset_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())
	ds := testDataset()

	require.NoError(t, w.WriteDataset(context.Background(), ds))

	got, err := ReadDataset(dir)
	require.NoError(t, err)

	// GeneratedAt is not part of the CSV tables.
	if diff := cmp.Diff(ds.Facilities, got.Facilities); diff != "" {
		t.Errorf("facilities mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ds.Weekly, got.Weekly); diff != "" {
		t.Errorf("weekly mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(ds.Cycles, got.Cycles); diff != "" {
		t.Errorf("cycles mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteDataset_TableShape(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, testLogger())
	require.NoError(t, w.WriteDataset(context.Background(), testDataset()))

	readRows := func(name string) [][]string {
		f, err := os.Open(filepath.Join(dir, name))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)
		return rows
	}

	t.Run("facility metadata", func(t *testing.T) {
		rows := readRows(FacilityFile)
		require.Len(t, rows, 3)
		assert.Equal(t, facilityHeader, rows[0])
		// Salt caverns leave porosity and permeability empty.
		assert.Equal(t, "", rows[1][8])
		assert.Equal(t, "", rows[1][9])
		assert.Equal(t, "0.22", rows[2][8])
	})

	t.Run("weekly timeseries", func(t *testing.T) {
		rows := readRows(WeeklyFile)
		require.Len(t, rows, 3)
		assert.Equal(t, weeklyHeader, rows[0])
		assert.Equal(t, "2025-01-06", rows[1][1])
		assert.Equal(t, "true", rows[1][3])
		// Inactive week has no efficiency or mass-balance cells.
		assert.Equal(t, "false", rows[2][3])
		assert.Equal(t, "", rows[2][13])
		assert.Equal(t, "", rows[2][14])
		assert.Equal(t, "", rows[2][15])
	})

	t.Run("cycle summary", func(t *testing.T) {
		rows := readRows(CycleFile)
		require.Len(t, rows, 2)
		assert.Equal(t, cycleHeader, rows[0])
		assert.Equal(t, "2025-01-13", rows[1][3])
	})
}

func TestWriteDataset_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewWriter(t.TempDir(), testLogger())
	err := w.WriteDataset(ctx, testDataset())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadDataset_MissingFile(t *testing.T) {
	_, err := ReadDataset(t.TempDir())
	require.Error(t, err)
}
