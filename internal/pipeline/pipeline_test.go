package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/uhs-mrv-generator/internal/config"
	"github.com/couchcryptid/uhs-mrv-generator/internal/domain"
	"github.com/couchcryptid/uhs-mrv-generator/internal/observability"
	"github.com/couchcryptid/uhs-mrv-generator/internal/pipeline"
)

// --- mocks ---

type mockWriter struct {
	name     string
	err      error
	datasets []*domain.Dataset
}

func (m *mockWriter) Name() string { return m.name }

func (m *mockWriter) WriteDataset(_ context.Context, ds *domain.Dataset) error {
	if m.err != nil {
		return m.err
	}
	m.datasets = append(m.datasets, ds)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("testdata/uhs_config.yaml")
	require.NoError(t, err)
	return cfg
}

func TestRun_GeneratesAndWrites(t *testing.T) {
	fakeClock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fakeClock)
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	cfg := loadTestConfig(t)
	sink := &mockWriter{name: "sink"}
	p := pipeline.New(cfg, []pipeline.DatasetWriter{sink}, testLogger(), newTestMetrics())

	ds, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ds)

	assert.Len(t, ds.Facilities, cfg.Global.NFacilities)
	assert.Len(t, ds.Weekly, cfg.Global.NFacilities*cfg.Global.Simulation.NYears*52)
	assert.NotEmpty(t, ds.Cycles)
	assert.Equal(t, fakeClock.Now(), ds.GeneratedAt)

	require.Len(t, sink.datasets, 1)
	assert.Same(t, ds, sink.datasets[0])
}

func TestRun_Deterministic(t *testing.T) {
	cfg := loadTestConfig(t)

	run := func() *domain.Dataset {
		p := pipeline.New(cfg, nil, testLogger(), newTestMetrics())
		ds, err := p.Run(context.Background())
		require.NoError(t, err)
		return ds
	}

	a, b := run(), run()
	if diff := cmp.Diff(a.Facilities, b.Facilities); diff != "" {
		t.Errorf("facilities differ between runs (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Weekly, b.Weekly); diff != "" {
		t.Errorf("weekly records differ between runs (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(a.Cycles, b.Cycles); diff != "" {
		t.Errorf("cycle records differ between runs (-a +b):\n%s", diff)
	}
}

func TestRun_WriterError(t *testing.T) {
	cfg := loadTestConfig(t)
	boom := errors.New("disk full")
	sinks := []pipeline.DatasetWriter{
		&mockWriter{name: "ok"},
		&mockWriter{name: "broken", err: boom},
	}
	p := pipeline.New(cfg, sinks, testLogger(), newTestMetrics())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")

	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRun_ContextCancelled(t *testing.T) {
	cfg := loadTestConfig(t)
	p := pipeline.New(cfg, nil, testLogger(), newTestMetrics())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckReadiness(t *testing.T) {
	cfg := loadTestConfig(t)
	p := pipeline.New(cfg, nil, testLogger(), newTestMetrics())

	require.Error(t, p.CheckReadiness(context.Background()))

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NoError(t, p.CheckReadiness(context.Background()))
}
