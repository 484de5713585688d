package admission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/aquafarm-pro/tenantcore/logger"
	"github.com/aquafarm-pro/tenantcore/quota"
)

func setupTestMeterProvider(t *testing.T) (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

// counterValue sums every data point of the named counter
func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestMetrics_UnregisteredIsNoop(t *testing.T) {
	m := NewMetrics()

	// safe before Register; nothing to assert beyond not panicking
	ctx := context.Background()
	m.RecordAllowed(ctx, quota.ClassAPI)
	m.RecordDenied(ctx, quota.ClassAPI)
	m.RecordFailOpen(ctx, quota.ClassAPI)
}

func TestMetrics_RegisterIsIdempotent(t *testing.T) {
	mp, _ := setupTestMeterProvider(t)
	meter := mp.Meter("test")

	m := NewMetrics()
	require.NoError(t, m.Register(meter))
	require.NoError(t, m.Register(meter))
}

func TestMetrics_EngineRecordsDecisions(t *testing.T) {
	mp, reader := setupTestMeterProvider(t)

	metrics := NewMetrics()
	require.NoError(t, metrics.Register(mp.Meter("test")))

	catalog, err := quota.NewCatalog(quota.DefaultConfig(), nil)
	require.NoError(t, err)
	ms := NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })

	engine, err := NewEngine(catalog, ms, Config{StoreType: "memory"},
		logger.NewTestLogger(), nil, metrics)
	require.NoError(t, err)

	ctx := context.Background()

	// auth allows 10 per window; the 11th and 12th are denied
	for i := 0; i < 12; i++ {
		engine.Admit(ctx, "tenant_a", quota.ClassAuth, "")
	}

	assert.Equal(t, int64(10), counterValue(t, reader, "admission_allowed_total"))
	assert.Equal(t, int64(2), counterValue(t, reader, "admission_denied_total"))
	assert.Equal(t, int64(0), counterValue(t, reader, "admission_fail_open_total"))
}

func TestMetrics_EngineRecordsFailOpen(t *testing.T) {
	mp, reader := setupTestMeterProvider(t)

	metrics := NewMetrics()
	require.NoError(t, metrics.Register(mp.Meter("test")))

	catalog, err := quota.NewCatalog(quota.DefaultConfig(), nil)
	require.NoError(t, err)

	engine, err := NewEngine(catalog, failingStore{}, Config{StoreType: "memory"},
		logger.NewTestLogger(), nil, metrics)
	require.NoError(t, err)

	result := engine.Admit(context.Background(), "tenant_a", quota.ClassAPI, "")
	require.True(t, result.Allowed)

	assert.Equal(t, int64(1), counterValue(t, reader, "admission_fail_open_total"))
	assert.Equal(t, int64(0), counterValue(t, reader, "admission_allowed_total"))
}
