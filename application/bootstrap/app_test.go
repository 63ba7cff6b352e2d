package bootstrap

import (
	"testing"

	"github.com/lazy-geeek/liqui-api/application/services/orchestrator"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/cache/breaker"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/config"
	"github.com/lazy-geeek/liqui-api/internal/infrastructure/metrics"
	"github.com/lazy-geeek/liqui-api/internal/types"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApplicationRequiresConfig(t *testing.T) {
	_, err := NewApplication(nil)
	assert.Error(t, err)
}

func TestRunRequiresInitialize(t *testing.T) {
	app, err := NewApplication(&config.Config{})
	require.NoError(t, err)
	assert.Error(t, app.Run())
}

func TestBreakerChangeUpdatesGauge(t *testing.T) {
	app, err := NewApplication(&config.Config{})
	require.NoError(t, err)
	app.metrics = metrics.NewCollector("test")

	app.onBreakerChange("cache", breaker.StateClosed, breaker.StateOpen)
	assert.Equal(t, float64(breaker.StateOpen), testutil.ToFloat64(app.metrics.BreakerState.WithLabelValues("cache")))

	app.onBreakerChange("cache", breaker.StateOpen, breaker.StateHalfOpen)
	assert.Equal(t, float64(breaker.StateHalfOpen), testutil.ToFloat64(app.metrics.BreakerState.WithLabelValues("cache")))
}

func TestShutdownWithoutResourcesIsSafe(t *testing.T) {
	app, err := NewApplication(&config.Config{})
	require.NoError(t, err)
	assert.NotPanics(t, app.shutdown)
}

func TestWarmReporterExportsLastRun(t *testing.T) {
	app, err := NewApplication(&config.Config{})
	require.NoError(t, err)
	app.metrics = metrics.NewCollector("test")

	sub := app.warmReporter()
	require.NoError(t, sub.HandleEvent(types.Event{
		Type: types.EventCacheWarmed,
		Data: orchestrator.WarmReport{Warmed: 4, Empty: 2, Failed: 1},
	}))
	assert.Equal(t, 4.0, testutil.ToFloat64(app.metrics.WarmEntries.WithLabelValues("warmed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(app.metrics.WarmEntries.WithLabelValues("empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.WarmEntries.WithLabelValues("failed")))

	assert.Error(t, sub.HandleEvent(types.Event{Type: types.EventCacheWarmed, Data: "bad"}))
}
