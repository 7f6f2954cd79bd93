package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
)

func TestNewServerContext_RequiresHub(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestServerContext_Shutdown(t *testing.T) {
	env := newTestEnv(t)
	sc := env.sc

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// Idempotent.
	require.NoError(t, sc.Shutdown())
}

func TestServerContext_Instrumentation(t *testing.T) {
	env := newTestEnv(t)
	sc := env.sc
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())

	metrics, err := instrumentation.NewMetrics(noop.NewMeterProvider().Meter("test"), false)
	require.NoError(t, err)
	sc.SetMetrics(metrics)
	sc.SetAuditLogger(instrumentation.NewAuditLogger(nil))

	assert.Same(t, metrics, sc.Metrics())
	assert.NotNil(t, sc.AuditLogger())
	assert.Same(t, env.store, sc.Store())
}
