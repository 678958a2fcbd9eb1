package observability

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTelemetry_Disabled(t *testing.T) {
	telemetry, err := InitTelemetry(context.Background(), TelemetryConfig{Enabled: false}, nil)
	require.NoError(t, err)
	require.NotNil(t, telemetry)

	assert.False(t, telemetry.Enabled())
	assert.NotNil(t, telemetry.Tracer("beacon"))
	assert.NotNil(t, telemetry.Meter("beacon"))
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestTelemetry_NilIsDisabled(t *testing.T) {
	var telemetry *Telemetry
	assert.False(t, telemetry.Enabled())
	assert.NotNil(t, telemetry.Tracer("beacon"))
	assert.NotNil(t, telemetry.Meter("beacon"))
	assert.NoError(t, telemetry.Shutdown(context.Background()))
}

func TestTraceSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, "AlwaysOnSampler"},
		{2, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := traceSampler(tt.ratio).Description()
		assert.True(t, strings.HasPrefix(desc, "ParentBased{root:"+tt.want+","), "ratio %v: %s", tt.ratio, desc)
	}
}

func TestTelemetryResource(t *testing.T) {
	res, err := telemetryResource(context.Background(), TelemetryConfig{ServiceName: "beacon", ServiceVersion: "2.1.0"})
	require.NoError(t, err)

	attrs := map[string]string{}
	for _, kv := range res.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "beacon", attrs["service.name"])
	assert.Equal(t, "2.1.0", attrs["service.version"])
	assert.NotEmpty(t, attrs["service.instance.id"])
}
