package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		opts     []Option
		wantNoOp bool
		wantErr  string
	}{
		{
			name:     "no config returns no-op telemetry",
			opts:     nil,
			wantNoOp: true,
		},
		{
			name:     "disabled config returns no-op telemetry",
			opts:     []Option{WithTelemetryConfig(&Config{Enabled: false})},
			wantNoOp: true,
		},
		{
			name: "enabled with both signals disabled returns no-op providers",
			opts: []Option{WithTelemetryConfig(&Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: false},
				Metrics: &MetricsConfig{Enabled: false},
			})},
			wantNoOp: true,
		},
		{
			name: "invalid sampling rejected",
			opts: []Option{WithTelemetryConfig(&Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true, Sampling: 2.0},
			})},
			wantErr: "invalid telemetry configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tel, err := New(context.Background(), tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, tel)

			if tt.wantNoOp {
				assert.IsType(t, tracenoop.NewTracerProvider(), tel.TracerProvider())
				assert.IsType(t, metricnoop.NewMeterProvider(), tel.MeterProvider())
			}

			assert.NotNil(t, tel.Tracer("test"))
			assert.NotNil(t, tel.Meter("test"))
			assert.NoError(t, tel.Shutdown(context.Background()))
		})
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background())
	require.NoError(t, err)

	assert.NoError(t, tel.Shutdown(context.Background()))
	assert.NoError(t, tel.Shutdown(context.Background()))
}
