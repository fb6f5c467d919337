package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.GetEndpoint())
	assert.False(t, cfg.GetInsecure())

	cfg = &Config{
		ServiceName:    "my-console",
		ServiceVersion: "1.2.3",
		Endpoint:       "otel:4318",
		Insecure:       true,
	}
	assert.Equal(t, "my-console", cfg.GetServiceName())
	assert.Equal(t, "1.2.3", cfg.GetServiceVersion())
	assert.Equal(t, "otel:4318", cfg.GetEndpoint())
	assert.True(t, cfg.GetInsecure())
}

func TestTracingConfigGetSampling(t *testing.T) {
	t.Parallel()

	tc := &TracingConfig{}
	assert.InDelta(t, DefaultSampling, tc.GetSampling(), 0.0001)

	tc = &TracingConfig{Sampling: 0.5}
	assert.InDelta(t, 0.5, tc.GetSampling(), 0.0001)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:   "nil config is valid",
			config: nil,
		},
		{
			name:   "disabled config skips validation",
			config: &Config{Enabled: false, Tracing: &TracingConfig{Enabled: true, Sampling: 5}},
		},
		{
			name:   "enabled with valid tracing",
			config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 0.25}},
		},
		{
			name:    "sampling above 1.0",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "sampling must be between",
		},
		{
			name:    "negative sampling",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "sampling must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}
