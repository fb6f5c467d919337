package coordinator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/status"
	consolesync "github.com/stacklok/toolhive-console/internal/sync"
	"github.com/stacklok/toolhive-console/internal/telemetry"
)

// fakeManager implements sync.Manager with scripted behavior
type fakeManager struct {
	mu         sync.Mutex
	shouldSync bool
	reason     string
	result     *consolesync.Result
	syncErr    error
	syncCalls  int
}

func (f *fakeManager) ShouldSync(_ context.Context, _ *config.RegistryConfig, _ *status.SyncStatus, _ bool) (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shouldSync, f.reason
}

func (f *fakeManager) PerformSync(_ context.Context, _ *config.RegistryConfig) (*consolesync.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncCalls++
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return f.result, nil
}

func (*fakeManager) Delete(_ context.Context, _ *config.RegistryConfig) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Registries: []config.RegistryConfig{
			{
				Name:       "default",
				File:       &config.FileConfig{Path: "/registry.json"},
				SyncPolicy: &config.SyncPolicyConfig{Interval: "30m"},
			},
		},
	}
}

func TestTriggerSyncPerformsSync(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{
		shouldSync: true,
		reason:     consolesync.ReasonManualWithChanges,
		result:     &consolesync.Result{Hash: "h1", ServerCount: 4},
	}
	c := New(manager, testConfig(t))

	syncStatus, err := c.TriggerSync(context.Background(), "default")
	require.NoError(t, err)
	require.NotNil(t, syncStatus)

	assert.Equal(t, status.SyncPhaseComplete, syncStatus.Phase)
	assert.Equal(t, "h1", syncStatus.LastSyncHash)
	assert.Equal(t, 4, syncStatus.ServerCount)
	assert.Equal(t, 1, manager.syncCalls)
}

func TestTriggerSyncSkipsWhenUpToDate(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{shouldSync: false, reason: consolesync.ReasonManualNoChanges}
	c := New(manager, testConfig(t))

	_, err := c.TriggerSync(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 0, manager.syncCalls)
}

func TestTriggerSyncUnknownRegistry(t *testing.T) {
	t.Parallel()

	c := New(&fakeManager{}, testConfig(t))
	_, err := c.TriggerSync(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown registry")
}

func TestTriggerSyncRecordsFailure(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{
		shouldSync: true,
		reason:     consolesync.ReasonSourceDataChanged,
		syncErr:    fmt.Errorf("fetch failed: source down"),
	}
	c := New(manager, testConfig(t))

	syncStatus, err := c.TriggerSync(context.Background(), "default")
	require.NoError(t, err)
	require.NotNil(t, syncStatus)

	assert.Equal(t, status.SyncPhaseFailed, syncStatus.Phase)
	assert.Contains(t, syncStatus.Message, "source down")
	assert.Equal(t, 1, syncStatus.AttemptCount)
}

func TestGetStatusCopiesState(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{
		shouldSync: true,
		reason:     consolesync.ReasonSourceDataChanged,
		result:     &consolesync.Result{Hash: "h1", ServerCount: 2},
	}
	c := New(manager, testConfig(t))

	_, err := c.TriggerSync(context.Background(), "default")
	require.NoError(t, err)

	got, ok := c.GetStatus("default")
	require.True(t, ok)

	// Mutating the returned status must not affect coordinator state.
	got.Phase = status.SyncPhaseFailed
	again, ok := c.GetStatus("default")
	require.True(t, ok)
	assert.Equal(t, status.SyncPhaseComplete, again.Phase)
}

func TestGetStatusUnknownRegistry(t *testing.T) {
	t.Parallel()

	c := New(&fakeManager{}, testConfig(t))
	_, ok := c.GetStatus("missing")
	assert.False(t, ok)
}

func TestTriggerSyncRecordsMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	syncMetrics, err := telemetry.NewSyncMetrics(mp)
	require.NoError(t, err)
	registryMetrics, err := telemetry.NewRegistryMetrics(mp)
	require.NoError(t, err)

	manager := &fakeManager{
		shouldSync: true,
		reason:     consolesync.ReasonManualWithChanges,
		result:     &consolesync.Result{Hash: "h1", ServerCount: 4},
	}
	c := New(manager, testConfig(t),
		WithSyncMetrics(syncMetrics),
		WithRegistryMetrics(registryMetrics),
	)

	_, err = c.TriggerSync(context.Background(), "default")
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			names[m.Name] = true
		}
	}
	assert.True(t, names["thv_console_sync_duration_seconds"])
	assert.True(t, names["thv_console_registry_servers_total"])
}

func TestStartRunsInitialCheckAndStops(t *testing.T) {
	t.Parallel()

	manager := &fakeManager{
		shouldSync: true,
		reason:     consolesync.ReasonRegistryNotReady,
		result:     &consolesync.Result{Hash: "h1", ServerCount: 1},
	}
	c := New(manager, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- c.Start(ctx)
	}()

	// Wait for the initial sync pass to land.
	require.Eventually(t, func() bool {
		st, ok := c.GetStatus("default")
		return ok && st.Phase == status.SyncPhaseComplete
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-errCh)
}
