// Package coordinator schedules and executes background registry
// synchronization for all configured registries, and serves manual sync
// triggers from the console.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/status"
	consolesync "github.com/stacklok/toolhive-console/internal/sync"
	"github.com/stacklok/toolhive-console/internal/telemetry"
)

const (
	// basePollingInterval is the base interval at which the coordinator checks for sync jobs
	basePollingInterval = 2 * time.Minute
	// pollingJitter is the maximum random offset (±30 seconds) applied to the polling interval
	pollingJitter = 30 * time.Second
	// maxConcurrentSyncs bounds how many registries sync at the same time.
	// Slow sources (large Git clones) must not starve the others.
	maxConcurrentSyncs = 4
)

// Coordinator manages background synchronization scheduling and execution for multiple registries
type Coordinator interface {
	// Start begins background sync coordination for all registries.
	// Blocks until context is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator
	Stop() error

	// TriggerSync performs an immediate manual sync check for the named
	// registry and returns the resulting status.
	TriggerSync(ctx context.Context, registryName string) (*status.SyncStatus, error)

	// GetStatus returns the current sync status of the named registry
	GetStatus(registryName string) (*status.SyncStatus, bool)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager consolesync.Manager
	config  *config.Config
	dataDir string

	// statuses guards per-registry sync state; persistence mirrors it to disk
	mu          sync.Mutex
	statuses    map[string]*status.SyncStatus
	persistence map[string]status.Persistence

	// Lifecycle management
	cancelFunc context.CancelFunc
	done       chan struct{}

	// Metrics are nil-safe; unset means no recording
	syncMetrics     *telemetry.SyncMetrics
	registryMetrics *telemetry.RegistryMetrics
}

// Option configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics records sync durations for every sync operation
func WithSyncMetrics(m *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = m
	}
}

// WithRegistryMetrics records per-registry server counts after successful syncs
func WithRegistryMetrics(m *telemetry.RegistryMetrics) Option {
	return func(c *defaultCoordinator) {
		c.registryMetrics = m
	}
}

// New creates a new coordinator with injected dependencies
func New(manager consolesync.Manager, cfg *config.Config, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:     manager,
		config:      cfg,
		dataDir:     cfg.GetDataDir(),
		statuses:    make(map[string]*status.SyncStatus),
		persistence: make(map[string]status.Persistence),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// calculatePollingInterval returns the base polling interval with a random jitter applied.
// The jitter prevents all instances from hitting their sources simultaneously.
func calculatePollingInterval() time.Duration {
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	jitterOffset := time.Duration(rand.Int64N(int64(2*pollingJitter))) - pollingJitter
	return basePollingInterval + jitterOffset
}

// Start begins background sync coordination for all registries
func (c *defaultCoordinator) Start(ctx context.Context) error {
	slog.Info("Starting background sync coordinator", "registry_count", len(c.config.Registries))

	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Background sync coordinator shutting down")
	}()

	if err := c.initializeStatuses(ctx); err != nil {
		return fmt.Errorf("failed to initialize registry sync status: %w", err)
	}

	pollingInterval := calculatePollingInterval()
	slog.Info("Configured coordinator sync interval",
		"base_interval", basePollingInterval,
		"actual_interval", pollingInterval)

	ticker := time.NewTicker(pollingInterval)
	defer ticker.Stop()

	// Perform initial sync check
	c.checkAllRegistries(coordCtx)

	for {
		select {
		case <-ticker.C:
			c.checkAllRegistries(coordCtx)

			// Recalculate interval with new jitter for next iteration
			ticker.Reset(calculatePollingInterval())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping sync coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// TriggerSync performs an immediate manual sync check for the named registry
func (c *defaultCoordinator) TriggerSync(ctx context.Context, registryName string) (*status.SyncStatus, error) {
	regCfg, ok := c.config.GetRegistry(registryName)
	if !ok {
		return nil, fmt.Errorf("unknown registry: %s", registryName)
	}

	var shouldSync bool
	var reason string
	c.withRegistryStatus(registryName, func(syncStatus *status.SyncStatus) {
		shouldSync, reason = c.manager.ShouldSync(ctx, regCfg, syncStatus, true)
	})

	slog.Info("Manual sync triggered",
		"registry", registryName,
		"shouldSync", shouldSync,
		"reason", reason)

	if shouldSync {
		c.performRegistrySync(ctx, regCfg)
	}

	syncStatus, _ := c.GetStatus(registryName)
	return syncStatus, nil
}

// GetStatus returns the current sync status of the named registry
func (c *defaultCoordinator) GetStatus(registryName string) (*status.SyncStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	syncStatus, ok := c.statuses[registryName]
	if !ok {
		return nil, false
	}
	// Copy so callers cannot mutate coordinator state.
	copied := *syncStatus
	return &copied, true
}

// initializeStatuses loads persisted sync status for every configured registry
func (c *defaultCoordinator) initializeStatuses(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.config.Registries {
		name := c.config.Registries[i].Name
		persistence := status.NewFilePersistence(
			filepath.Join(c.dataDir, name, status.StatusFileName))

		loaded, err := persistence.LoadStatus(ctx)
		if err != nil {
			return fmt.Errorf("registry %s: %w", name, err)
		}

		// A sync interrupted by a restart would otherwise block forever.
		if loaded.Phase == status.SyncPhaseSyncing {
			loaded.Phase = status.SyncPhaseFailed
			loaded.Message = "Sync interrupted by restart"
		}

		c.statuses[name] = loaded
		c.persistence[name] = persistence
	}

	return nil
}

// checkAllRegistries runs a sync check for every configured registry.
// Registries sync concurrently, bounded by maxConcurrentSyncs.
func (c *defaultCoordinator) checkAllRegistries(ctx context.Context) {
	group := &errgroup.Group{}
	group.SetLimit(maxConcurrentSyncs)

	for i := range c.config.Registries {
		regCfg := &c.config.Registries[i]

		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			var shouldSync bool
			var reason string
			c.withRegistryStatus(regCfg.Name, func(syncStatus *status.SyncStatus) {
				shouldSync, reason = c.manager.ShouldSync(ctx, regCfg, syncStatus, false)
			})

			if !shouldSync {
				slog.Debug("Registry does not need sync",
					"registry", regCfg.Name,
					"reason", reason)
				return nil
			}

			c.performRegistrySync(ctx, regCfg)
			return nil
		})
	}

	_ = group.Wait()
}

// performRegistrySync executes a sync operation and updates status for a specific registry
func (c *defaultCoordinator) performRegistrySync(ctx context.Context, regCfg *config.RegistryConfig) {
	registryName := regCfg.Name

	// Ensure status is persisted at the end, whatever the result
	defer func() {
		c.withRegistryStatus(registryName, func(syncStatus *status.SyncStatus) {
			c.persistStatusLocked(ctx, registryName, syncStatus)
		})
	}()

	// Update status: Syncing (under lock), and persist immediately so the
	// state is visible to the console.
	var attemptCount int
	c.withRegistryStatus(registryName, func(syncStatus *status.SyncStatus) {
		syncStatus.Phase = status.SyncPhaseSyncing
		syncStatus.Message = "Sync in progress"
		now := time.Now()
		syncStatus.LastAttempt = &now
		syncStatus.AttemptCount++
		attemptCount = syncStatus.AttemptCount
		c.persistStatusLocked(ctx, registryName, syncStatus)
	})

	slog.Info("Starting sync operation", "registry", registryName, "attempt", attemptCount)

	// Perform sync outside the lock - this can take a long time.
	syncStart := time.Now()
	result, err := c.manager.PerformSync(ctx, regCfg)
	c.syncMetrics.RecordSyncDuration(ctx, registryName, time.Since(syncStart), err == nil)
	if err == nil {
		c.registryMetrics.RecordServersTotal(ctx, registryName, int64(result.ServerCount))
	}

	now := time.Now()
	c.withRegistryStatus(registryName, func(syncStatus *status.SyncStatus) {
		if err != nil {
			syncStatus.Phase = status.SyncPhaseFailed
			syncStatus.Message = err.Error()
			slog.Error("Sync failed", "registry", registryName, "error", err)
			return
		}

		syncStatus.Phase = status.SyncPhaseComplete
		syncStatus.Message = "Sync completed successfully"
		syncStatus.LastSyncTime = &now
		syncStatus.LastSyncHash = result.Hash
		syncStatus.ServerCount = result.ServerCount
		syncStatus.AttemptCount = 0

		hashPreview := result.Hash
		if len(hashPreview) > 8 {
			hashPreview = hashPreview[:8]
		}
		slog.Info("Sync completed successfully",
			"registry", registryName,
			"server_count", result.ServerCount,
			"hash", hashPreview)
	})
}

// withRegistryStatus runs fn with the registry's status held under the lock
func (c *defaultCoordinator) withRegistryStatus(registryName string, fn func(*status.SyncStatus)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	syncStatus, ok := c.statuses[registryName]
	if !ok {
		syncStatus = &status.SyncStatus{}
		c.statuses[registryName] = syncStatus
	}
	fn(syncStatus)
}

// persistStatusLocked writes the status to disk. Callers must hold the lock.
func (c *defaultCoordinator) persistStatusLocked(ctx context.Context, registryName string, syncStatus *status.SyncStatus) {
	persistence, ok := c.persistence[registryName]
	if !ok {
		persistence = status.NewFilePersistence(
			filepath.Join(c.dataDir, registryName, status.StatusFileName))
		c.persistence[registryName] = persistence
	}

	if err := persistence.SaveStatus(ctx, syncStatus); err != nil {
		slog.Warn("Failed to persist sync status",
			"registry", registryName,
			"error", err)
	}
}
