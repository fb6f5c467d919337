// Package sync implements registry data synchronization: deciding when a
// registry needs to be re-fetched from its source and executing the fetch,
// validation, and storage steps.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/sources"
	"github.com/stacklok/toolhive-console/internal/status"
)

// Result contains the result of a successful sync operation
type Result struct {
	Hash        string
	ServerCount int
}

// Sync reason constants
const (
	// Registry state related reasons
	ReasonAlreadyInProgress = "sync-already-in-progress"
	ReasonRegistryNotReady  = "registry-not-ready"

	// Data change related reasons
	ReasonSourceDataChanged    = "source-data-changed"
	ReasonErrorCheckingChanges = "error-checking-data-changes"

	// Manual sync related reasons
	ReasonManualWithChanges = "manual-sync-with-data-changes"
	ReasonManualNoChanges   = "manual-sync-no-data-changes"

	// Up-to-date reason
	ReasonUpToDate = "up-to-date"
)

// Manager manages synchronization operations for configured registries
type Manager interface {
	// ShouldSync determines if a sync operation is needed and why
	ShouldSync(ctx context.Context, regCfg *config.RegistryConfig, syncStatus *status.SyncStatus,
		manualSyncRequested bool) (bool, string)

	// PerformSync executes the complete sync operation
	PerformSync(ctx context.Context, regCfg *config.RegistryConfig) (*Result, error)

	// Delete cleans up stored data for the registry
	Delete(ctx context.Context, regCfg *config.RegistryConfig) error
}

// DataChangeDetector detects changes in source data
type DataChangeDetector interface {
	// IsDataChanged checks if source data has changed by comparing hashes
	IsDataChanged(ctx context.Context, regCfg *config.RegistryConfig, syncStatus *status.SyncStatus) (bool, error)
}

// DefaultSyncManager is the default implementation of Manager
type DefaultSyncManager struct {
	sourceHandlerFactory sources.SourceHandlerFactory
	storageManager       sources.StorageManager
	dataChangeDetector   DataChangeDetector
}

// NewDefaultSyncManager creates a new DefaultSyncManager
func NewDefaultSyncManager(
	sourceHandlerFactory sources.SourceHandlerFactory,
	storageManager sources.StorageManager,
) *DefaultSyncManager {
	return &DefaultSyncManager{
		sourceHandlerFactory: sourceHandlerFactory,
		storageManager:       storageManager,
		dataChangeDetector:   &DefaultDataChangeDetector{sourceHandlerFactory: sourceHandlerFactory},
	}
}

// ShouldSync determines if a sync operation is needed.
// Returns (shouldSync, reason).
func (s *DefaultSyncManager) ShouldSync(
	ctx context.Context,
	regCfg *config.RegistryConfig,
	syncStatus *status.SyncStatus,
	manualSyncRequested bool,
) (bool, string) {
	// If registry is currently syncing, don't start another sync
	if syncStatus != nil && syncStatus.Phase == status.SyncPhaseSyncing {
		return false, ReasonAlreadyInProgress
	}

	syncNeededForState := isSyncNeededForState(syncStatus)
	intervalElapsed := s.isIntervalElapsed(regCfg, syncStatus)

	if !syncNeededForState && !manualSyncRequested && !intervalElapsed {
		return false, ReasonUpToDate
	}

	dataChanged, err := s.dataChangeDetector.IsDataChanged(ctx, regCfg, syncStatus)
	if err != nil {
		// Couldn't compare hashes - sync to be safe
		slog.Warn("Failed to determine if data has changed",
			"registry", regCfg.Name,
			"error", err)
		return true, ReasonErrorCheckingChanges
	}

	if !dataChanged {
		if manualSyncRequested {
			return false, ReasonManualNoChanges
		}
		return false, ReasonUpToDate
	}

	switch {
	case syncNeededForState:
		return true, ReasonRegistryNotReady
	case manualSyncRequested:
		return true, ReasonManualWithChanges
	default:
		return true, ReasonSourceDataChanged
	}
}

// isSyncNeededForState checks if sync is needed based on the registry's current state
func isSyncNeededForState(syncStatus *status.SyncStatus) bool {
	if syncStatus == nil {
		return true
	}
	// Anything other than a completed sync needs a (re)sync.
	return syncStatus.Phase != status.SyncPhaseComplete
}

// isIntervalElapsed checks whether the registry's sync interval has passed
// since the last successful sync.
func (*DefaultSyncManager) isIntervalElapsed(regCfg *config.RegistryConfig, syncStatus *status.SyncStatus) bool {
	if syncStatus == nil || syncStatus.LastSyncTime == nil {
		return true
	}
	interval := regCfg.SyncInterval(time.Hour)
	return time.Since(*syncStatus.LastSyncTime) >= interval
}

// PerformSync performs the complete sync operation for the registry
func (s *DefaultSyncManager) PerformSync(ctx context.Context, regCfg *config.RegistryConfig) (*Result, error) {
	sourceHandler, err := s.sourceHandlerFactory.CreateHandler(regCfg.GetType())
	if err != nil {
		return nil, fmt.Errorf("failed to create source handler: %w", err)
	}

	if err := sourceHandler.Validate(regCfg); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	fetchResult, err := sourceHandler.FetchRegistry(ctx, regCfg)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	slog.Info("Registry data fetched successfully from source",
		"registry", regCfg.Name,
		"serverCount", fetchResult.ServerCount,
		"hash", fetchResult.Hash)

	if err := s.storageManager.Store(ctx, regCfg.Name, fetchResult.Data); err != nil {
		return nil, fmt.Errorf("storage failed: %w", err)
	}

	return &Result{
		Hash:        fetchResult.Hash,
		ServerCount: fetchResult.ServerCount,
	}, nil
}

// Delete cleans up stored data for the registry
func (s *DefaultSyncManager) Delete(ctx context.Context, regCfg *config.RegistryConfig) error {
	return s.storageManager.Delete(ctx, regCfg.Name)
}

// DefaultDataChangeDetector compares the source's current hash with the last
// synced hash.
type DefaultDataChangeDetector struct {
	sourceHandlerFactory sources.SourceHandlerFactory
}

// IsDataChanged checks if source data has changed by comparing hashes
func (d *DefaultDataChangeDetector) IsDataChanged(
	ctx context.Context,
	regCfg *config.RegistryConfig,
	syncStatus *status.SyncStatus,
) (bool, error) {
	if syncStatus == nil || syncStatus.LastSyncHash == "" {
		// Never synced - treat as changed
		return true, nil
	}

	sourceHandler, err := d.sourceHandlerFactory.CreateHandler(regCfg.GetType())
	if err != nil {
		return false, fmt.Errorf("failed to create source handler: %w", err)
	}

	currentHash, err := sourceHandler.CurrentHash(ctx, regCfg)
	if err != nil {
		return false, fmt.Errorf("failed to get current source hash: %w", err)
	}

	return currentHash != syncStatus.LastSyncHash, nil
}
