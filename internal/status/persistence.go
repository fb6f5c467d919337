// Package status provides sync status tracking and persistence for registries.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// Persistence defines the interface for sync status persistence
type Persistence interface {
	// SaveStatus saves the sync status to persistent storage
	SaveStatus(ctx context.Context, status *SyncStatus) error

	// LoadStatus loads the sync status from persistent storage.
	// Returns an empty SyncStatus if nothing is stored yet (first run).
	LoadStatus(ctx context.Context) (*SyncStatus, error)
}

// FilePersistence implements Persistence using the local filesystem
type FilePersistence struct {
	filePath string
}

// NewFilePersistence creates a new file-based status persistence
func NewFilePersistence(filePath string) Persistence {
	return &FilePersistence{
		filePath: filePath,
	}
}

// SaveStatus saves the sync status to a JSON file
func (f *FilePersistence) SaveStatus(_ context.Context, status *SyncStatus) error {
	dir := filepath.Dir(f.filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	// Pretty-printed for readability when inspecting the data dir.
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status data: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := f.filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, f.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}

	return nil
}

// LoadStatus loads the sync status from a JSON file.
// Returns an empty SyncStatus if the file doesn't exist.
func (f *FilePersistence) LoadStatus(_ context.Context) (*SyncStatus, error) {
	data, err := os.ReadFile(f.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist - this is OK for first run
			return &SyncStatus{}, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status data: %w", err)
	}

	return &status, nil
}
