package sources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stacklok/toolhive-console/internal/registry"
)

const (
	// RegistryDataFileName is the file name used to store synced registry
	// data under the data directory.
	RegistryDataFileName = "registry.json"
)

// ErrNoStoredData is returned when no data has been synced yet for a registry
var ErrNoStoredData = errors.New("no stored registry data")

// StorageManager defines the interface for synced registry data persistence.
// The raw bytes are kept verbatim so manifest views reflect exactly what the
// source published.
type StorageManager interface {
	// Store saves raw registry data for the named registry
	Store(ctx context.Context, registryName string, data []byte) error

	// GetRaw retrieves the raw registry data for the named registry
	GetRaw(ctx context.Context, registryName string) ([]byte, error)

	// Get retrieves and parses registry data for the named registry
	Get(ctx context.Context, registryName string) (*registry.Registry, error)

	// Delete removes stored registry data for the named registry
	Delete(ctx context.Context, registryName string) error
}

// FileStorageManager implements StorageManager using the local filesystem.
// Each registry's data lives at <dataDir>/<registryName>/registry.json.
type FileStorageManager struct {
	dataDir string
}

// NewFileStorageManager creates a file-backed storage manager rooted at dataDir
func NewFileStorageManager(dataDir string) *FileStorageManager {
	return &FileStorageManager{dataDir: dataDir}
}

func (m *FileStorageManager) dataPath(registryName string) string {
	return filepath.Join(m.dataDir, registryName, RegistryDataFileName)
}

// Store saves raw registry data for the named registry
func (m *FileStorageManager) Store(_ context.Context, registryName string, data []byte) error {
	if registryName == "" {
		return fmt.Errorf("registry name cannot be empty")
	}

	path := m.dataPath(registryName)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create registry data directory: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary registry data file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename registry data file: %w", err)
	}

	return nil
}

// GetRaw retrieves the raw registry data for the named registry
func (m *FileStorageManager) GetRaw(_ context.Context, registryName string) ([]byte, error) {
	data, err := os.ReadFile(m.dataPath(registryName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w for registry %s", ErrNoStoredData, registryName)
		}
		return nil, fmt.Errorf("failed to read registry data: %w", err)
	}
	return data, nil
}

// Get retrieves and parses registry data for the named registry
func (m *FileStorageManager) Get(ctx context.Context, registryName string) (*registry.Registry, error) {
	data, err := m.GetRaw(ctx, registryName)
	if err != nil {
		return nil, err
	}

	reg, err := registry.ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("stored registry data is invalid: %w", err)
	}
	return reg, nil
}

// Delete removes stored registry data for the named registry
func (m *FileStorageManager) Delete(_ context.Context, registryName string) error {
	err := os.RemoveAll(filepath.Join(m.dataDir, registryName))
	if err != nil {
		return fmt.Errorf("failed to delete registry data: %w", err)
	}
	return nil
}
