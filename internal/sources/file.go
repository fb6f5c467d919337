package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/stacklok/toolhive-console/internal/config"
)

// FileSourceHandler handles registry data from local files
type FileSourceHandler struct {
	validator SourceDataValidator
}

// NewFileSourceHandler creates a new file source handler
func NewFileSourceHandler() *FileSourceHandler {
	return &FileSourceHandler{
		validator: NewSourceDataValidator(),
	}
}

// Validate validates the file source configuration
func (*FileSourceHandler) Validate(regConfig *config.RegistryConfig) error {
	if regConfig.File == nil {
		return fmt.Errorf("file configuration is required for source type %s", config.SourceTypeFile)
	}

	if regConfig.File.Path == "" {
		return fmt.Errorf("file path cannot be empty")
	}

	return nil
}

// FetchRegistry retrieves registry data from the local file
func (h *FileSourceHandler) FetchRegistry(_ context.Context, regConfig *config.RegistryConfig) (*FetchResult, error) {
	data, hash, err := h.fetchFileData(regConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file data: %w", err)
	}

	reg, err := h.validator.ValidateData(data)
	if err != nil {
		return nil, fmt.Errorf("registry data validation failed: %w", err)
	}

	return NewFetchResult(reg, data, hash), nil
}

// fetchFileData reads the file and calculates its hash
func (h *FileSourceHandler) fetchFileData(regConfig *config.RegistryConfig) ([]byte, string, error) {
	if err := h.Validate(regConfig); err != nil {
		return nil, "", fmt.Errorf("source validation failed: %w", err)
	}

	filePath := regConfig.File.Path

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("file not found: %s", filePath)
		}
		return nil, "", fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return data, hash, nil
}

// CurrentHash returns the current hash of the file without performing a full parse.
// This is nearly as expensive as a full fetch, but maintains the interface.
func (h *FileSourceHandler) CurrentHash(_ context.Context, regConfig *config.RegistryConfig) (string, error) {
	_, hash, err := h.fetchFileData(regConfig)
	if err != nil {
		return "", err
	}
	return hash, nil
}
