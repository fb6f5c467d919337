// Package sources provides handlers for fetching registry data from the
// configured source types: Git repositories, Kubernetes ConfigMaps, remote
// registry APIs, and local files.
package sources

import (
	"context"
	"fmt"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/registry"
)

// SourceDataValidator is an interface for validating raw registry data
type SourceDataValidator interface {
	// ValidateData validates raw data and returns a parsed Registry
	ValidateData(data []byte) (*registry.Registry, error)
}

// SourceHandler is an interface with methods to fetch data from external data sources
type SourceHandler interface {
	// FetchRegistry retrieves data from the source and returns the result
	FetchRegistry(ctx context.Context, regConfig *config.RegistryConfig) (*FetchResult, error)

	// Validate validates the source configuration
	Validate(regConfig *config.RegistryConfig) error

	// CurrentHash returns the current hash of the source data without
	// parsing it
	CurrentHash(ctx context.Context, regConfig *config.RegistryConfig) (string, error)
}

// FetchResult contains the result of a fetch operation
type FetchResult struct {
	// Registry is the parsed registry data
	Registry *registry.Registry

	// Data is the raw registry document exactly as published by the source
	Data []byte

	// Hash is the SHA256 hash of the serialized data for change detection
	Hash string

	// ServerCount is the number of servers found in the registry data
	ServerCount int
}

// NewFetchResult creates a new FetchResult from a Registry instance, the raw
// source data, and a pre-calculated hash. The hash should be calculated by
// the source handler to ensure consistency with CurrentHash.
func NewFetchResult(reg *registry.Registry, data []byte, hash string) *FetchResult {
	return &FetchResult{
		Registry:    reg,
		Data:        data,
		Hash:        hash,
		ServerCount: reg.ServerCount(),
	}
}

// SourceHandlerFactory creates source handlers based on source type
type SourceHandlerFactory interface {
	// CreateHandler creates a source handler for the given source type
	CreateHandler(sourceType string) (SourceHandler, error)
}

// DefaultSourceDataValidator is the default implementation of SourceDataValidator
type DefaultSourceDataValidator struct{}

// NewSourceDataValidator creates a new default source validator
func NewSourceDataValidator() SourceDataValidator {
	return &DefaultSourceDataValidator{}
}

// ValidateData validates raw data and returns a parsed Registry
func (*DefaultSourceDataValidator) ValidateData(data []byte) (*registry.Registry, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("data cannot be empty")
	}
	return registry.ParseRegistry(data)
}
