package sources

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v5"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/httpclient"
)

const (
	// registryDataPath is the path appended to the API endpoint to fetch
	// the full registry document.
	registryDataPath = "/v0/registry"

	// apiFetchMaxTries bounds retry attempts against flaky endpoints.
	apiFetchMaxTries = 3
)

// APISourceHandler handles registry data from remote registry API endpoints
type APISourceHandler struct {
	httpClient httpclient.Client
	validator  SourceDataValidator
}

// NewAPISourceHandler creates a new API source handler
func NewAPISourceHandler() *APISourceHandler {
	return &APISourceHandler{
		httpClient: httpclient.NewDefaultClient(0), // Use default timeout
		validator:  NewSourceDataValidator(),
	}
}

// NewAPISourceHandlerWithClient creates an API source handler with a custom
// HTTP client.
func NewAPISourceHandlerWithClient(client httpclient.Client) *APISourceHandler {
	return &APISourceHandler{
		httpClient: client,
		validator:  NewSourceDataValidator(),
	}
}

// Validate validates the API source configuration
func (*APISourceHandler) Validate(regConfig *config.RegistryConfig) error {
	if regConfig.API == nil {
		return fmt.Errorf("api configuration is required for source type %s", config.SourceTypeAPI)
	}

	if regConfig.API.Endpoint == "" {
		return fmt.Errorf("api endpoint cannot be empty")
	}

	return nil
}

// fetchAPIData fetches the registry document from the endpoint with retries
func (h *APISourceHandler) fetchAPIData(ctx context.Context, regConfig *config.RegistryConfig) ([]byte, error) {
	if err := h.Validate(regConfig); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	url := strings.TrimSuffix(regConfig.API.Endpoint, "/") + registryDataPath

	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		return h.httpClient.Get(ctx, url)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(apiFetchMaxTries))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch registry data from %s: %w", url, err)
	}

	return data, nil
}

// FetchRegistry retrieves registry data from the API endpoint
func (h *APISourceHandler) FetchRegistry(ctx context.Context, regConfig *config.RegistryConfig) (*FetchResult, error) {
	data, err := h.fetchAPIData(ctx, regConfig)
	if err != nil {
		return nil, err
	}

	reg, err := h.validator.ValidateData(data)
	if err != nil {
		return nil, fmt.Errorf("registry data validation failed: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return NewFetchResult(reg, data, hash), nil
}

// CurrentHash returns the current hash of the API response
func (h *APISourceHandler) CurrentHash(ctx context.Context, regConfig *config.RegistryConfig) (string, error) {
	data, err := h.fetchAPIData(ctx, regConfig)
	if err != nil {
		return "", err
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return hash, nil
}
