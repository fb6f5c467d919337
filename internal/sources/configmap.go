package sources

import (
	"context"
	"crypto/sha256"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stacklok/toolhive-console/internal/config"
)

const (
	// ConfigMapSourceDataKey is the default key used for registry data in ConfigMap sources
	ConfigMapSourceDataKey = "registry.json"
)

// ConfigMapSourceHandler handles registry data from Kubernetes ConfigMaps
type ConfigMapSourceHandler struct {
	client    client.Client
	validator SourceDataValidator
}

// NewConfigMapSourceHandler creates a new ConfigMap source handler
func NewConfigMapSourceHandler(k8sClient client.Client) *ConfigMapSourceHandler {
	return &ConfigMapSourceHandler{
		client:    k8sClient,
		validator: NewSourceDataValidator(),
	}
}

// Validate validates the ConfigMap source configuration
func (*ConfigMapSourceHandler) Validate(regConfig *config.RegistryConfig) error {
	if regConfig.ConfigMap == nil {
		return fmt.Errorf("configMap configuration is required for source type %s", config.SourceTypeConfigMap)
	}

	if regConfig.ConfigMap.Name == "" {
		return fmt.Errorf("configMap name cannot be empty")
	}
	if regConfig.ConfigMap.Namespace == "" {
		return fmt.Errorf("configMap namespace cannot be empty")
	}

	return nil
}

// fetchConfigMapData retrieves registry data from the ConfigMap
func (h *ConfigMapSourceHandler) fetchConfigMapData(ctx context.Context, regConfig *config.RegistryConfig) ([]byte, error) {
	if err := h.Validate(regConfig); err != nil {
		return nil, fmt.Errorf("source validation failed: %w", err)
	}

	source := regConfig.ConfigMap

	configMap := &corev1.ConfigMap{}
	configMapKey := types.NamespacedName{
		Name:      source.Name,
		Namespace: source.Namespace,
	}

	if err := h.client.Get(ctx, configMapKey, configMap); err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w",
			source.Namespace, source.Name, err)
	}

	key := source.Key
	if key == "" {
		key = ConfigMapSourceDataKey
	}

	data, exists := configMap.Data[key]
	if !exists {
		return nil, fmt.Errorf("key %s not found in ConfigMap %s/%s",
			key, source.Namespace, source.Name)
	}

	return []byte(data), nil
}

// FetchRegistry retrieves registry data from the ConfigMap source
func (h *ConfigMapSourceHandler) FetchRegistry(ctx context.Context, regConfig *config.RegistryConfig) (*FetchResult, error) {
	data, err := h.fetchConfigMapData(ctx, regConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ConfigMap data: %w", err)
	}

	reg, err := h.validator.ValidateData(data)
	if err != nil {
		return nil, fmt.Errorf("registry data validation failed: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return NewFetchResult(reg, data, hash), nil
}

// CurrentHash returns the current hash of the ConfigMap data
func (h *ConfigMapSourceHandler) CurrentHash(ctx context.Context, regConfig *config.RegistryConfig) (string, error) {
	data, err := h.fetchConfigMapData(ctx, regConfig)
	if err != nil {
		return "", fmt.Errorf("failed to fetch ConfigMap data: %w", err)
	}

	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	return hash, nil
}
