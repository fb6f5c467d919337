package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/otel"
	"github.com/stacklok/toolhive-console/internal/sources"
	"github.com/stacklok/toolhive-console/internal/status"
)

// ListRegistries returns summaries for all configured registries
func (s *consoleService) ListRegistries(_ context.Context) ([]*RegistrySummary, error) {
	summaries := make([]*RegistrySummary, 0, len(s.cfg.Registries))
	for i := range s.cfg.Registries {
		summaries = append(summaries, s.buildRegistrySummary(&s.cfg.Registries[i]))
	}
	return summaries, nil
}

// GetRegistry returns the summary for a single registry
func (s *consoleService) GetRegistry(_ context.Context, name string) (*RegistrySummary, error) {
	regCfg, ok := s.cfg.GetRegistry(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, name)
	}
	return s.buildRegistrySummary(regCfg), nil
}

// ForceSync triggers an immediate sync attempt for a registry
func (s *consoleService) ForceSync(ctx context.Context, registryName string) (*status.SyncStatus, error) {
	ctx, span := s.startSpan(ctx, "consoleService.ForceSync")
	defer span.End()
	span.SetAttributes(otel.AttrRegistryName.String(registryName))

	if _, ok := s.cfg.GetRegistry(registryName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
	}

	syncStatus, err := s.coordinator.TriggerSync(ctx, registryName)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return syncStatus, nil
}

// GetRegistryManifest returns the raw registry document as stored. The bytes
// are exactly what the source published, so manifest views render the
// original number and string literals.
func (s *consoleService) GetRegistryManifest(ctx context.Context, registryName string) ([]byte, error) {
	if _, ok := s.cfg.GetRegistry(registryName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
	}

	data, err := s.storage.GetRaw(ctx, registryName)
	if err != nil {
		if errors.Is(err, sources.ErrNoStoredData) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotSynced, registryName)
		}
		return nil, err
	}
	return data, nil
}

// GetConfigMapManifest returns the JSON manifest of a registry's backing ConfigMap
func (s *consoleService) GetConfigMapManifest(ctx context.Context, registryName string) ([]byte, error) {
	regCfg, ok := s.cfg.GetRegistry(registryName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
	}
	if regCfg.ConfigMap == nil {
		return nil, fmt.Errorf("registry %s is not backed by a ConfigMap", registryName)
	}
	if s.k8sClient == nil {
		return nil, ErrKubernetesUnavailable
	}

	var cm corev1.ConfigMap
	key := types.NamespacedName{Namespace: regCfg.ConfigMap.Namespace, Name: regCfg.ConfigMap.Name}
	if err := s.k8sClient.Get(ctx, key, &cm); err != nil {
		return nil, fmt.Errorf("failed to get ConfigMap %s/%s: %w", key.Namespace, key.Name, err)
	}

	data, err := json.Marshal(&cm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ConfigMap manifest: %w", err)
	}
	return data, nil
}

func (s *consoleService) buildRegistrySummary(regCfg *config.RegistryConfig) *RegistrySummary {
	summary := &RegistrySummary{
		Name:        regCfg.Name,
		DisplayName: regCfg.GetDisplayName(),
		Namespace:   regCfg.Namespace,
		Source:      regCfg.GetType(),
		URL:         regCfg.SourceURL(),
		Status:      status.SyncPhaseSyncing,
	}

	if syncStatus, ok := s.coordinator.GetStatus(regCfg.Name); ok {
		summary.Status = syncStatus.Phase
		summary.Message = syncStatus.Message
		summary.ServerCount = syncStatus.ServerCount
		summary.LastSyncTime = syncStatus.LastSyncTime
		summary.LastAttempt = syncStatus.LastAttempt
	}

	return summary
}
