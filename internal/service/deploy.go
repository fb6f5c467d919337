package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/kubernetes"
	"github.com/stacklok/toolhive-console/internal/otel"
	"github.com/stacklok/toolhive-console/internal/registry"
	"github.com/stacklok/toolhive-console/internal/validators"
	"github.com/stacklok/toolhive-console/internal/versions"
)

// ListDeployedServers lists running instances created from a registry
func (s *consoleService) ListDeployedServers(
	ctx context.Context, registryName string,
) ([]*kubernetes.DeployedServer, error) {
	if s.provider == nil {
		return nil, ErrKubernetesUnavailable
	}
	if registryName != "" {
		if _, ok := s.cfg.GetRegistry(registryName); !ok {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
		}
	}
	return s.provider.ListDeployedServers(ctx, registryName)
}

// GetDeployedServer returns a single running instance
func (s *consoleService) GetDeployedServer(
	ctx context.Context, namespace, name string,
) (*kubernetes.DeployedServer, error) {
	if s.provider == nil {
		return nil, ErrKubernetesUnavailable
	}

	server, err := s.provider.GetDeployedServer(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	if server == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, namespace, name)
	}
	return server, nil
}

// GetDeployedServerManifest returns the JSON manifest of a running instance
func (s *consoleService) GetDeployedServerManifest(
	ctx context.Context, namespace, name string,
) ([]byte, error) {
	if s.provider == nil {
		return nil, ErrKubernetesUnavailable
	}

	deployment, err := s.provider.GetDeployment(ctx, namespace, name)
	if err != nil {
		return nil, err
	}
	if deployment == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, namespace, name)
	}

	data, err := json.Marshal(deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deployment manifest: %w", err)
	}
	return data, nil
}

// DeployServer creates a new instance of a registry server
func (s *consoleService) DeployServer(
	ctx context.Context, registryName, serverName string, req *DeployRequest,
) (*DeployResult, error) {
	ctx, span := s.startSpan(ctx, "consoleService.DeployServer")
	defer span.End()
	span.SetAttributes(
		otel.AttrRegistryName.String(registryName),
		otel.AttrServerName.String(serverName),
	)

	if s.provider == nil {
		otel.RecordError(span, ErrKubernetesUnavailable)
		return nil, ErrKubernetesUnavailable
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request body is required", ErrInvalidDeployRequest)
	}
	if req.Version != "" {
		span.SetAttributes(otel.AttrServerVersion.String(req.Version))
	}

	regCfg, ok := s.cfg.GetRegistry(registryName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
	}

	srv, err := s.GetServer(ctx, registryName, serverName)
	if err != nil {
		return nil, err
	}

	entry, ok := srv.(*registry.ImageMetadata)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a remote server", ErrServerNotDeployable, serverName)
	}

	name, err := validators.ValidateDeploymentName(req.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeployRequest, err)
	}

	envVars, secretEnvVars, err := resolveEnvVars(entry.EnvVars, req.EnvVars)
	if err != nil {
		return nil, err
	}

	deployCfg := &kubernetes.DeployConfig{
		Name:          name,
		Namespace:     targetNamespace(req, regCfg),
		RegistryName:  registryName,
		ServerName:    serverName,
		Image:         resolveImage(entry, req.Version),
		Transport:     entry.Transport,
		TargetPort:    entry.TargetPort,
		Args:          entry.Args,
		EnvVars:       envVars,
		SecretEnvVars: secretEnvVars,
	}
	if req.TargetPort > 0 {
		deployCfg.TargetPort = req.TargetPort
	}

	objects, err := kubernetes.BuildDeploymentObjects(deployCfg)
	if err != nil {
		return nil, err
	}

	if err := s.provider.Deploy(ctx, objects); err != nil {
		err = fmt.Errorf("failed to deploy server %s: %w", serverName, err)
		otel.RecordError(span, err)
		return nil, err
	}

	manifest, err := json.Marshal(objects.Deployment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deployment manifest: %w", err)
	}

	slog.Info("Deployed server",
		"registry", registryName,
		"server", serverName,
		"deployment", name,
		"namespace", deployCfg.Namespace,
		"image", deployCfg.Image,
	)

	return &DeployResult{
		ID:        uuid.NewString(),
		Name:      name,
		Namespace: deployCfg.Namespace,
		Image:     deployCfg.Image,
		Manifest:  manifest,
	}, nil
}

// DeleteServer removes a deployed server and its associated resources
func (s *consoleService) DeleteServer(ctx context.Context, namespace, name string) error {
	ctx, span := s.startSpan(ctx, "consoleService.DeleteServer")
	defer span.End()
	span.SetAttributes(otel.AttrServerName.String(name))

	if s.provider == nil {
		return ErrKubernetesUnavailable
	}

	deployment, err := s.provider.GetDeployment(ctx, namespace, name)
	if err != nil {
		otel.RecordError(span, err)
		return err
	}
	if deployment == nil {
		return fmt.Errorf("%w: %s/%s", ErrDeploymentNotFound, namespace, name)
	}

	if err := s.provider.DeleteDeployedServer(ctx, namespace, name); err != nil {
		otel.RecordError(span, err)
		return err
	}

	slog.Info("Deleted server", "deployment", name, "namespace", namespace)
	return nil
}

// resolveEnvVars merges user-provided values with the entry's declared
// environment variables. Every required variable must have a non-blank value;
// the error names the first missing one. Values for variables declared secret
// go to the secret map, everything else is plain.
func resolveEnvVars(
	declared []*registry.EnvVar, provided map[string]string,
) (map[string]string, map[string]string, error) {
	envVars := map[string]string{}
	secretEnvVars := map[string]string{}

	for _, ev := range declared {
		value, ok := provided[ev.Name]
		if strings.TrimSpace(value) == "" {
			ok = false
		}

		if !ok {
			if ev.Required && ev.Default == "" {
				return nil, nil, fmt.Errorf("%w: %s", ErrMissingRequiredEnvVar, ev.Name)
			}
			if ev.Default != "" {
				envVars[ev.Name] = ev.Default
			}
			continue
		}

		if ev.Secret {
			secretEnvVars[ev.Name] = value
		} else {
			envVars[ev.Name] = value
		}
	}

	// Extra variables not declared by the entry are passed through as plain
	// values after a name check.
	declaredNames := make(map[string]bool, len(declared))
	for _, ev := range declared {
		declaredNames[ev.Name] = true
	}
	for name, value := range provided {
		if declaredNames[name] || strings.TrimSpace(value) == "" {
			continue
		}
		if err := validators.ValidateEnvVarName(name); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDeployRequest, err)
		}
		envVars[name] = value
	}

	return envVars, secretEnvVars, nil
}

func targetNamespace(req *DeployRequest, regCfg *config.RegistryConfig) string {
	if req.Namespace != "" {
		return req.Namespace
	}
	if regCfg.Namespace != "" {
		return regCfg.Namespace
	}
	return kubernetes.DefaultNamespace
}

// resolveImage picks the container image for a deployment. An explicit
// version pins the docker tag; otherwise the entry's image reference is used
// as-is, falling back to the newest known docker tag when the reference has
// no tag of its own.
func resolveImage(entry *registry.ImageMetadata, version string) string {
	repo := entry.Image
	if idx := strings.LastIndex(repo, ":"); idx > strings.LastIndex(repo, "/") {
		if version == "" {
			return entry.Image
		}
		repo = repo[:idx]
	}

	if version != "" {
		return repo + ":" + version
	}

	if latest := versions.LatestTag(entry.DockerTags); latest != "" {
		return repo + ":" + latest
	}
	return entry.Image
}
