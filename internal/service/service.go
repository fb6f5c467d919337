// Package service provides the business logic for the console API
package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/kubernetes"
	"github.com/stacklok/toolhive-console/internal/otel"
	"github.com/stacklok/toolhive-console/internal/registry"
	"github.com/stacklok/toolhive-console/internal/sources"
	"github.com/stacklok/toolhive-console/internal/status"
	"github.com/stacklok/toolhive-console/internal/sync/coordinator"
)

// TracerName identifies the service-layer tracer
const TracerName = "github.com/stacklok/toolhive-console/service"

var (
	// ErrRegistryNotFound is returned when a registry is not found
	ErrRegistryNotFound = errors.New("registry not found")
	// ErrServerNotFound is returned when a server is not found
	ErrServerNotFound = errors.New("server not found")
	// ErrDeploymentNotFound is returned when a deployed server is not found
	ErrDeploymentNotFound = errors.New("deployment not found")
	// ErrRegistryNotSynced is returned when registry data has not been fetched yet
	ErrRegistryNotSynced = errors.New("registry data not synced yet")
	// ErrMissingRequiredEnvVar is returned when a deploy request omits a required environment variable
	ErrMissingRequiredEnvVar = errors.New("missing required environment variable")
	// ErrInvalidDeployRequest is returned when a deploy request fails field validation
	ErrInvalidDeployRequest = errors.New("invalid deploy request")
	// ErrServerNotDeployable is returned when a registry entry cannot be deployed (e.g. remote servers)
	ErrServerNotDeployable = errors.New("server cannot be deployed")
	// ErrKubernetesUnavailable is returned when no cluster connection is configured
	ErrKubernetesUnavailable = errors.New("kubernetes support is not configured")
)

// ConsoleService defines the operations exposed to the console API
type ConsoleService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListRegistries returns summaries for all configured registries
	ListRegistries(ctx context.Context) ([]*RegistrySummary, error)

	// GetRegistry returns the summary for a single registry
	GetRegistry(ctx context.Context, name string) (*RegistrySummary, error)

	// ListServers returns a page of servers available in a registry
	ListServers(ctx context.Context, registryName string, opts ...ListOption) (*ServerPage, error)

	// GetServer returns a single server entry from a registry
	GetServer(ctx context.Context, registryName, serverName string) (registry.ServerMetadata, error)

	// ListDeployedServers lists running instances created from a registry.
	// An empty registryName lists instances from all registries.
	ListDeployedServers(ctx context.Context, registryName string) ([]*kubernetes.DeployedServer, error)

	// GetDeployedServer returns a single running instance
	GetDeployedServer(ctx context.Context, namespace, name string) (*kubernetes.DeployedServer, error)

	// DeployServer creates a new instance of a registry server
	DeployServer(ctx context.Context, registryName, serverName string, req *DeployRequest) (*DeployResult, error)

	// DeleteServer removes a deployed server and its associated resources
	DeleteServer(ctx context.Context, namespace, name string) error

	// ForceSync triggers an immediate sync attempt for a registry
	ForceSync(ctx context.Context, registryName string) (*status.SyncStatus, error)

	// GetRegistryManifest returns the raw registry document as stored
	GetRegistryManifest(ctx context.Context, registryName string) ([]byte, error)

	// GetServerManifest returns the JSON manifest of a registry server entry
	GetServerManifest(ctx context.Context, registryName, serverName string) ([]byte, error)

	// GetDeployedServerManifest returns the JSON manifest of a running instance
	GetDeployedServerManifest(ctx context.Context, namespace, name string) ([]byte, error)

	// GetConfigMapManifest returns the JSON manifest of a registry's backing ConfigMap
	GetConfigMapManifest(ctx context.Context, registryName string) ([]byte, error)
}

type consoleService struct {
	cfg         *config.Config
	storage     sources.StorageManager
	coordinator coordinator.Coordinator
	provider    kubernetes.DeploymentProvider
	k8sClient   client.Client
	tracer      trace.Tracer
}

var _ ConsoleService = (*consoleService)(nil)

// Option configures the console service
type Option func(*consoleService)

// WithDeploymentProvider sets the deployment backend. When unset, deployment
// operations fail with ErrKubernetesUnavailable but the rest of the console
// keeps working.
func WithDeploymentProvider(p kubernetes.DeploymentProvider) Option {
	return func(s *consoleService) {
		s.provider = p
	}
}

// WithKubernetesClient sets the cluster client used for ConfigMap manifests
func WithKubernetesClient(c client.Client) Option {
	return func(s *consoleService) {
		s.k8sClient = c
	}
}

// WithTracer enables tracing of service operations. When unset, spans degrade
// to no-ops.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *consoleService) {
		s.tracer = tracer
	}
}

// New creates a new console service
func New(
	cfg *config.Config,
	storage sources.StorageManager,
	coord coordinator.Coordinator,
	opts ...Option,
) ConsoleService {
	s := &consoleService{
		cfg:         cfg,
		storage:     storage,
		coordinator: coord,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *consoleService) startSpan(
	ctx context.Context, name string, opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}

// CheckReadiness reports ready once at least one registry has synced, or
// immediately when no registries are configured.
func (s *consoleService) CheckReadiness(ctx context.Context) error {
	if len(s.cfg.Registries) == 0 {
		return nil
	}

	for i := range s.cfg.Registries {
		if _, err := s.storage.GetRaw(ctx, s.cfg.Registries[i].Name); err == nil {
			return nil
		}
	}
	return ErrRegistryNotSynced
}
