package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"

	"github.com/stacklok/toolhive-console/internal/config"
	"github.com/stacklok/toolhive-console/internal/kubernetes"
	"github.com/stacklok/toolhive-console/internal/registry"
	"github.com/stacklok/toolhive-console/internal/sources"
	"github.com/stacklok/toolhive-console/internal/status"
)

const testRegistryData = `{
  "version": "1.0.0",
  "last_updated": "2025-01-02T03:04:05Z",
  "servers": {
    "fetch": {
      "description": "Fetches web content",
      "tier": "Official",
      "status": "Active",
      "transport": "streamable-http",
      "tools": ["fetch"],
      "image": "ghcr.io/example/fetch",
      "target_port": 9000,
      "docker_tags": ["1.0.0", "1.2.0", "latest"],
      "env_vars": [
        {"name": "API_KEY", "description": "auth token", "required": true, "secret": true},
        {"name": "TIMEOUT", "description": "request timeout", "required": false, "default": "30"}
      ]
    },
    "archive": {
      "description": "Archives documents",
      "tier": "Community",
      "status": "Active",
      "transport": "stdio",
      "tools": ["archive"],
      "image": "ghcr.io/example/archive:2.0.0"
    }
  },
  "remote_servers": {
    "hosted": {
      "description": "A hosted server",
      "tier": "Community",
      "status": "Active",
      "transport": "sse",
      "tools": ["hosted"],
      "url": "https://mcp.example.com"
    }
  }
}`

type memStorage struct {
	data map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{data: map[string][]byte{}}
}

func (m *memStorage) Store(_ context.Context, name string, data []byte) error {
	m.data[name] = data
	return nil
}

func (m *memStorage) GetRaw(_ context.Context, name string) ([]byte, error) {
	data, ok := m.data[name]
	if !ok {
		return nil, sources.ErrNoStoredData
	}
	return data, nil
}

func (m *memStorage) Get(ctx context.Context, name string) (*registry.Registry, error) {
	data, err := m.GetRaw(ctx, name)
	if err != nil {
		return nil, err
	}
	return registry.ParseRegistry(data)
}

func (m *memStorage) Delete(_ context.Context, name string) error {
	delete(m.data, name)
	return nil
}

type fakeCoordinator struct {
	statuses  map[string]*status.SyncStatus
	triggered []string
}

func (*fakeCoordinator) Start(context.Context) error { return nil }
func (*fakeCoordinator) Stop() error                 { return nil }

func (f *fakeCoordinator) TriggerSync(_ context.Context, name string) (*status.SyncStatus, error) {
	f.triggered = append(f.triggered, name)
	if st, ok := f.statuses[name]; ok {
		return st, nil
	}
	return &status.SyncStatus{Phase: status.SyncPhaseComplete}, nil
}

func (f *fakeCoordinator) GetStatus(name string) (*status.SyncStatus, bool) {
	st, ok := f.statuses[name]
	return st, ok
}

func testConfig() *config.Config {
	return &config.Config{
		Registries: []config.RegistryConfig{
			{
				Name:      "default",
				Namespace: "mcp-servers",
				Git:       &config.GitConfig{Repository: "https://github.com/example/registry.git"},
			},
		},
	}
}

func newTestService(t *testing.T, opts ...Option) (ConsoleService, *memStorage, *fakeCoordinator) {
	t.Helper()

	storage := newMemStorage()
	require.NoError(t, storage.Store(context.Background(), "default", []byte(testRegistryData)))

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	coord := &fakeCoordinator{statuses: map[string]*status.SyncStatus{
		"default": {
			Phase:        status.SyncPhaseComplete,
			ServerCount:  3,
			LastSyncTime: &now,
		},
	}}

	return New(testConfig(), storage, coord, opts...), storage, coord
}

func newK8sProvider(t *testing.T) kubernetes.DeploymentProvider {
	t.Helper()

	scheme, err := kubernetes.NewScheme()
	require.NoError(t, err)
	c := fake.NewClientBuilder().WithScheme(scheme).Build()
	return kubernetes.NewK8sDeploymentProvider(c)
}

func TestListRegistries(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	summaries, err := svc.ListRegistries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	summary := summaries[0]
	assert.Equal(t, "default", summary.Name)
	assert.Equal(t, "git", summary.Source)
	assert.Equal(t, "git:https://github.com/example/registry.git", summary.URL)
	assert.Equal(t, status.SyncPhaseComplete, summary.Status)
	assert.Equal(t, 3, summary.ServerCount)
	require.NotNil(t, summary.LastSyncTime)
}

func TestGetRegistryNotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.GetRegistry(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRegistryNotFound)
}

func TestListServers(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	page, err := svc.ListServers(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Servers, 3)
	assert.Equal(t, "archive", page.Servers[0].GetName())
	assert.Empty(t, page.NextCursor)
}

func TestListServersPagination(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	page, err := svc.ListServers(context.Background(), "default", WithLimit(2))
	require.NoError(t, err)
	require.Len(t, page.Servers, 2)
	require.NotEmpty(t, page.NextCursor)
	assert.Equal(t, "archive", page.Servers[0].GetName())
	assert.Equal(t, "fetch", page.Servers[1].GetName())

	page, err = svc.ListServers(context.Background(), "default", WithLimit(2), WithCursor(page.NextCursor))
	require.NoError(t, err)
	require.Len(t, page.Servers, 1)
	assert.Equal(t, "hosted", page.Servers[0].GetName())
	assert.Empty(t, page.NextCursor)
}

func TestListServersNotSynced(t *testing.T) {
	t.Parallel()

	svc, storage, _ := newTestService(t)
	require.NoError(t, storage.Delete(context.Background(), "default"))

	_, err := svc.ListServers(context.Background(), "default")
	assert.ErrorIs(t, err, ErrRegistryNotSynced)
}

func TestGetServer(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	srv, err := svc.GetServer(context.Background(), "default", "fetch")
	require.NoError(t, err)
	assert.Equal(t, "fetch", srv.GetName())
	assert.False(t, srv.IsRemote())

	remote, err := svc.GetServer(context.Background(), "default", "hosted")
	require.NoError(t, err)
	assert.True(t, remote.IsRemote())

	_, err = svc.GetServer(context.Background(), "default", "nope")
	assert.ErrorIs(t, err, ErrServerNotFound)
}

func TestForceSync(t *testing.T) {
	t.Parallel()

	svc, _, coord := newTestService(t)

	st, err := svc.ForceSync(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, status.SyncPhaseComplete, st.Phase)
	assert.Equal(t, []string{"default"}, coord.triggered)

	_, err = svc.ForceSync(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRegistryNotFound)
}

func TestGetRegistryManifestReturnsStoredBytes(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	data, err := svc.GetRegistryManifest(context.Background(), "default")
	require.NoError(t, err)
	assert.Equal(t, []byte(testRegistryData), data)
}

func TestDeployServer(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithDeploymentProvider(newK8sProvider(t)))

	result, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{
		Name: "team2-fetch",
		EnvVars: map[string]string{
			"API_KEY": "s3cret",
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "team2-fetch", result.Name)
	assert.Equal(t, "mcp-servers", result.Namespace)
	assert.Equal(t, "ghcr.io/example/fetch:1.2.0", result.Image)

	var manifest map[string]any
	require.NoError(t, json.Unmarshal(result.Manifest, &manifest))

	deployed, err := svc.GetDeployedServer(context.Background(), "mcp-servers", "team2-fetch")
	require.NoError(t, err)
	assert.Equal(t, "default", deployed.RegistryName)
	assert.Equal(t, "fetch", deployed.ServerName)
}

func TestDeployServerMissingRequiredEnvVar(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithDeploymentProvider(newK8sProvider(t)))

	_, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{
		Name: "team2-fetch",
		EnvVars: map[string]string{
			"API_KEY": "   ",
		},
	})
	require.ErrorIs(t, err, ErrMissingRequiredEnvVar)
	assert.Contains(t, err.Error(), "API_KEY")
}

func TestDeployServerDefaultsApplied(t *testing.T) {
	t.Parallel()

	provider := newK8sProvider(t)
	svc, _, _ := newTestService(t, WithDeploymentProvider(provider))

	_, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{
		Name:    "team2-fetch",
		EnvVars: map[string]string{"API_KEY": "k"},
	})
	require.NoError(t, err)

	deployment, err := provider.GetDeployment(context.Background(), "mcp-servers", "team2-fetch")
	require.NoError(t, err)
	require.NotNil(t, deployment)

	env := deployment.Spec.Template.Spec.Containers[0].Env
	names := map[string]string{}
	for _, ev := range env {
		names[ev.Name] = ev.Value
	}
	assert.Equal(t, "30", names["TIMEOUT"])
	assert.Contains(t, names, "API_KEY")
}

func TestDeployServerRejectsRemote(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithDeploymentProvider(newK8sProvider(t)))

	_, err := svc.DeployServer(context.Background(), "default", "hosted", &DeployRequest{Name: "hosted"})
	assert.ErrorIs(t, err, ErrServerNotDeployable)
}

func TestDeployServerVersionPinsTag(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t, WithDeploymentProvider(newK8sProvider(t)))

	result, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{
		Name:    "pinned-fetch",
		Version: "1.0.0",
		EnvVars: map[string]string{"API_KEY": "k"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ghcr.io/example/fetch:1.0.0", result.Image)
}

func TestDeployServerWithoutKubernetes(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrKubernetesUnavailable)

	_, err = svc.ListDeployedServers(context.Background(), "")
	assert.ErrorIs(t, err, ErrKubernetesUnavailable)
}

func TestDeleteServer(t *testing.T) {
	t.Parallel()

	provider := newK8sProvider(t)
	svc, _, _ := newTestService(t, WithDeploymentProvider(provider))

	_, err := svc.DeployServer(context.Background(), "default", "fetch", &DeployRequest{
		Name:    "doomed-fetch",
		EnvVars: map[string]string{"API_KEY": "k"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteServer(context.Background(), "mcp-servers", "doomed-fetch"))

	err = svc.DeleteServer(context.Background(), "mcp-servers", "doomed-fetch")
	assert.ErrorIs(t, err, ErrDeploymentNotFound)
}

func TestResolveImage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entry   *registry.ImageMetadata
		version string
		want    string
	}{
		{
			name:  "untagged image uses newest docker tag",
			entry: &registry.ImageMetadata{Image: "ghcr.io/x/y", DockerTags: []string{"0.9.0", "1.1.0"}},
			want:  "ghcr.io/x/y:1.1.0",
		},
		{
			name:  "tagged image kept as-is",
			entry: &registry.ImageMetadata{Image: "ghcr.io/x/y:2.0.0", DockerTags: []string{"1.0.0"}},
			want:  "ghcr.io/x/y:2.0.0",
		},
		{
			name:    "version overrides existing tag",
			entry:   &registry.ImageMetadata{Image: "ghcr.io/x/y:2.0.0"},
			version: "1.5.0",
			want:    "ghcr.io/x/y:1.5.0",
		},
		{
			name:  "untagged image without docker tags",
			entry: &registry.ImageMetadata{Image: "ghcr.io/x/y"},
			want:  "ghcr.io/x/y",
		},
		{
			name:  "registry with port is not mistaken for a tag",
			entry: &registry.ImageMetadata{Image: "localhost:5000/x/y", DockerTags: []string{"1.0.0"}},
			want:  "localhost:5000/x/y:1.0.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, resolveImage(tt.entry, tt.version))
		})
	}
}

func TestCheckReadiness(t *testing.T) {
	t.Parallel()

	svc, storage, _ := newTestService(t)
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	require.NoError(t, storage.Delete(context.Background(), "default"))
	assert.ErrorIs(t, svc.CheckReadiness(context.Background()), ErrRegistryNotSynced)
}
