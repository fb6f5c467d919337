package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
address: ":9090"
dataDir: /var/lib/console
registries:
  - name: default
    displayName: Default Registry
    git:
      repository: https://github.com/example/registry.git
      branch: main
      path: registry.json
    syncPolicy:
      interval: 30m
  - name: local
    file:
      path: ./registry.json
    syncPolicy:
      interval: 1h
`)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.GetAddress())
	assert.Equal(t, "/var/lib/console", cfg.GetDataDir())
	require.Len(t, cfg.Registries, 2)

	reg, ok := cfg.GetRegistry("default")
	require.True(t, ok)
	assert.Equal(t, SourceTypeGit, reg.GetType())
	assert.Equal(t, "Default Registry", reg.GetDisplayName())
	assert.Equal(t, "git:https://github.com/example/registry.git", reg.SourceURL())
	assert.Equal(t, 30*time.Minute, reg.SyncInterval(time.Hour))

	local, ok := cfg.GetRegistry("local")
	require.True(t, ok)
	assert.Equal(t, SourceTypeFile, local.GetType())
	assert.Equal(t, "local", local.GetDisplayName())

	_, ok = cfg.GetRegistry("missing")
	assert.False(t, ok)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfigFile(t, `
registries:
  - name: default
    configMap:
      name: registry-data
      namespace: toolhive-system
    syncPolicy:
      interval: 15m
`)

	cfg, err := LoadConfig(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, DefaultAddress, cfg.GetAddress())
	assert.Equal(t, DefaultDataDir, cfg.GetDataDir())
	assert.Equal(t, "configmap:toolhive-system/registry-data", cfg.Registries[0].SourceURL())
}

func TestLoadConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no registries",
			content: `registries: []`,
			wantErr: "at least one registry",
		},
		{
			name: "missing name",
			content: `
registries:
  - git:
      repository: https://example.com/r.git
    syncPolicy:
      interval: 30m
`,
			wantErr: "name is required",
		},
		{
			name: "duplicate names",
			content: `
registries:
  - name: a
    file: {path: ./a.json}
    syncPolicy: {interval: 30m}
  - name: a
    file: {path: ./b.json}
    syncPolicy: {interval: 30m}
`,
			wantErr: "duplicate registry name",
		},
		{
			name: "no source",
			content: `
registries:
  - name: a
    syncPolicy: {interval: 30m}
`,
			wantErr: "one of git, configMap, api, or file",
		},
		{
			name: "multiple sources",
			content: `
registries:
  - name: a
    file: {path: ./a.json}
    git: {repository: https://example.com/r.git}
    syncPolicy: {interval: 30m}
`,
			wantErr: "only one of git, configMap, api, or file",
		},
		{
			name: "missing sync interval",
			content: `
registries:
  - name: a
    file: {path: ./a.json}
`,
			wantErr: "syncPolicy.interval is required",
		},
		{
			name: "bad sync interval",
			content: `
registries:
  - name: a
    file: {path: ./a.json}
    syncPolicy: {interval: soon}
`,
			wantErr: "valid duration",
		},
		{
			name: "git missing repository",
			content: `
registries:
  - name: a
    git: {branch: main}
    syncPolicy: {interval: 30m}
`,
			wantErr: "git.repository is required",
		},
		{
			name: "git branch and tag",
			content: `
registries:
  - name: a
    git:
      repository: https://example.com/r.git
      branch: main
      tag: v1.0.0
    syncPolicy: {interval: 30m}
`,
			wantErr: "only one of git.branch, git.tag, or git.commit",
		},
		{
			name: "configmap missing namespace",
			content: `
registries:
  - name: a
    configMap: {name: registry-data}
    syncPolicy: {interval: 30m}
`,
			wantErr: "configMap.namespace is required",
		},
		{
			name: "api missing endpoint",
			content: `
registries:
  - name: a
    api: {}
    syncPolicy: {interval: 30m}
`,
			wantErr: "api.endpoint is required",
		},
		{
			name: "file missing path",
			content: `
registries:
  - name: a
    file: {}
    syncPolicy: {interval: 30m}
`,
			wantErr: "file.path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfigFile(t, tt.content)
			_, err := LoadConfig(WithConfigPath(path))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestLoadConfigRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}
