// Package config provides configuration loading and management for the
// console server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-console/internal/telemetry"
)

const (
	// SourceTypeGit is the type for registry data stored in Git repositories
	SourceTypeGit = "git"

	// SourceTypeConfigMap is the type for registry data stored in Kubernetes ConfigMaps
	SourceTypeConfigMap = "configmap"

	// SourceTypeAPI is the type for registry data fetched from remote registry APIs
	SourceTypeAPI = "api"

	// SourceTypeFile is the type for registry data stored in local files
	SourceTypeFile = "file"
)

const (
	// DefaultDataDir is the directory where synced registry data is stored
	DefaultDataDir = "./data"

	// DefaultAddress is the default listen address of the console server
	DefaultAddress = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Address is the listen address of the console HTTP server
	Address string `yaml:"address,omitempty"`

	// DataDir is the directory where synced registry data and sync status
	// are stored. Defaults to ./data.
	DataDir string `yaml:"dataDir,omitempty"`

	// Registries lists the registry data sources served by this console
	Registries []RegistryConfig `yaml:"registries"`

	// Telemetry holds observability settings
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// RegistryConfig defines a single registry data source configuration
type RegistryConfig struct {
	// Name is the identifier for this registry
	Name string `yaml:"name"`

	// DisplayName is an optional human-friendly name shown in the console
	DisplayName string `yaml:"displayName,omitempty"`

	// Namespace scopes deployments created from this registry. Defaults to
	// the namespace the console runs in.
	Namespace string `yaml:"namespace,omitempty"`

	// Type-specific configurations (exactly one must be set)
	Git       *GitConfig       `yaml:"git,omitempty"`
	ConfigMap *ConfigMapConfig `yaml:"configMap,omitempty"`
	API       *APIConfig       `yaml:"api,omitempty"`
	File      *FileConfig      `yaml:"file,omitempty"`

	// SyncPolicy controls how often this registry is re-fetched
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy"`
}

// GitConfig defines Git source settings
type GitConfig struct {
	// Repository is the Git repository URL (HTTP/HTTPS/SSH)
	Repository string `yaml:"repository"`

	// Branch is the Git branch to use (mutually exclusive with Tag and Commit)
	Branch string `yaml:"branch,omitempty"`

	// Tag is the Git tag to use (mutually exclusive with Branch and Commit)
	Tag string `yaml:"tag,omitempty"`

	// Commit is the Git commit SHA to use (mutually exclusive with Branch and Tag)
	Commit string `yaml:"commit,omitempty"`

	// Path is the path to the registry file within the repository
	Path string `yaml:"path,omitempty"`
}

// ConfigMapConfig defines Kubernetes ConfigMap source settings
type ConfigMapConfig struct {
	// Name is the ConfigMap name
	Name string `yaml:"name"`

	// Namespace is the ConfigMap namespace
	Namespace string `yaml:"namespace"`

	// Key is the data key holding the registry document.
	// Defaults to registry.json.
	Key string `yaml:"key,omitempty"`
}

// APIConfig defines API source configuration for remote registry APIs
type APIConfig struct {
	// Endpoint is the base URL of a remote registry API serving registry
	// data, e.g. "http://registry-api.default.svc.cluster.local/api".
	Endpoint string `yaml:"endpoint"`
}

// FileConfig defines local file source configuration
type FileConfig struct {
	// Path is the path to the registry.json file on the local filesystem.
	// Can be absolute or relative to the working directory.
	Path string `yaml:"path"`
}

// SyncPolicyConfig defines automatic synchronization settings
type SyncPolicyConfig struct {
	// Interval is the sync interval as a Go duration string (e.g. "30m")
	Interval string `yaml:"interval"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the listen address, using the default if not specified
func (c *Config) GetAddress() string {
	if c.Address == "" {
		return DefaultAddress
	}
	return c.Address
}

// GetDataDir returns the data directory, using the default if not specified
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir
	}
	return c.DataDir
}

// GetRegistry returns the registry configuration with the given name
func (c *Config) GetRegistry(name string) (*RegistryConfig, bool) {
	for i := range c.Registries {
		if c.Registries[i].Name == name {
			return &c.Registries[i], true
		}
	}
	return nil, false
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if len(c.Registries) == 0 {
		return fmt.Errorf("at least one registry must be configured")
	}

	registryNames := make(map[string]bool)
	for i, reg := range c.Registries {
		if reg.Name == "" {
			return fmt.Errorf("registry[%d]: name is required", i)
		}

		if registryNames[reg.Name] {
			return fmt.Errorf("registry[%d]: duplicate registry name '%s'", i, reg.Name)
		}
		registryNames[reg.Name] = true

		if err := validateRegistryConfig(&reg, i); err != nil {
			return err
		}
	}

	return nil
}

// validateRegistryConfig validates a single registry configuration
func validateRegistryConfig(reg *RegistryConfig, index int) error {
	prefix := fmt.Sprintf("registry[%d] (%s)", index, reg.Name)

	if err := validateSyncPolicy(reg.SyncPolicy, prefix); err != nil {
		return err
	}

	if err := validateSourceTypeCount(reg, prefix); err != nil {
		return err
	}

	return validateSourceSpecificConfig(reg, prefix)
}

// validateSyncPolicy validates the sync policy configuration
func validateSyncPolicy(policy *SyncPolicyConfig, prefix string) error {
	if policy == nil || policy.Interval == "" {
		return fmt.Errorf("%s: syncPolicy.interval is required", prefix)
	}

	if _, err := time.ParseDuration(policy.Interval); err != nil {
		return fmt.Errorf("%s: syncPolicy.interval must be a valid duration (e.g., '30m', '1h'): %w", prefix, err)
	}

	return nil
}

// validateSourceTypeCount ensures exactly one source type is configured
func validateSourceTypeCount(reg *RegistryConfig, prefix string) error {
	configCount := 0
	if reg.Git != nil {
		configCount++
	}
	if reg.ConfigMap != nil {
		configCount++
	}
	if reg.API != nil {
		configCount++
	}
	if reg.File != nil {
		configCount++
	}

	if configCount == 0 {
		return fmt.Errorf("%s: one of git, configMap, api, or file configuration must be specified", prefix)
	}
	if configCount > 1 {
		return fmt.Errorf("%s: only one of git, configMap, api, or file configuration may be specified", prefix)
	}

	return nil
}

// validateSourceSpecificConfig validates the configuration for each source type
func validateSourceSpecificConfig(reg *RegistryConfig, prefix string) error {
	switch {
	case reg.Git != nil:
		return validateGitConfig(reg.Git, prefix)
	case reg.ConfigMap != nil:
		return validateConfigMapConfig(reg.ConfigMap, prefix)
	case reg.API != nil:
		return validateAPIConfig(reg.API, prefix)
	case reg.File != nil:
		return validateFileConfig(reg.File, prefix)
	}
	return nil
}

// validateGitConfig validates Git-specific configuration
func validateGitConfig(git *GitConfig, prefix string) error {
	if git.Repository == "" {
		return fmt.Errorf("%s: git.repository is required", prefix)
	}

	specified := 0
	if git.Branch != "" {
		specified++
	}
	if git.Tag != "" {
		specified++
	}
	if git.Commit != "" {
		specified++
	}
	if specified > 1 {
		return fmt.Errorf("%s: only one of git.branch, git.tag, or git.commit may be specified", prefix)
	}

	return nil
}

// validateConfigMapConfig validates ConfigMap-specific configuration
func validateConfigMapConfig(cm *ConfigMapConfig, prefix string) error {
	if cm.Name == "" {
		return fmt.Errorf("%s: configMap.name is required", prefix)
	}
	if cm.Namespace == "" {
		return fmt.Errorf("%s: configMap.namespace is required", prefix)
	}
	return nil
}

// validateAPIConfig validates API-specific configuration
func validateAPIConfig(api *APIConfig, prefix string) error {
	if api.Endpoint == "" {
		return fmt.Errorf("%s: api.endpoint is required", prefix)
	}
	return nil
}

// validateFileConfig validates File-specific configuration
func validateFileConfig(file *FileConfig, prefix string) error {
	if file.Path == "" {
		return fmt.Errorf("%s: file.path is required", prefix)
	}
	return nil
}

// GetType returns the inferred source type of the registry config
func (r *RegistryConfig) GetType() string {
	switch {
	case r.Git != nil:
		return SourceTypeGit
	case r.ConfigMap != nil:
		return SourceTypeConfigMap
	case r.API != nil:
		return SourceTypeAPI
	case r.File != nil:
		return SourceTypeFile
	}
	return ""
}

// SourceURL returns a descriptive identifier of the registry's data origin,
// e.g. "git:https://...", "configmap:ns/name", "file:/path".
func (r *RegistryConfig) SourceURL() string {
	switch {
	case r.Git != nil:
		return fmt.Sprintf("git:%s", r.Git.Repository)
	case r.ConfigMap != nil:
		return fmt.Sprintf("configmap:%s/%s", r.ConfigMap.Namespace, r.ConfigMap.Name)
	case r.API != nil:
		return fmt.Sprintf("api:%s", r.API.Endpoint)
	case r.File != nil:
		return fmt.Sprintf("file:%s", r.File.Path)
	}
	return ""
}

// GetDisplayName returns the display name, falling back to the registry name
func (r *RegistryConfig) GetDisplayName() string {
	if r.DisplayName == "" {
		return r.Name
	}
	return r.DisplayName
}

// SyncInterval returns the parsed sync interval, or the given fallback when
// the policy is missing or unparseable.
func (r *RegistryConfig) SyncInterval(fallback time.Duration) time.Duration {
	if r.SyncPolicy == nil || r.SyncPolicy.Interval == "" {
		return fallback
	}
	interval, err := time.ParseDuration(r.SyncPolicy.Interval)
	if err != nil {
		return fallback
	}
	return interval
}
