package registry

// ServerMetadata is the read-only view shared by container and remote server
// entries. API layers consume this interface instead of the concrete types.
type ServerMetadata interface {
	GetName() string
	GetDescription() string
	GetTier() string
	GetStatus() string
	GetTransport() string
	GetTools() []string
	GetEnvVars() []*EnvVar
	GetTags() []string
	GetMetadata() *Metadata
	GetCustomMetadata() map[string]any
	GetRepositoryURL() string

	// IsRemote reports whether the entry describes a remote server rather
	// than a container image.
	IsRemote() bool
}

// GetName returns the server name.
func (b *BaseServerMetadata) GetName() string { return b.Name }

// GetDescription returns the server description.
func (b *BaseServerMetadata) GetDescription() string { return b.Description }

// GetTier returns the tier classification.
func (b *BaseServerMetadata) GetTier() string { return b.Tier }

// GetStatus returns the lifecycle status.
func (b *BaseServerMetadata) GetStatus() string { return b.Status }

// GetTransport returns the communication transport.
func (b *BaseServerMetadata) GetTransport() string { return b.Transport }

// GetTools returns the tool names provided by the server.
func (b *BaseServerMetadata) GetTools() []string { return b.Tools }

// GetEnvVars returns the declared environment variables.
func (b *BaseServerMetadata) GetEnvVars() []*EnvVar { return b.EnvVars }

// GetTags returns the categorization tags.
func (b *BaseServerMetadata) GetTags() []string { return b.Tags }

// GetMetadata returns popularity metadata, possibly nil.
func (b *BaseServerMetadata) GetMetadata() *Metadata { return b.Metadata }

// GetCustomMetadata returns user-defined metadata, possibly nil.
func (b *BaseServerMetadata) GetCustomMetadata() map[string]any { return b.CustomMetadata }

// GetRepositoryURL returns the source repository URL.
func (b *BaseServerMetadata) GetRepositoryURL() string { return b.RepositoryURL }

// IsRemote reports false for container-based servers.
func (*ImageMetadata) IsRemote() bool { return false }

// IsRemote reports true for remote servers.
func (*RemoteServerMetadata) IsRemote() bool { return true }
