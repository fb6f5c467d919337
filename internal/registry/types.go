// Package registry defines the ToolHive registry data format: catalogs of
// container-based and remote MCP servers with their deployment metadata.
package registry

import (
	"sort"
)

// Registry is a catalog of available servers keyed by name.
type Registry struct {
	// Version is the schema version of the registry document
	Version string `json:"version"`

	// LastUpdated is the timestamp when the registry was last updated, in RFC3339 format
	LastUpdated string `json:"last_updated"`

	// Servers contains the container-based server entries
	Servers map[string]*ImageMetadata `json:"servers"`

	// RemoteServers contains the remote server entries
	RemoteServers map[string]*RemoteServerMetadata `json:"remote_servers,omitempty"`
}

// BaseServerMetadata contains the fields shared by container and remote servers.
type BaseServerMetadata struct {
	// Name is the identifier for the server, used when referencing the server in commands
	Name string `json:"name,omitempty"`

	// Description is a human-readable description of the server's purpose and functionality
	Description string `json:"description"`

	// Tier represents the tier classification level of the server (e.g., Official, Community)
	Tier string `json:"tier"`

	// Status indicates whether the server is currently active or deprecated
	Status string `json:"status"`

	// Transport defines the communication protocol for the server (stdio, sse, or streamable-http)
	Transport string `json:"transport"`

	// Tools is a list of tool names provided by this server
	Tools []string `json:"tools"`

	// EnvVars defines the environment variables that can or must be passed to the server
	EnvVars []*EnvVar `json:"env_vars,omitempty"`

	// Tags are categorization labels for the server to aid in discovery
	Tags []string `json:"tags,omitempty"`

	// Metadata contains additional information about the server such as popularity metrics
	Metadata *Metadata `json:"metadata,omitempty"`

	// RepositoryURL is the URL to the source code repository for the server
	RepositoryURL string `json:"repository_url,omitempty"`

	// CustomMetadata allows for additional user-defined metadata
	CustomMetadata map[string]any `json:"custom_metadata,omitempty"`
}

// ImageMetadata describes a container-based server entry.
type ImageMetadata struct {
	BaseServerMetadata

	// Image is the container image reference for the server
	Image string `json:"image"`

	// TargetPort is the port for the container to expose (only applicable to SSE and streamable-http transports)
	TargetPort int `json:"target_port,omitempty"`

	// Args are the default command-line arguments passed to the server container
	Args []string `json:"args,omitempty"`

	// Permissions defines the permission profile applied when running the server
	Permissions *Permissions `json:"permissions,omitempty"`

	// DockerTags lists the available tags for the container image
	DockerTags []string `json:"docker_tags,omitempty"`
}

// RemoteServerMetadata describes a server reachable at a remote URL rather
// than run from an image.
type RemoteServerMetadata struct {
	BaseServerMetadata

	// URL is the endpoint of the remote server
	URL string `json:"url"`

	// Headers are additional HTTP headers required by the remote server
	Headers map[string]string `json:"headers,omitempty"`

	// OAuthConfig holds OAuth client settings for servers requiring it
	OAuthConfig map[string]any `json:"oauth_config,omitempty"`
}

// EnvVar defines an environment variable accepted by a server.
type EnvVar struct {
	// Name is the environment variable name (e.g., API_KEY)
	Name string `json:"name"`

	// Description explains the purpose of the variable
	Description string `json:"description"`

	// Required indicates whether the variable must be provided on deploy
	Required bool `json:"required"`

	// Default is the value used when the variable is not provided.
	// Only used for non-secret variables.
	Default string `json:"default,omitempty"`

	// Secret indicates the value is sensitive and must be stored as a secret
	Secret bool `json:"secret,omitempty"`
}

// Metadata holds popularity and freshness information about a server.
type Metadata struct {
	// Stars is the number of repository stars
	Stars int `json:"stars"`

	// Pulls is the number of image pulls
	Pulls int `json:"pulls"`

	// LastUpdated is the timestamp when the server was last updated, in RFC3339 format
	LastUpdated string `json:"last_updated"`
}

// Permissions is the permission profile applied to a deployed server.
type Permissions struct {
	// Read lists paths mounted read-only into the server container
	Read []string `json:"read,omitempty"`

	// Write lists paths mounted read-write into the server container
	Write []string `json:"write,omitempty"`

	// Network holds the outbound network policy
	Network *NetworkPermissions `json:"network,omitempty"`
}

// NetworkPermissions describes the outbound network policy of a profile.
type NetworkPermissions struct {
	Outbound *OutboundNetworkPermissions `json:"outbound,omitempty"`
}

// OutboundNetworkPermissions restricts outbound traffic of a server.
type OutboundNetworkPermissions struct {
	// InsecureAllowAll disables outbound filtering entirely
	InsecureAllowAll bool `json:"insecure_allow_all,omitempty"`

	// AllowHost lists hosts the server may reach
	AllowHost []string `json:"allow_host,omitempty"`

	// AllowPort lists ports the server may reach
	AllowPort []int `json:"allow_port,omitempty"`
}

// GetServerByName returns the server entry with the given name, checking
// container servers first and remote servers second.
func (r *Registry) GetServerByName(name string) (ServerMetadata, bool) {
	if srv, ok := r.Servers[name]; ok {
		return srv, true
	}
	if srv, ok := r.RemoteServers[name]; ok {
		return srv, true
	}
	return nil, false
}

// GetAllServers returns every server entry sorted by name, container and
// remote entries combined.
func (r *Registry) GetAllServers() []ServerMetadata {
	servers := make([]ServerMetadata, 0, len(r.Servers)+len(r.RemoteServers))
	for name, srv := range r.Servers {
		if srv.Name == "" {
			srv.Name = name
		}
		servers = append(servers, srv)
	}
	for name, srv := range r.RemoteServers {
		if srv.Name == "" {
			srv.Name = name
		}
		servers = append(servers, srv)
	}

	sort.Slice(servers, func(i, j int) bool {
		return servers[i].GetName() < servers[j].GetName()
	})
	return servers
}

// ServerCount returns the total number of entries in the registry.
func (r *Registry) ServerCount() int {
	return len(r.Servers) + len(r.RemoteServers)
}
