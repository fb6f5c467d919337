package service

import (
	"time"

	"github.com/stacklok/toolhive-console/internal/registry"
	"github.com/stacklok/toolhive-console/internal/status"
)

// RegistrySummary is the console's view of a configured registry combined
// with its latest sync status.
type RegistrySummary struct {
	// Name is the registry identifier
	Name string `json:"name"`

	// DisplayName is the human-friendly name shown in the console
	DisplayName string `json:"displayName"`

	// Namespace is where deployments from this registry land
	Namespace string `json:"namespace,omitempty"`

	// Source is the source type (git, configmap, api, file)
	Source string `json:"source"`

	// URL describes where the registry data comes from
	URL string `json:"url"`

	// Status is the current sync phase (Syncing, Complete, Failed)
	Status status.SyncPhase `json:"status"`

	// Message carries detail about the last sync attempt
	Message string `json:"message,omitempty"`

	// ServerCount is the number of servers in the last synced data
	ServerCount int `json:"serverCount"`

	// LastSyncTime is when the registry data last changed
	LastSyncTime *time.Time `json:"lastSyncTime,omitempty"`

	// LastAttempt is when a sync was last attempted
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`
}

// ServerPage is one page of registry server entries
type ServerPage struct {
	// Servers holds the entries in this page, sorted by name
	Servers []registry.ServerMetadata `json:"servers"`

	// NextCursor is the opaque cursor for the next page, empty on the last page
	NextCursor string `json:"nextCursor,omitempty"`

	// Total is the total number of servers in the registry
	Total int `json:"total"`
}

// DeployRequest describes a requested server deployment
type DeployRequest struct {
	// Name is the deployment name, a DNS-1123 label
	Name string `json:"name"`

	// Namespace overrides the registry's target namespace when set
	Namespace string `json:"namespace,omitempty"`

	// Version selects a docker tag for the server image. Empty means the
	// image tag from the registry entry (or the newest known tag).
	Version string `json:"version,omitempty"`

	// TargetPort overrides the entry's port for HTTP transports
	TargetPort int `json:"targetPort,omitempty"`

	// EnvVars are the environment variable values provided by the user
	EnvVars map[string]string `json:"envVars,omitempty"`
}

// DeployResult describes a successful deployment
type DeployResult struct {
	// ID uniquely identifies this deploy operation
	ID string `json:"id"`

	// Name is the deployment name
	Name string `json:"name"`

	// Namespace is where the deployment was created
	Namespace string `json:"namespace"`

	// Image is the resolved container image, including tag
	Image string `json:"image"`

	// Manifest is the JSON manifest of the created Deployment
	Manifest []byte `json:"manifest"`
}
