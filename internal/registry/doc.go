// Package registry provides the registry data model served by the console.
//
// A registry document lists the MCP servers available for browsing and
// deployment: container-based servers keyed by name under "servers" and
// remote servers under "remote_servers". ParseRegistry validates incoming
// documents against the embedded JSON schema before any other component
// touches them, so downstream code can rely on required fields being present
// and enum values being well-formed.
//
// Both server kinds implement the ServerMetadata interface, which is what the
// service and API layers work with. GetAllServers returns entries sorted by
// name to keep list output and pagination cursors stable.
package registry
