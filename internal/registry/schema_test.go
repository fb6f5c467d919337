package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistryJSON = `{
  "version": "1.0.0",
  "last_updated": "2025-06-01T00:00:00Z",
  "servers": {
    "fetch": {
      "description": "Fetches web content",
      "tier": "Official",
      "status": "Active",
      "transport": "stdio",
      "tools": ["fetch_url"],
      "image": "ghcr.io/example/fetch:latest",
      "env_vars": [
        {"name": "API_KEY", "description": "API key", "required": true, "secret": true},
        {"name": "TIMEOUT", "description": "Request timeout", "required": false, "default": "30"}
      ],
      "tags": ["web"],
      "docker_tags": ["1.0.0", "1.2.0", "latest"]
    }
  },
  "remote_servers": {
    "hosted": {
      "description": "Hosted server",
      "tier": "Community",
      "status": "Active",
      "transport": "sse",
      "tools": ["query"],
      "url": "https://mcp.example.com/sse"
    }
  }
}`

func TestParseRegistry(t *testing.T) {
	t.Parallel()

	reg, err := ParseRegistry([]byte(validRegistryJSON))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	assert.Equal(t, 2, reg.ServerCount())

	// Names are filled from map keys.
	fetch, ok := reg.GetServerByName("fetch")
	require.True(t, ok)
	assert.Equal(t, "fetch", fetch.GetName())
	assert.False(t, fetch.IsRemote())

	hosted, ok := reg.GetServerByName("hosted")
	require.True(t, ok)
	assert.True(t, hosted.IsRemote())

	_, ok = reg.GetServerByName("missing")
	assert.False(t, ok)
}

func TestParseRegistryRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{not json`},
		{name: "missing version", doc: `{"last_updated":"x","servers":{}}`},
		{
			name: "server missing image",
			doc: `{"version":"1","last_updated":"x","servers":{"a":{
				"description":"d","tier":"Official","status":"Active","transport":"stdio","tools":[]}}}`,
		},
		{
			name: "bad transport",
			doc: `{"version":"1","last_updated":"x","servers":{"a":{
				"description":"d","tier":"Official","status":"Active","transport":"carrier-pigeon",
				"tools":[],"image":"img"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseRegistry([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestGetAllServersSorted(t *testing.T) {
	t.Parallel()

	reg, err := ParseRegistry([]byte(validRegistryJSON))
	require.NoError(t, err)

	servers := reg.GetAllServers()
	require.Len(t, servers, 2)
	assert.Equal(t, "fetch", servers[0].GetName())
	assert.Equal(t, "hosted", servers[1].GetName())
}
