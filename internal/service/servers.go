package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/stacklok/toolhive-console/internal/otel"
	"github.com/stacklok/toolhive-console/internal/registry"
	"github.com/stacklok/toolhive-console/internal/sources"
)

// ListOption configures a ListServers call
type ListOption func(*listOptions) error

type listOptions struct {
	cursor string
	limit  int
}

// WithCursor starts the page after the position encoded in cursor
func WithCursor(cursor string) ListOption {
	return func(o *listOptions) error {
		if cursor == "" {
			return fmt.Errorf("invalid cursor: %q", cursor)
		}
		o.cursor = cursor
		return nil
	}
}

// WithLimit sets the page size
func WithLimit(limit int) ListOption {
	return func(o *listOptions) error {
		if limit <= 0 || limit > MaxPageLimit {
			return fmt.Errorf("limit must be between 1 and %d, got %d", MaxPageLimit, limit)
		}
		o.limit = limit
		return nil
	}
}

// ListServers returns a page of servers available in a registry
func (s *consoleService) ListServers(
	ctx context.Context, registryName string, opts ...ListOption,
) (*ServerPage, error) {
	options := &listOptions{limit: DefaultPageLimit}
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	ctx, span := s.startSpan(ctx, "consoleService.ListServers")
	defer span.End()
	span.SetAttributes(
		otel.AttrRegistryName.String(registryName),
		otel.AttrPageSize.Int(options.limit),
		otel.AttrHasCursor.Bool(options.cursor != ""),
	)

	reg, err := s.loadRegistryData(ctx, registryName)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	servers := reg.GetAllServers()
	total := len(servers)

	after, err := DecodeCursor(options.cursor)
	if err != nil {
		return nil, err
	}
	if after != "" {
		// GetAllServers returns entries sorted by name.
		start := sort.Search(len(servers), func(i int) bool {
			return servers[i].GetName() > after
		})
		servers = servers[start:]
	}

	if servers == nil {
		servers = []registry.ServerMetadata{}
	}

	page := &ServerPage{Total: total}
	if len(servers) > options.limit {
		servers = servers[:options.limit]
		page.NextCursor = EncodeCursor(servers[len(servers)-1].GetName())
	}
	page.Servers = servers

	span.SetAttributes(otel.AttrResultCount.Int(len(page.Servers)))
	return page, nil
}

// GetServer returns a single server entry from a registry
func (s *consoleService) GetServer(
	ctx context.Context, registryName, serverName string,
) (registry.ServerMetadata, error) {
	ctx, span := s.startSpan(ctx, "consoleService.GetServer")
	defer span.End()
	span.SetAttributes(
		otel.AttrRegistryName.String(registryName),
		otel.AttrServerName.String(serverName),
	)

	reg, err := s.loadRegistryData(ctx, registryName)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	srv, ok := reg.GetServerByName(serverName)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrServerNotFound, serverName)
		otel.RecordError(span, err)
		return nil, err
	}
	return srv, nil
}

// GetServerManifest returns the JSON manifest of a registry server entry
func (s *consoleService) GetServerManifest(
	ctx context.Context, registryName, serverName string,
) ([]byte, error) {
	srv, err := s.GetServer(ctx, registryName, serverName)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(srv)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal server manifest: %w", err)
	}
	return data, nil
}

func (s *consoleService) loadRegistryData(ctx context.Context, registryName string) (*registry.Registry, error) {
	if _, ok := s.cfg.GetRegistry(registryName); !ok {
		return nil, fmt.Errorf("%w: %s", ErrRegistryNotFound, registryName)
	}

	reg, err := s.storage.Get(ctx, registryName)
	if err != nil {
		if errors.Is(err, sources.ErrNoStoredData) {
			return nil, fmt.Errorf("%w: %s", ErrRegistryNotSynced, registryName)
		}
		return nil, err
	}
	return reg, nil
}
