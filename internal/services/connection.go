package services

import (
	"context"
	"sync"

	"github.com/vvka-141/sfmeta/internal/components"
	"github.com/vvka-141/sfmeta/internal/config"
	"github.com/vvka-141/sfmeta/internal/logging"
	"github.com/vvka-141/sfmeta/internal/remote"
	"github.com/vvka-141/sfmeta/pkg/sfmeta"
)

// Connection is a RemoteMetadataService whose API version is clamped to the
// org's maximum before every call made through Capped. The org maximum is
// cached after the first successful lookup.
type Connection struct {
	sfmeta.RemoteMetadataService

	warner sfmeta.Warner
	logger sfmeta.Logger

	mu      sync.Mutex
	highest string
}

// NewConnection wraps svc. warner receives the one-time downgrade warning and
// may be shared between connections to keep it process-wide.
func NewConnection(svc sfmeta.RemoteMetadataService, warner sfmeta.Warner, logger sfmeta.Logger) *Connection {
	if svc == nil {
		panic("svc cannot be nil")
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if warner == nil {
		warner = logging.NewOnceWarner(logger)
	}
	return &Connection{RemoteMetadataService: svc, warner: warner, logger: logger}
}

// RetrieveMaxAPIVersion returns the org maximum. Failed lookups are not
// cached; the next call asks again.
func (c *Connection) RetrieveMaxAPIVersion(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.highest != "" {
		return c.highest, nil
	}
	v, err := c.RemoteMetadataService.RetrieveMaxAPIVersion(ctx)
	if err != nil {
		return "", err
	}
	c.highest = v
	return v, nil
}

// Capped clamps the API version and returns the connection. A failed lookup
// of the org maximum leaves the requested version in place.
func (c *Connection) Capped(ctx context.Context) sfmeta.RemoteMetadataService {
	if _, err := remote.CapAPIVersion(ctx, c, c.warner); err != nil {
		c.logger.Verbose("Could not determine the org's maximum API version: %v", err)
	}
	return c
}

// versionSources is the manifest version chain after the set's own fields:
// the project's sourceApiVersion, the configured org version, then the org
// maximum.
func versionSources(ctx context.Context, s *config.Settings, conn *Connection) []components.VersionSource {
	return []components.VersionSource{
		components.StaticVersion(s.SourceAPIVersion),
		components.StaticVersion(s.OrgAPIVersion),
		func(context.Context) (string, error) { return conn.RetrieveMaxAPIVersion(ctx) },
	}
}

// transferVersion is the version a transfer is submitted with, or "" to keep
// the connection's own.
func transferVersion(set *components.ComponentSet, s *config.Settings) string {
	if set != nil && set.APIVersion != "" {
		return set.APIVersion
	}
	return s.OrgAPIVersion
}
