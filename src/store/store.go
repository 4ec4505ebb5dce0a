// Package store defines the interface for persisting observed builds.
package store

import (
	"context"
	"errors"

	"teamcity-rest/src/contracts"
)

// ErrNotFound is returned by GetBuild for unknown build ids.
var ErrNotFound = errors.New("build not found in store")

// Store persists builds seen by the watcher and the per-configuration cursor.
type Store interface {
	// SaveBuild inserts or replaces a build keyed by build id
	SaveBuild(ctx context.Context, build *contracts.BuildEvent) error

	// GetBuild returns a saved build
	GetBuild(ctx context.Context, buildID string) (*contracts.BuildEvent, error)

	// ListBuilds returns saved builds of a configuration, newest first.
	// A limit of zero or less returns all of them.
	ListBuilds(ctx context.Context, configurationID string, limit int) ([]contracts.BuildEvent, error)

	// Cursor returns the last build id processed for a configuration
	Cursor(ctx context.Context, configurationID string) (buildID string, ok bool, err error)

	// SetCursor records the last build id processed for a configuration
	SetCursor(ctx context.Context, configurationID string, buildID string) error

	// Close closes the store connection
	Close() error
}
