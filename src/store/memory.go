package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"teamcity-rest/src/contracts"
)

// MemoryStore is an in-memory implementation of Store.
// Useful for testing and runs without POSTGRES_DSN.
type MemoryStore struct {
	mu      sync.RWMutex
	builds  map[string]contracts.BuildEvent
	cursors map[string]string
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		builds:  make(map[string]contracts.BuildEvent),
		cursors: make(map[string]string),
	}
}

// SaveBuild inserts or replaces a build.
func (s *MemoryStore) SaveBuild(ctx context.Context, build *contracts.BuildEvent) error {
	if build.BuildID == "" {
		return fmt.Errorf("build id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.builds[build.BuildID] = *build
	return nil
}

// GetBuild returns a copy of a saved build.
func (s *MemoryStore) GetBuild(ctx context.Context, buildID string) (*contracts.BuildEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	build, exists := s.builds[buildID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, buildID)
	}
	return &build, nil
}

// ListBuilds returns builds of a configuration, highest build id first.
func (s *MemoryStore) ListBuilds(ctx context.Context, configurationID string, limit int) ([]contracts.BuildEvent, error) {
	s.mu.RLock()
	result := []contracts.BuildEvent{}
	for _, build := range s.builds {
		if build.ConfigurationID == configurationID {
			result = append(result, build)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return buildOrder(result[i].BuildID) > buildOrder(result[j].BuildID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Cursor returns the last processed build id of a configuration.
func (s *MemoryStore) Cursor(ctx context.Context, configurationID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.cursors[configurationID]
	return id, ok, nil
}

// SetCursor records the last processed build id of a configuration.
func (s *MemoryStore) SetCursor(ctx context.Context, configurationID string, buildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[configurationID] = buildID
	return nil
}

// Close closes the store (no-op for memory store).
func (s *MemoryStore) Close() error {
	return nil
}

// buildOrder sorts numeric ids numerically; TeamCity assigns them increasingly.
func buildOrder(id string) int64 {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return -1
	}
	return n
}
