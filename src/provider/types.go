package provider

import (
	"fmt"
	"strings"

	"teamcity-rest/src/teamcity"
)

// BuildRef identifies a build on a TeamCity server
type BuildRef struct {
	Server          string                        // Server root, empty for bare ids
	BuildID         teamcity.BuildID              // Unique build identifier
	ConfigurationID teamcity.BuildConfigurationID // Optional, when the URL carries it
}

// CheckServer fails with ErrServerMismatch when the reference came from a URL
// of a server other than serverURL. Bare ids match any server.
func (r *BuildRef) CheckServer(serverURL string) error {
	if r.Server == "" {
		return nil
	}
	if !strings.EqualFold(strings.TrimRight(r.Server, "/"), strings.TrimRight(serverURL, "/")) {
		return fmt.Errorf("%w: %s is not %s", ErrServerMismatch, r.Server, serverURL)
	}
	return nil
}
