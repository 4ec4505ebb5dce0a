// Package contracts defines message types exchanged over the broker.
package contracts

// BuildEvent announces a build the watcher has not seen before.
// Published to: teamcity.builds.new
// Key: {build_id}
type BuildEvent struct {
	// TeamCity build id.
	BuildID string `json:"build_id"`
	// Build configuration (TeamCity build type) id.
	ConfigurationID string `json:"configuration_id"`
	// Build number as shown in the UI. Only unique within a configuration.
	Number string `json:"number"`
	// SUCCESS, FAILURE, ERROR or UNKNOWN.
	Status string `json:"status"`
	// queued, running or finished.
	State         string `json:"state"`
	BranchName    string `json:"branch_name,omitempty"`
	FailedToStart bool   `json:"failed_to_start,omitempty"`
	WebURL        string `json:"web_url"`
	// Server root the build was observed on.
	Server string `json:"server"`
	// RFC 3339 time the watcher observed the build.
	ObservedAt string `json:"observed_at"`
}

// TopicNames defines the Redpanda topic names
const (
	// TopicBuildsNew contains one BuildEvent per newly observed build
	TopicBuildsNew = "teamcity.builds.new"
)
