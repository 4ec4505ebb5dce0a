// Package mcp exposes TeamCity build queries as MCP tools.
package mcp

// BuildSummary is one build in a list response.
type BuildSummary struct {
	ID            string `json:"id"`
	Configuration string `json:"configuration"`
	Number        string `json:"number"`
	Status        string `json:"status"`
	State         string `json:"state"`
	Branch        string `json:"branch,omitempty"`
	FailedToStart bool   `json:"failed_to_start,omitempty"`
	WebURL        string `json:"web_url"`
}

// ListResponse is returned by list_builds.
type ListResponse struct {
	Locator string         `json:"locator"`
	Count   int            `json:"count"`
	Builds  []BuildSummary `json:"builds"`
}

// BuildDetails is returned by get_build and latest_build.
type BuildDetails struct {
	BuildSummary
	StatusText string         `json:"status_text,omitempty"`
	QueuedDate string         `json:"queued_date,omitempty"`
	StartDate  string         `json:"start_date,omitempty"`
	FinishDate string         `json:"finish_date,omitempty"`
	Revisions  []RevisionInfo `json:"revisions"`
}

// RevisionInfo is a VCS revision in tool output.
type RevisionInfo struct {
	Version string `json:"version"`
	Branch  string `json:"branch,omitempty"`
	VcsRoot string `json:"vcs_root,omitempty"`
}
