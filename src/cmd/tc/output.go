package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"teamcity-rest/src/sanitize"
	"teamcity-rest/src/teamcity"
)

// buildJSON is the --json form of a build.
type buildJSON struct {
	ID            string         `json:"id"`
	Configuration string         `json:"configuration"`
	Number        string         `json:"number"`
	Status        string         `json:"status"`
	State         string         `json:"state,omitempty"`
	Branch        string         `json:"branch,omitempty"`
	FailedToStart bool           `json:"failed_to_start,omitempty"`
	WebURL        string         `json:"web_url,omitempty"`
	StatusText    string         `json:"status_text,omitempty"`
	QueuedDate    string         `json:"queued_date,omitempty"`
	StartDate     string         `json:"start_date,omitempty"`
	FinishDate    string         `json:"finish_date,omitempty"`
	Revisions     []revisionJSON `json:"revisions,omitempty"`
}

type revisionJSON struct {
	Version string `json:"version"`
	Branch  string `json:"branch,omitempty"`
	VcsRoot string `json:"vcs_root,omitempty"`
}

func summaries(builds []*teamcity.Build) []buildJSON {
	out := make([]buildJSON, 0, len(builds))
	for _, b := range builds {
		out = append(out, newBuildJSON(b, nil))
	}
	return out
}

func newBuildJSON(b *teamcity.Build, d *teamcity.Details) buildJSON {
	j := buildJSON{
		ID:            string(b.ID),
		Configuration: string(b.ConfigurationID),
		Number:        b.Number,
		Status:        string(b.Status),
		State:         b.State,
		Branch:        b.BranchName,
		FailedToStart: b.FailedToStart,
		WebURL:        b.WebURL,
	}
	if d == nil {
		return j
	}
	j.StatusText = sanitize.Clean(d.StatusText)
	j.QueuedDate = formatTime(d.QueuedDate)
	j.StartDate = formatTime(d.StartDate)
	j.FinishDate = formatTime(d.FinishDate)
	for _, r := range d.Revisions {
		j.Revisions = append(j.Revisions, revisionJSON{Version: r.Version, Branch: r.VcsBranchName, VcsRoot: r.VcsRoot.Name})
	}
	return j
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeBuildTable prints one build per line.
func writeBuildTable(w io.Writer, builds []*teamcity.Build) {
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNUMBER\tSTATUS\tBRANCH\tCONFIGURATION")
	for _, b := range builds {
		status := string(b.Status)
		if b.FailedToStart {
			status += " (failed to start)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Number, status, b.BranchName, b.ConfigurationID)
	}
	tw.Flush()
}

// writeBuildDetails prints a build with its supplementary fields.
func writeBuildDetails(w io.Writer, b *teamcity.Build, d *teamcity.Details) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	field := func(name, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", name, value)
		}
	}

	field("Build", fmt.Sprintf("#%s (id %s)", b.Number, b.ID))
	field("Configuration", string(b.ConfigurationID))
	field("Status", string(b.Status))
	field("State", b.State)
	field("Branch", b.BranchName)
	if b.FailedToStart {
		field("Failed to start", "yes")
	}
	field("Status text", sanitize.Clean(d.StatusText))
	field("Queued", formatTime(d.QueuedDate))
	field("Started", formatTime(d.StartDate))
	field("Finished", formatTime(d.FinishDate))
	field("URL", b.WebURL)
	tw.Flush()

	if len(d.Revisions) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRevisions:")
	for _, r := range d.Revisions {
		fmt.Fprintf(w, "  %s  %s  %s\n", r.Version, r.VcsBranchName, r.VcsRoot.Name)
	}
}
