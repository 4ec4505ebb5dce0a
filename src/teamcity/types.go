package teamcity

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout is the timestamp format used by the TeamCity REST API, e.g. 20240101T120000+0000.
const DateLayout = "20060102T150405-0700"

// BuildID identifies a build on the server.
type BuildID string

// Int returns the numeric form of the id.
func (id BuildID) Int() (int64, error) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("build id %q is not numeric: %w", string(id), err)
	}
	return n, nil
}

func (id BuildID) String() string { return string(id) }

// BuildConfigurationID identifies a build configuration (TeamCity "build type").
type BuildConfigurationID string

func (id BuildConfigurationID) String() string { return string(id) }

// BuildStatus is the result status of a build.
type BuildStatus string

const (
	StatusSuccess BuildStatus = "SUCCESS"
	StatusFailure BuildStatus = "FAILURE"
	StatusError   BuildStatus = "ERROR"
	StatusUnknown BuildStatus = "UNKNOWN"
)

// Revision is a VCS revision a build was run on.
type Revision struct {
	Version       string
	VcsBranchName string
	VcsRoot       VcsRootInstance
}

// VcsRootInstance identifies the VCS root instance a revision belongs to.
type VcsRootInstance struct {
	ID        string
	VcsRootID string
	Name      string
}

// BuildConfiguration is a pipeline definition on the server.
type BuildConfiguration struct {
	ID        BuildConfigurationID
	Name      string
	ProjectID string
	WebURL    string
}

// Wire types mirror the JSON returned by /app/rest.

type buildListBean struct {
	Count    int         `json:"count"`
	NextHref string      `json:"nextHref"`
	Build    []buildBean `json:"build"`
}

type buildBean struct {
	ID            int64          `json:"id"`
	BuildTypeID   string         `json:"buildTypeId"`
	Number        string         `json:"number"`
	Status        string         `json:"status"`
	State         string         `json:"state"`
	BranchName    string         `json:"branchName"`
	DefaultBranch bool           `json:"defaultBranch"`
	FailedToStart bool           `json:"failedToStart"`
	WebURL        string         `json:"webUrl"`
	StatusText    string         `json:"statusText"`
	QueuedDate    string         `json:"queuedDate"`
	StartDate     string         `json:"startDate"`
	FinishDate    string         `json:"finishDate"`
	Revisions     *revisionsBean `json:"revisions"`
}

type revisionsBean struct {
	Count    int            `json:"count"`
	Revision []revisionBean `json:"revision"`
}

type revisionBean struct {
	Version         string               `json:"version"`
	VcsBranchName   string               `json:"vcsBranchName"`
	VcsRootInstance *vcsRootInstanceBean `json:"vcs-root-instance"`
}

type vcsRootInstanceBean struct {
	ID        string `json:"id"`
	VcsRootID string `json:"vcs-root-id"`
	Name      string `json:"name"`
}

type buildTypeBean struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	WebURL    string `json:"webUrl"`
}

// buildListFields selects the attributes materialized by list queries.
const buildListFields = "count,nextHref,build(id,buildTypeId,number,status,state,branchName,defaultBranch,failedToStart,webUrl)"

// buildFields is the single-build form of buildListFields.
const buildFields = "id,buildTypeId,number,status,state,branchName,defaultBranch,failedToStart,webUrl"

// ParseDate parses a TeamCity timestamp.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid TeamCity date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t in the TeamCity timestamp format.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func (b revisionBean) toRevision() Revision {
	r := Revision{
		Version:       b.Version,
		VcsBranchName: b.VcsBranchName,
	}
	if b.VcsRootInstance != nil {
		r.VcsRoot = VcsRootInstance{
			ID:        b.VcsRootInstance.ID,
			VcsRootID: b.VcsRootInstance.VcsRootID,
			Name:      b.VcsRootInstance.Name,
		}
	}
	return r
}
