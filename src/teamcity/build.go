package teamcity

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Build is a build as returned by a locator query.
// Fields are filled from the list response; status text, dates and revisions
// are requested separately through the Fetch methods.
type Build struct {
	ID              BuildID
	ConfigurationID BuildConfigurationID
	Number          string
	Status          BuildStatus
	State           string
	BranchName      string
	DefaultBranch   bool
	FailedToStart   bool
	WebURL          string

	client *Client
}

func newBuild(c *Client, bean buildBean) *Build {
	return &Build{
		ID:              BuildID(strconv.FormatInt(bean.ID, 10)),
		ConfigurationID: BuildConfigurationID(bean.BuildTypeID),
		Number:          bean.Number,
		Status:          BuildStatus(bean.Status),
		State:           bean.State,
		BranchName:      bean.BranchName,
		DefaultBranch:   bean.DefaultBranch,
		FailedToStart:   bean.FailedToStart,
		WebURL:          bean.WebURL,
		client:          c,
	}
}

func (b *Build) String() string {
	s := fmt.Sprintf("Build{id=%s, number=%s, status=%s, state=%s, configuration=%s",
		b.ID, b.Number, b.Status, b.State, b.ConfigurationID)
	if b.BranchName != "" {
		s += ", branch=" + b.BranchName
	}
	if b.FailedToStart {
		s += ", failedToStart=true"
	}
	return s + "}"
}

// FetchStatusText requests the human-readable status text of the build.
func (b *Build) FetchStatusText(ctx context.Context) (string, error) {
	bean, err := b.client.fetchBuild(ctx, b.ID, "statusText")
	if err != nil {
		return "", fmt.Errorf("failed to fetch status text of build %s: %w", b.ID, err)
	}
	return bean.StatusText, nil
}

// FetchQueuedDate requests the time the build was put into the queue.
func (b *Build) FetchQueuedDate(ctx context.Context) (time.Time, error) {
	return b.fetchDate(ctx, "queuedDate", func(bean *buildBean) string { return bean.QueuedDate })
}

// FetchStartDate requests the time the build started.
func (b *Build) FetchStartDate(ctx context.Context) (time.Time, error) {
	return b.fetchDate(ctx, "startDate", func(bean *buildBean) string { return bean.StartDate })
}

// FetchFinishDate requests the time the build finished.
func (b *Build) FetchFinishDate(ctx context.Context) (time.Time, error) {
	return b.fetchDate(ctx, "finishDate", func(bean *buildBean) string { return bean.FinishDate })
}

func (b *Build) fetchDate(ctx context.Context, field string, pick func(*buildBean) string) (time.Time, error) {
	bean, err := b.client.fetchBuild(ctx, b.ID, field)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to fetch %s of build %s: %w", field, b.ID, err)
	}
	raw := pick(bean)
	if raw == "" {
		return time.Time{}, fmt.Errorf("build %s has no %s: %w", b.ID, field, ErrNotFound)
	}
	t, err := ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s of build %s: %w", field, b.ID, err)
	}
	return t, nil
}

// FetchRevisions requests the VCS revisions the build ran on.
func (b *Build) FetchRevisions(ctx context.Context) ([]Revision, error) {
	bean, err := b.client.fetchBuild(ctx, b.ID, "revisions(revision(version,vcsBranchName,vcs-root-instance(id,vcs-root-id,name)))")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revisions of build %s: %w", b.ID, err)
	}
	if bean.Revisions == nil {
		return []Revision{}, nil
	}

	revisions := make([]Revision, 0, len(bean.Revisions.Revision))
	for _, rb := range bean.Revisions.Revision {
		revisions = append(revisions, rb.toRevision())
	}
	return revisions, nil
}

// Details bundles the supplementary fields of a build.
type Details struct {
	StatusText string
	QueuedDate time.Time
	StartDate  time.Time
	FinishDate time.Time
	Revisions  []Revision
}

// FetchDetails requests status text, dates and revisions in one round trip.
// Dates the server does not report (e.g. for a queued build) are left zero.
func (b *Build) FetchDetails(ctx context.Context) (*Details, error) {
	bean, err := b.client.fetchBuild(ctx, b.ID,
		"statusText,queuedDate,startDate,finishDate,revisions(revision(version,vcsBranchName,vcs-root-instance(id,vcs-root-id,name)))")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch details of build %s: %w", b.ID, err)
	}

	d := &Details{StatusText: bean.StatusText, Revisions: []Revision{}}
	for _, f := range []struct {
		raw string
		dst *time.Time
	}{
		{bean.QueuedDate, &d.QueuedDate},
		{bean.StartDate, &d.StartDate},
		{bean.FinishDate, &d.FinishDate},
	} {
		if f.raw == "" {
			continue
		}
		t, err := ParseDate(f.raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse dates of build %s: %w", b.ID, err)
		}
		*f.dst = t
	}
	if bean.Revisions != nil {
		for _, rb := range bean.Revisions.Revision {
			d.Revisions = append(d.Revisions, rb.toRevision())
		}
	}
	return d, nil
}
