package teamcity

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// BoolFilter is a locator dimension that can be left to the server default,
// pinned to true or false, or explicitly unrestricted.
type BoolFilter int

const (
	// BoolUnset emits nothing; the server default applies.
	BoolUnset BoolFilter = iota
	BoolTrue
	BoolFalse
	// BoolAny emits "any" and matches both values.
	BoolAny
)

func (f BoolFilter) locatorValue() string {
	switch f {
	case BoolTrue:
		return "true"
	case BoolFalse:
		return "false"
	case BoolAny:
		return "any"
	default:
		return ""
	}
}

// ParseBoolFilter parses "true", "false", "any" or "" (unset).
func ParseBoolFilter(s string) (BoolFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return BoolUnset, nil
	case "true":
		return BoolTrue, nil
	case "false":
		return BoolFalse, nil
	case "any":
		return BoolAny, nil
	default:
		return BoolUnset, fmt.Errorf("invalid filter value %q (want true, false or any)", s)
	}
}

func boolFilterOf(b bool) BoolFilter {
	if b {
		return BoolTrue
	}
	return BoolFalse
}

// BuildLocator accumulates build filters and renders them into a TeamCity locator.
// Every With* call mutates the locator and returns it for chaining; a later call
// for the same dimension replaces the earlier one. A locator is not safe for
// concurrent mutation.
type BuildLocator struct {
	client *Client

	configuration BuildConfigurationID
	id            BuildID
	number        string
	status        BuildStatus // empty means any status
	failedToStart BoolFilter
	branch        string
	allBranches   bool
	tags          []string
	pinned        BoolFilter
	personal      BoolFilter
	running       bool
	canceled      bool
	sinceBuild    *BuildLocator
	startDate     *DateQuery
	finishDate    *DateQuery
	limit         int
	pageSize      int
}

func newBuildLocator(c *Client) *BuildLocator {
	return &BuildLocator{
		client: c,
		status: StatusSuccess,
	}
}

// FromConfiguration restricts the locator to builds of one build configuration.
func (l *BuildLocator) FromConfiguration(id BuildConfigurationID) *BuildLocator {
	l.configuration = id
	return l
}

// WithID matches a single build id.
func (l *BuildLocator) WithID(id BuildID) *BuildLocator {
	l.id = id
	return l
}

// WithNumber matches a build number. Numbers are only unique within a configuration.
func (l *BuildLocator) WithNumber(number string) *BuildLocator {
	l.number = number
	return l
}

// WithStatus matches builds with the given status. The default is SUCCESS.
func (l *BuildLocator) WithStatus(status BuildStatus) *BuildLocator {
	l.status = status
	return l
}

// WithAnyStatus drops the status filter, including failed and errored builds.
func (l *BuildLocator) WithAnyStatus() *BuildLocator {
	l.status = ""
	return l
}

// WithFailedToStart matches builds that did (true) or did not (false) fail to start.
func (l *BuildLocator) WithFailedToStart(failedToStart bool) *BuildLocator {
	l.failedToStart = boolFilterOf(failedToStart)
	return l
}

// WithAnyFailedToStart matches builds regardless of the failed-to-start flag.
func (l *BuildLocator) WithAnyFailedToStart() *BuildLocator {
	l.failedToStart = BoolAny
	return l
}

// WithFailedToStartFilter sets the failed-to-start dimension directly.
func (l *BuildLocator) WithFailedToStartFilter(f BoolFilter) *BuildLocator {
	l.failedToStart = f
	return l
}

// WithBranch matches builds of a single branch.
func (l *BuildLocator) WithBranch(branch string) *BuildLocator {
	l.branch = branch
	l.allBranches = false
	return l
}

// WithAllBranches includes builds from every branch, not only the default one.
func (l *BuildLocator) WithAllBranches() *BuildLocator {
	l.branch = ""
	l.allBranches = true
	return l
}

// WithTag requires the build to carry tag. Repeated calls require all tags.
func (l *BuildLocator) WithTag(tag string) *BuildLocator {
	l.tags = append(l.tags, tag)
	return l
}

// Pinned matches pinned (true) or unpinned (false) builds.
func (l *BuildLocator) Pinned(pinned bool) *BuildLocator {
	l.pinned = boolFilterOf(pinned)
	return l
}

// WithPersonal matches personal (true) or non-personal (false) builds.
func (l *BuildLocator) WithPersonal(personal bool) *BuildLocator {
	l.personal = boolFilterOf(personal)
	return l
}

// IncludeRunning includes builds that are still running.
func (l *BuildLocator) IncludeRunning() *BuildLocator {
	l.running = true
	return l
}

// IncludeCanceled includes canceled builds.
func (l *BuildLocator) IncludeCanceled() *BuildLocator {
	l.canceled = true
	return l
}

// WithSinceBuild matches builds strictly after the single build resolved by since.
// The server rejects the query if since matches zero or several builds; a build
// number is only resolvable together with a configuration.
func (l *BuildLocator) WithSinceBuild(since *BuildLocator) *BuildLocator {
	l.sinceBuild = since
	return l
}

// WithStartDateQuery filters on the build start date.
func (l *BuildLocator) WithStartDateQuery(q DateQuery) *BuildLocator {
	l.startDate = &q
	return l
}

// WithFinishDateQuery filters on the build finish date.
func (l *BuildLocator) WithFinishDateQuery(q DateQuery) *BuildLocator {
	l.finishDate = &q
	return l
}

// LimitResults caps the number of builds materialized by List.
func (l *BuildLocator) LimitResults(n int) *BuildLocator {
	l.limit = n
	return l
}

// PageSize sets how many builds are requested per page.
func (l *BuildLocator) PageSize(n int) *BuildLocator {
	l.pageSize = n
	return l
}

// count is the per-request count dimension: the page size, bounded by the limit.
func (l *BuildLocator) count() int {
	switch {
	case l.pageSize > 0 && (l.limit <= 0 || l.pageSize < l.limit):
		return l.pageSize
	case l.limit > 0:
		return l.limit
	default:
		return 0
	}
}

// String renders the locator expression sent as the locator query parameter.
func (l *BuildLocator) String() string {
	var dims []string
	add := func(name, value string) {
		if value != "" {
			dims = append(dims, name+":"+value)
		}
	}

	if l.configuration != "" {
		add("buildType", "(id:"+locatorValue(string(l.configuration))+")")
	}
	add("id", locatorValue(string(l.id)))
	add("number", locatorValue(l.number))
	add("status", string(l.status))
	add("failedToStart", l.failedToStart.locatorValue())
	if l.allBranches {
		add("branch", "default:any")
	} else {
		add("branch", locatorValue(l.branch))
	}
	for _, tag := range l.tags {
		add("tag", locatorValue(tag))
	}
	add("pinned", l.pinned.locatorValue())
	add("personal", l.personal.locatorValue())
	if l.running {
		add("running", "any")
	}
	if l.canceled {
		add("canceled", "any")
	}
	if l.sinceBuild != nil {
		add("sinceBuild", "("+l.sinceBuild.String()+")")
	}
	if l.startDate != nil {
		add("startDate", l.startDate.String())
	}
	if l.finishDate != nil {
		add("finishDate", l.finishDate.String())
	}
	if n := l.count(); n > 0 {
		add("count", strconv.Itoa(n))
	}

	return strings.Join(dims, ",")
}

// List runs the query and returns matching builds, newest first.
// Each call issues new requests.
func (l *BuildLocator) List(ctx context.Context) ([]*Build, error) {
	locator := l.String()
	beans, err := l.client.listBuilds(ctx, locator, l.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds (locator %q): %w", locator, err)
	}

	builds := make([]*Build, 0, len(beans))
	for _, bean := range beans {
		builds = append(builds, newBuild(l.client, bean))
	}
	return builds, nil
}

// First returns the newest matching build, or nil if nothing matched.
func (l *BuildLocator) First(ctx context.Context) (*Build, error) {
	single := *l
	single.limit = 1
	single.pageSize = 0

	builds, err := single.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(builds) == 0 {
		return nil, nil
	}
	return builds[0], nil
}

// Latest returns the newest matching build and fails with ErrNotFound if there is none.
func (l *BuildLocator) Latest(ctx context.Context) (*Build, error) {
	build, err := l.First(ctx)
	if err != nil {
		return nil, err
	}
	if build == nil {
		return nil, fmt.Errorf("no build matches locator %q: %w", l.String(), ErrNotFound)
	}
	return build, nil
}

// locatorValue protects values that would otherwise break the locator grammar.
func locatorValue(v string) string {
	switch {
	case v == "":
		return ""
	case strings.ContainsAny(v, "()"):
		return "$base64:" + base64.StdEncoding.EncodeToString([]byte(v))
	case strings.ContainsAny(v, ",:"):
		return "(" + v + ")"
	default:
		return v
	}
}

// DateQuery compares a build date against a timestamp or another build's date.
type DateQuery struct {
	condition string
	date      time.Time
	build     *BuildLocator
}

// AfterBuildQuery matches dates after the same date of the build resolved by l.
func AfterBuildQuery(l *BuildLocator) DateQuery {
	return DateQuery{condition: "after", build: l}
}

// BeforeBuildQuery matches dates before the same date of the build resolved by l.
func BeforeBuildQuery(l *BuildLocator) DateQuery {
	return DateQuery{condition: "before", build: l}
}

// AfterDateQuery matches dates after t.
func AfterDateQuery(t time.Time) DateQuery {
	return DateQuery{condition: "after", date: t}
}

// BeforeDateQuery matches dates before t.
func BeforeDateQuery(t time.Time) DateQuery {
	return DateQuery{condition: "before", date: t}
}

// String renders the parenthesized date-dimension value.
func (q DateQuery) String() string {
	if q.build != nil {
		return fmt.Sprintf("(build:(%s),condition:%s)", q.build.String(), q.condition)
	}
	return fmt.Sprintf("(date:%s,condition:%s)", FormatDate(q.date), q.condition)
}
