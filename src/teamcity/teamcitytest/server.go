// Package teamcitytest provides an in-process fake of the TeamCity REST API
// that understands the build locator dimensions used by the client.
package teamcitytest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout matches the server timestamp format.
const DateLayout = "20060102T150405-0700"

// Revision is a VCS revision attached to a fake build.
type Revision struct {
	Version   string
	Branch    string
	RootID    string
	VcsRootID string
	RootName  string
}

// Build is a build known to the fake server.
type Build struct {
	ID            int64
	BuildTypeID   string
	Number        string
	Status        string
	State         string
	BranchName    string
	FailedToStart bool
	StatusText    string
	Tags          []string
	Queued        time.Time
	Start         time.Time
	Finish        time.Time
	Revisions     []Revision
}

// BuildType is a build configuration known to the fake server.
type BuildType struct {
	ID        string
	Name      string
	ProjectID string
}

// Server is a fake TeamCity server backed by httptest.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	builds     []Build
	buildTypes map[string]BuildType
	requests   []*url.URL
}

// NewServer starts a fake server holding builds.
func NewServer(builds ...Build) *Server {
	s := &Server{buildTypes: make(map[string]BuildType)}
	s.builds = append(s.builds, builds...)
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// AddBuild adds a build, e.g. to simulate a build finishing between polls.
func (s *Server) AddBuild(b Build) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds = append(s.builds, b)
}

// AddBuildType registers a build configuration.
func (s *Server) AddBuildType(bt BuildType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buildTypes[bt.ID] = bt
}

// Requests returns the URLs received so far.
func (s *Server) Requests() []*url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*url.URL, len(s.requests))
	copy(out, s.requests)
	return out
}

var restPrefixes = []string{"/guestAuth/app/rest/", "/httpAuth/app/rest/", "/app/rest/"}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := *r.URL
	s.requests = append(s.requests, &u)

	var path string
	for _, prefix := range restPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			path = strings.TrimPrefix(r.URL.Path, prefix)
			break
		}
	}

	switch {
	case path == "builds":
		s.handleList(w, r)
	case strings.HasPrefix(path, "builds/id:"):
		s.handleBuild(w, strings.TrimPrefix(path, "builds/id:"))
	case strings.HasPrefix(path, "buildTypes/id:"):
		s.handleBuildType(w, strings.TrimPrefix(path, "buildTypes/id:"))
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	locator := r.URL.Query().Get("locator")
	dims, err := ParseLocator(locator)
	if err != nil {
		http.Error(w, "BadRequestException: "+err.Error(), http.StatusBadRequest)
		return
	}

	matched, status, msg := s.match(dims)
	if status != http.StatusOK {
		http.Error(w, msg, status)
		return
	}

	start := 0
	if v := dims.get("start"); v != "" {
		start, _ = strconv.Atoi(v)
	}
	count := 100
	if v := dims.get("count"); v != "" {
		count, _ = strconv.Atoi(v)
	}

	if start > len(matched) {
		start = len(matched)
	}
	end := start + count
	if end > len(matched) {
		end = len(matched)
	}
	page := matched[start:end]

	resp := listJSON{Count: len(page), Build: make([]buildJSON, 0, len(page))}
	for _, b := range page {
		resp.Build = append(resp.Build, toJSON(b))
	}
	if end < len(matched) {
		next := url.Values{}
		next.Set("locator", withStart(locator, end))
		next.Set("fields", r.URL.Query().Get("fields"))
		resp.NextHref = r.URL.Path + "?" + next.Encode()
	}

	writeJSON(w, resp)
}

func (s *Server) handleBuild(w http.ResponseWriter, id string) {
	for _, b := range s.builds {
		if strconv.FormatInt(b.ID, 10) == id {
			writeJSON(w, toJSON(b))
			return
		}
	}
	http.Error(w, "NotFoundException: No build found by locator 'id:"+id+"'.", http.StatusNotFound)
}

func (s *Server) handleBuildType(w http.ResponseWriter, id string) {
	bt, ok := s.buildTypes[id]
	if !ok {
		http.Error(w, "NotFoundException: No build type or template is found by id '"+id+"'.", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"id":        bt.ID,
		"name":      bt.Name,
		"projectId": bt.ProjectID,
		"webUrl":    "http://teamcity/buildConfiguration/" + bt.ID,
	})
}

// match filters builds by dims and returns them newest first.
func (s *Server) match(dims Dims) ([]Build, int, string) {
	var out []Build
	for _, b := range s.builds {
		ok, status, msg := s.matches(b, dims)
		if status != http.StatusOK {
			return nil, status, msg
		}
		if ok {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, http.StatusOK, ""
}

func (s *Server) matches(b Build, dims Dims) (bool, int, string) {
	for _, d := range dims {
		switch d.Name {
		case "buildType":
			sub, err := ParseLocator(d.Value)
			if err != nil {
				return false, http.StatusBadRequest, err.Error()
			}
			if b.BuildTypeID != sub.get("id") {
				return false, http.StatusOK, ""
			}
		case "id":
			if strconv.FormatInt(b.ID, 10) != d.Value {
				return false, http.StatusOK, ""
			}
		case "number":
			if b.Number != d.Value {
				return false, http.StatusOK, ""
			}
		case "status":
			if !strings.EqualFold(b.Status, d.Value) {
				return false, http.StatusOK, ""
			}
		case "tag":
			if !contains(b.Tags, d.Value) {
				return false, http.StatusOK, ""
			}
		case "branch":
			if d.Value != "default:any" && b.BranchName != d.Value {
				return false, http.StatusOK, ""
			}
		case "sinceBuild":
			ref, status, msg := s.resolveSingle(d.Value)
			if status != http.StatusOK {
				return false, status, msg
			}
			if b.ID <= ref.ID {
				return false, http.StatusOK, ""
			}
		case "startDate", "finishDate":
			ok, status, msg := s.matchDate(b, d)
			if status != http.StatusOK || !ok {
				return false, status, msg
			}
		}
	}

	switch dims.get("failedToStart") {
	case "", "false":
		if b.FailedToStart {
			return false, http.StatusOK, ""
		}
	case "true":
		if !b.FailedToStart {
			return false, http.StatusOK, ""
		}
	}

	return true, http.StatusOK, ""
}

func (s *Server) matchDate(b Build, d Dim) (bool, int, string) {
	sub, err := ParseLocator(d.Value)
	if err != nil {
		return false, http.StatusBadRequest, err.Error()
	}

	pick := func(x Build) time.Time {
		if d.Name == "startDate" {
			return x.Start
		}
		return x.Finish
	}

	var ref time.Time
	if loc := sub.get("build"); loc != "" {
		refBuild, status, msg := s.resolveSingle(loc)
		if status != http.StatusOK {
			return false, status, msg
		}
		ref = pick(refBuild)
	} else {
		ref, err = time.Parse(DateLayout, sub.get("date"))
		if err != nil {
			return false, http.StatusBadRequest, "BadRequestException: " + err.Error()
		}
	}

	switch sub.get("condition") {
	case "before":
		return pick(b).Before(ref), http.StatusOK, ""
	default:
		return pick(b).After(ref), http.StatusOK, ""
	}
}

// resolveSingle resolves a sub-locator that must match exactly one build.
func (s *Server) resolveSingle(locator string) (Build, int, string) {
	dims, err := ParseLocator(locator)
	if err != nil {
		return Build{}, http.StatusBadRequest, "BadRequestException: " + err.Error()
	}
	if dims.get("number") != "" && dims.get("buildType") == "" {
		return Build{}, http.StatusBadRequest, "BadRequestException: Build number requires a build configuration to be specified"
	}
	matched, status, msg := s.match(dims)
	if status != http.StatusOK {
		return Build{}, status, msg
	}
	switch len(matched) {
	case 0:
		return Build{}, http.StatusNotFound, "NotFoundException: No build found by locator '" + locator + "'."
	case 1:
		return matched[0], http.StatusOK, ""
	default:
		if c := dims.get("count"); c == "1" {
			return matched[0], http.StatusOK, ""
		}
		return Build{}, http.StatusBadRequest, fmt.Sprintf("BadRequestException: Several builds found by locator '%s' (%d)", locator, len(matched))
	}
}

// Dim is one name:value pair of a locator.
type Dim struct {
	Name  string
	Value string
}

// Dims is a parsed locator.
type Dims []Dim

func (d Dims) get(name string) string {
	for _, dim := range d {
		if dim.Name == name {
			return dim.Value
		}
	}
	return ""
}

// Get returns the value of the first dimension called name.
func (d Dims) Get(name string) string { return d.get(name) }

// ParseLocator splits a locator into dimensions, honoring nested parentheses
// and $base64: values. Surrounding parentheses of a value are removed.
func ParseLocator(locator string) (Dims, error) {
	if locator == "" {
		return nil, nil
	}

	parts, err := splitTopLevel(locator)
	if err != nil {
		return nil, err
	}

	dims := make(Dims, 0, len(parts))
	for _, part := range parts {
		name, value, ok := strings.Cut(part, ":")
		if !ok {
			dims = append(dims, Dim{Name: "id", Value: part})
			continue
		}
		if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
			value = value[1 : len(value)-1]
		} else if strings.HasPrefix(value, "$base64:") {
			decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, "$base64:"))
			if err != nil {
				return nil, fmt.Errorf("bad $base64 value %q: %w", value, err)
			}
			value = string(decoded)
		}
		dims = append(dims, Dim{Name: name, Value: value})
	}
	return dims, nil
}

func withStart(locator string, start int) string {
	parts, _ := splitTopLevel(locator)
	var kept []string
	for _, part := range parts {
		if !strings.HasPrefix(part, "start:") {
			kept = append(kept, part)
		}
	}
	kept = append(kept, "start:"+strconv.Itoa(start))
	return strings.Join(kept, ",")
}

// splitTopLevel splits on commas that are not inside parentheses.
func splitTopLevel(locator string) ([]string, error) {
	var parts []string
	depth, last := 0, 0
	for i, r := range locator {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses in locator %q", locator)
			}
		case ',':
			if depth == 0 {
				parts = append(parts, locator[last:i])
				last = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in locator %q", locator)
	}
	return append(parts, locator[last:]), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

type listJSON struct {
	Count    int         `json:"count"`
	NextHref string      `json:"nextHref,omitempty"`
	Build    []buildJSON `json:"build"`
}

type buildJSON struct {
	ID            int64          `json:"id"`
	BuildTypeID   string         `json:"buildTypeId"`
	Number        string         `json:"number"`
	Status        string         `json:"status"`
	State         string         `json:"state"`
	BranchName    string         `json:"branchName,omitempty"`
	FailedToStart bool           `json:"failedToStart,omitempty"`
	WebURL        string         `json:"webUrl"`
	StatusText    string         `json:"statusText,omitempty"`
	QueuedDate    string         `json:"queuedDate,omitempty"`
	StartDate     string         `json:"startDate,omitempty"`
	FinishDate    string         `json:"finishDate,omitempty"`
	Revisions     *revisionsJSON `json:"revisions,omitempty"`
}

type revisionsJSON struct {
	Count    int            `json:"count"`
	Revision []revisionJSON `json:"revision"`
}

type revisionJSON struct {
	Version         string            `json:"version"`
	VcsBranchName   string            `json:"vcsBranchName,omitempty"`
	VcsRootInstance map[string]string `json:"vcs-root-instance,omitempty"`
}

func toJSON(b Build) buildJSON {
	out := buildJSON{
		ID:            b.ID,
		BuildTypeID:   b.BuildTypeID,
		Number:        b.Number,
		Status:        b.Status,
		State:         b.State,
		BranchName:    b.BranchName,
		FailedToStart: b.FailedToStart,
		WebURL:        fmt.Sprintf("http://teamcity/viewLog.html?buildId=%d", b.ID),
		StatusText:    b.StatusText,
		QueuedDate:    formatDate(b.Queued),
		StartDate:     formatDate(b.Start),
		FinishDate:    formatDate(b.Finish),
	}
	if len(b.Revisions) > 0 {
		out.Revisions = &revisionsJSON{Count: len(b.Revisions)}
		for _, r := range b.Revisions {
			out.Revisions.Revision = append(out.Revisions.Revision, revisionJSON{
				Version:       r.Version,
				VcsBranchName: r.Branch,
				VcsRootInstance: map[string]string{
					"id":          r.RootID,
					"vcs-root-id": r.VcsRootID,
					"name":        r.RootName,
				},
			})
		}
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
