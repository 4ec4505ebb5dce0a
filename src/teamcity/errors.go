package teamcity

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxErrorBody is the number of body bytes kept in ServerError messages.
const maxErrorBody = 512

var (
	// ErrNotFound is returned when a build, configuration or locator target does not exist,
	// or when an exactly-one accessor like Latest finds nothing.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousResult is returned when a sub-locator that must resolve to a single
	// build matches several.
	ErrAmbiguousResult = errors.New("ambiguous result")
	// ErrAuthFailed is returned for 401 and 403 responses.
	ErrAuthFailed = errors.New("authentication failed")
)

// ServerError is a non-2xx response from the TeamCity server.
type ServerError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *ServerError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	return fmt.Sprintf("TeamCity API %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// Unwrap maps the status code onto the sentinel errors so callers can use errors.Is.
func (e *ServerError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuthFailed
	case http.StatusBadRequest:
		if isAmbiguousBody(e.Body) {
			return ErrAmbiguousResult
		}
	}
	return nil
}

// TeamCity answers 400 when a single-build locator matches more than one build.
// The wording has changed between server versions.
func isAmbiguousBody(body string) bool {
	lower := strings.ToLower(body)
	for _, marker := range []string{"several", "more than one", "ambiguous", "found multiple"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
