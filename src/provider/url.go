package provider

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"teamcity-rest/src/teamcity"
)

var (
	ErrInvalidURL = errors.New("invalid build URL")
	// ErrServerMismatch is returned for a build URL of a server other than the configured one.
	ErrServerMismatch = errors.New("build URL points to another server")
)

var (
	buildIDPattern            = regexp.MustCompile(`^\d+$`)
	buildConfigurationPattern = regexp.MustCompile(`^(.*)/buildConfiguration/([^/]+)/(\d+)/?$`)
)

// ParseURL parses a TeamCity build page URL:
//
//	{server}/viewLog.html?buildId=N[&buildTypeId=X]
//	{server}/buildConfiguration/X/N
func ParseURL(raw string) (*BuildRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	root := u.Scheme + "://" + u.Host

	if prefix, ok := strings.CutSuffix(u.Path, "/viewLog.html"); ok {
		id := u.Query().Get("buildId")
		if !buildIDPattern.MatchString(id) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
		}
		return &BuildRef{
			Server:          root + prefix,
			BuildID:         teamcity.BuildID(id),
			ConfigurationID: teamcity.BuildConfigurationID(u.Query().Get("buildTypeId")),
		}, nil
	}

	if matches := buildConfigurationPattern.FindStringSubmatch(u.Path); matches != nil {
		return &BuildRef{
			Server:          root + matches[1],
			BuildID:         teamcity.BuildID(matches[3]),
			ConfigurationID: teamcity.BuildConfigurationID(matches[2]),
		}, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
}

// ParseBuildArg accepts either a numeric build id or a build page URL.
func ParseBuildArg(arg string) (*BuildRef, error) {
	arg = strings.TrimSpace(arg)
	if buildIDPattern.MatchString(arg) {
		return &BuildRef{BuildID: teamcity.BuildID(arg)}, nil
	}
	return ParseURL(arg)
}
