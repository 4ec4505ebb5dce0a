// Package teamcity provides a client for the TeamCity REST API with a fluent build locator.
package teamcity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"teamcity-rest/src/config"
	"teamcity-rest/src/logger"
)

const (
	guestAuthPath = "/guestAuth/app/rest"
	httpAuthPath  = "/httpAuth/app/rest"
	tokenAuthPath = "/app/rest"
)

// Client is a TeamCity REST API client.
// It holds no per-query state and is safe for concurrent use.
type Client struct {
	serverURL  string
	restPath   string
	httpClient *http.Client
	username   string
	password   string
	token      string
	logger     logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func newClient(serverURL, restPath string, opts []Option) *Client {
	c := &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		restPath:  restPath,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewGuestClient creates a client using guest access.
func NewGuestClient(serverURL string, opts ...Option) *Client {
	return newClient(serverURL, guestAuthPath, opts)
}

// NewHTTPAuthClient creates a client using HTTP basic authentication.
func NewHTTPAuthClient(serverURL, username, password string, opts ...Option) *Client {
	c := newClient(serverURL, httpAuthPath, opts)
	c.username = username
	c.password = password
	return c
}

// NewTokenClient creates a client authenticating with an access token.
func NewTokenClient(serverURL, token string, opts ...Option) *Client {
	c := newClient(serverURL, tokenAuthPath, opts)
	c.token = token
	return c
}

// NewClient creates a client for the server and credentials in cfg.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	switch cfg.AuthMode() {
	case config.AuthToken:
		return NewTokenClient(cfg.TeamCityURL, cfg.TeamCityToken, opts...)
	case config.AuthHTTP:
		return NewHTTPAuthClient(cfg.TeamCityURL, cfg.TeamCityUsername, cfg.TeamCityPassword, opts...)
	default:
		return NewGuestClient(cfg.TeamCityURL, opts...)
	}
}

// ServerURL returns the server root the client talks to.
func (c *Client) ServerURL() string {
	return c.serverURL
}

// Builds returns a server-wide build locator.
func (c *Client) Builds() *BuildLocator {
	return newBuildLocator(c)
}

// Build fetches a single build by id.
func (c *Client) Build(ctx context.Context, id BuildID) (*Build, error) {
	bean, err := c.fetchBuild(ctx, id, buildFields)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch build %s: %w", id, err)
	}
	return newBuild(c, *bean), nil
}

// BuildConfiguration fetches a build configuration by id.
func (c *Client) BuildConfiguration(ctx context.Context, id BuildConfigurationID) (*BuildConfiguration, error) {
	query := url.Values{}
	query.Set("fields", "id,name,projectId,webUrl")

	var bean buildTypeBean
	if err := c.get(ctx, c.restURL("buildTypes/id:"+url.PathEscape(string(id)), query), &bean); err != nil {
		return nil, fmt.Errorf("failed to fetch build configuration %s: %w", id, err)
	}

	return &BuildConfiguration{
		ID:        BuildConfigurationID(bean.ID),
		Name:      bean.Name,
		ProjectID: bean.ProjectID,
		WebURL:    bean.WebURL,
	}, nil
}

// fetchBuild requests the given fields of one build.
func (c *Client) fetchBuild(ctx context.Context, id BuildID, fields string) (*buildBean, error) {
	query := url.Values{}
	query.Set("fields", fields)

	var bean buildBean
	if err := c.get(ctx, c.restURL("builds/id:"+url.PathEscape(string(id)), query), &bean); err != nil {
		return nil, err
	}
	return &bean, nil
}

// listBuilds runs a locator query and follows nextHref until limit builds are collected.
// A limit of zero or less means no limit.
func (c *Client) listBuilds(ctx context.Context, locator string, limit int) ([]buildBean, error) {
	query := url.Values{}
	if locator != "" {
		query.Set("locator", locator)
	}
	query.Set("fields", buildListFields)

	var all []buildBean
	next := c.restURL("builds", query)

	for next != "" {
		var page buildListBean
		if err := c.get(ctx, next, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Build...)
		if limit > 0 && len(all) >= limit {
			return all[:limit], nil
		}

		if page.NextHref == "" || len(page.Build) == 0 {
			break
		}
		resolved, err := c.resolve(page.NextHref)
		if err != nil {
			return nil, err
		}
		next = resolved
	}

	return all, nil
}

// restURL builds an absolute URL under the REST root for the client's auth mode.
func (c *Client) restURL(path string, query url.Values) string {
	u := c.serverURL + c.restPath + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// resolve turns a server-relative href (as returned in nextHref) into an absolute URL.
func (c *Client) resolve(href string) (string, error) {
	base, err := url.Parse(c.serverURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", c.serverURL, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	switch {
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	case c.username != "":
		req.SetBasicAuth(c.username, c.password)
	}

	c.logger.Debug("[TeamCity] GET %s", rawURL)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("[TeamCity] %d %s (%s)", resp.StatusCode, rawURL, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &ServerError{
			StatusCode: resp.StatusCode,
			Method:     http.MethodGet,
			URL:        rawURL,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
