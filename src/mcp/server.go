package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"teamcity-rest/src/logger"
	"teamcity-rest/src/provider"
	"teamcity-rest/src/teamcity"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// Server is the MCP server for TeamCity build queries.
type Server struct {
	mcpServer *server.MCPServer
	client    *teamcity.Client
	logger    logger.Logger
}

// NewServer creates a new MCP server backed by client.
func NewServer(client *teamcity.Client, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	s := server.NewMCPServer(
		"teamcity-rest",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		client:    client,
		logger:    log,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_builds",
		mcp.WithDescription("List builds of a TeamCity build configuration, newest first. By default only successful builds that started are returned; set any_status to include failures."),
		mcp.WithString("configuration",
			mcp.Required(),
			mcp.Description("Build configuration id (build type), e.g. Kotlin_Compile"),
		),
		mcp.WithBoolean("any_status",
			mcp.Description("Include FAILURE and ERROR builds (default: false)"),
		),
		mcp.WithString("failed_to_start",
			mcp.Description("true, false or any (default: server default, which excludes builds that failed to start)"),
		),
		mcp.WithString("branch",
			mcp.Description("Branch name; \"all\" includes every branch"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max builds to return (default: 20, max: 100)"),
		),
	)

	getTool := mcp.NewTool("get_build",
		mcp.WithDescription("Get one build with status text, queued/start/finish dates and VCS revisions."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Build id or TeamCity build URL"),
		),
	)

	latestTool := mcp.NewTool("latest_build",
		mcp.WithDescription("Get the newest build of a configuration with status text, dates and revisions."),
		mcp.WithString("configuration",
			mcp.Required(),
			mcp.Description("Build configuration id (build type)"),
		),
		mcp.WithBoolean("any_status",
			mcp.Description("Consider FAILURE and ERROR builds (default: false)"),
		),
	)

	s.mcpServer.AddTool(listTool, s.handleListBuilds)
	s.mcpServer.AddTool(getTool, s.handleGetBuild)
	s.mcpServer.AddTool(latestTool, s.handleLatestBuild)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

// handleListBuilds handles the list_builds tool call.
func (s *Server) handleListBuilds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configuration := request.GetString("configuration", "")
	if configuration == "" {
		return mcp.NewToolResultError("configuration parameter is required"), nil
	}

	failedToStart, err := teamcity.ParseBoolFilter(request.GetString("failed_to_start", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := request.GetInt("limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	locator := s.client.Builds().
		FromConfiguration(teamcity.BuildConfigurationID(configuration)).
		WithFailedToStartFilter(failedToStart).
		LimitResults(limit)
	if request.GetBool("any_status", false) {
		locator.WithAnyStatus()
	}
	switch branch := request.GetString("branch", ""); branch {
	case "":
	case "all":
		locator.WithAllBranches()
	default:
		locator.WithBranch(branch)
	}

	s.logger.Debug("[MCP] list_builds %s", locator)

	builds, err := locator.List(ctx)
	if err != nil {
		return toolError("list_builds", err), nil
	}

	response := ListResponse{
		Locator: locator.String(),
		Count:   len(builds),
		Builds:  make([]BuildSummary, 0, len(builds)),
	}
	for _, b := range builds {
		response.Builds = append(response.Builds, summarize(b))
	}

	return jsonResult(response)
}

// handleGetBuild handles the get_build tool call.
func (s *Server) handleGetBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arg := request.GetString("id", "")
	if arg == "" {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	ref, err := provider.ParseBuildArg(arg)
	if err != nil {
		return toolError("get_build", err), nil
	}
	if err := ref.CheckServer(s.client.ServerURL()); err != nil {
		return toolError("get_build", err), nil
	}

	build, err := s.client.Build(ctx, ref.BuildID)
	if err != nil {
		return toolError("get_build", err), nil
	}

	details, err := s.details(ctx, build)
	if err != nil {
		return toolError("get_build", err), nil
	}

	return jsonResult(details)
}

// handleLatestBuild handles the latest_build tool call.
func (s *Server) handleLatestBuild(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configuration := request.GetString("configuration", "")
	if configuration == "" {
		return mcp.NewToolResultError("configuration parameter is required"), nil
	}

	locator := s.client.Builds().FromConfiguration(teamcity.BuildConfigurationID(configuration))
	if request.GetBool("any_status", false) {
		locator.WithAnyStatus()
	}

	build, err := locator.Latest(ctx)
	if err != nil {
		return toolError("latest_build", err), nil
	}

	details, err := s.details(ctx, build)
	if err != nil {
		return toolError("latest_build", err), nil
	}

	return jsonResult(details)
}

func (s *Server) details(ctx context.Context, b *teamcity.Build) (BuildDetails, error) {
	d, err := b.FetchDetails(ctx)
	if err != nil {
		return BuildDetails{}, err
	}

	out := BuildDetails{
		BuildSummary: summarize(b),
		StatusText:   compactStatusText(d.StatusText),
		QueuedDate:   formatTime(d.QueuedDate),
		StartDate:    formatTime(d.StartDate),
		FinishDate:   formatTime(d.FinishDate),
		Revisions:    make([]RevisionInfo, 0, len(d.Revisions)),
	}
	for _, r := range d.Revisions {
		out.Revisions = append(out.Revisions, RevisionInfo{
			Version: shortRevision(r.Version),
			Branch:  stripRefPrefix(r.VcsBranchName),
			VcsRoot: r.VcsRoot.Name,
		})
	}
	return out, nil
}

func summarize(b *teamcity.Build) BuildSummary {
	return BuildSummary{
		ID:            string(b.ID),
		Configuration: string(b.ConfigurationID),
		Number:        b.Number,
		Status:        string(b.Status),
		State:         b.State,
		Branch:        b.BranchName,
		FailedToStart: b.FailedToStart,
		WebURL:        b.WebURL,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// toolError reports err to the model with the same hint the CLI would print.
func toolError(tool string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, provider.WrapError(err)))
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
