package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"teamcity-rest/src/teamcity"
	"teamcity-rest/src/teamcity/teamcitytest"
)

const sha = "0123456789abcdef0123456789abcdef01234567"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	at := func(min int) time.Time { return time.Date(2024, 5, 14, 10, min, 0, 0, time.UTC) }
	srv := teamcitytest.NewServer(
		teamcitytest.Build{ID: 1, BuildTypeID: "Compile", Number: "1", Status: "SUCCESS", State: "finished", StatusText: "Tests passed: 10",
			Queued: at(0), Start: at(1), Finish: at(2),
			Revisions: []teamcitytest.Revision{{Version: sha, Branch: "refs/heads/main", RootID: "1", VcsRootID: "root", RootName: "git@example"}}},
		teamcitytest.Build{ID: 2, BuildTypeID: "Compile", Number: "2", Status: "FAILURE", State: "finished", StatusText: "Tests failed:   1\n(1 new)",
			Queued: at(3), Start: at(4), Finish: at(5)},
		teamcitytest.Build{ID: 3, BuildTypeID: "Compile", Number: "3", Status: "SUCCESS", State: "finished", FailedToStart: true,
			Queued: at(6), Start: at(7), Finish: at(7)},
	)
	t.Cleanup(srv.Close)

	return NewServer(teamcity.NewGuestClient(srv.URL), nil)
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestHandleListBuilds(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name    string
		args    map[string]any
		wantIDs []string
	}{
		{
			name:    "successful only by default",
			args:    map[string]any{"configuration": "Compile"},
			wantIDs: []string{"1"},
		},
		{
			name:    "any status",
			args:    map[string]any{"configuration": "Compile", "any_status": true},
			wantIDs: []string{"2", "1"},
		},
		{
			name:    "any failed to start",
			args:    map[string]any{"configuration": "Compile", "any_status": true, "failed_to_start": "any"},
			wantIDs: []string{"3", "2", "1"},
		},
		{
			name:    "limit",
			args:    map[string]any{"configuration": "Compile", "any_status": true, "limit": 1},
			wantIDs: []string{"2"},
		},
		{
			name:    "unknown configuration",
			args:    map[string]any{"configuration": "Nope"},
			wantIDs: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleListBuilds(context.Background(), callTool("list_builds", tt.args))
			if err != nil {
				t.Fatalf("handleListBuilds() error = %v", err)
			}
			if result.IsError {
				t.Fatalf("handleListBuilds() tool error: %s", resultText(t, result))
			}

			var response ListResponse
			if err := json.Unmarshal([]byte(resultText(t, result)), &response); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if response.Count != len(tt.wantIDs) {
				t.Fatalf("Count = %d, want %d", response.Count, len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if response.Builds[i].ID != id {
					t.Errorf("Builds[%d].ID = %s, want %s", i, response.Builds[i].ID, id)
				}
			}
			if !strings.Contains(response.Locator, "buildType:(id:") {
				t.Errorf("Locator = %q, want buildType dimension", response.Locator)
			}
		})
	}
}

func TestHandleListBuilds_InvalidArguments(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing configuration", args: map[string]any{}, want: "configuration parameter is required"},
		{name: "bad failed_to_start", args: map[string]any{"configuration": "Compile", "failed_to_start": "maybe"}, want: "invalid filter value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleListBuilds(context.Background(), callTool("list_builds", tt.args))
			if err != nil {
				t.Fatalf("handleListBuilds() error = %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestHandleGetBuild(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"1", s.client.ServerURL() + "/viewLog.html?buildId=1"} {
		t.Run(id, func(t *testing.T) {
			result, err := s.handleGetBuild(context.Background(), callTool("get_build", map[string]any{"id": id}))
			if err != nil {
				t.Fatalf("handleGetBuild() error = %v", err)
			}
			if result.IsError {
				t.Fatalf("handleGetBuild() tool error: %s", resultText(t, result))
			}

			var details BuildDetails
			if err := json.Unmarshal([]byte(resultText(t, result)), &details); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}

			if details.ID != "1" || details.Status != "SUCCESS" {
				t.Errorf("details = %+v", details)
			}
			if details.StatusText != "Tests passed: 10" {
				t.Errorf("StatusText = %q", details.StatusText)
			}
			if details.StartDate != "2024-05-14T10:01:00Z" || details.FinishDate != "2024-05-14T10:02:00Z" {
				t.Errorf("dates = %s, %s", details.StartDate, details.FinishDate)
			}
			if len(details.Revisions) != 1 {
				t.Fatalf("Revisions = %+v, want one", details.Revisions)
			}
			if rev := details.Revisions[0]; rev.Version != sha[:12] || rev.Branch != "main" || rev.VcsRoot != "git@example" {
				t.Errorf("revision = %+v", rev)
			}
		})
	}
}

func TestHandleGetBuild_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "missing", id: "", want: "id parameter is required"},
		{name: "unknown build", id: "404", want: "Build not found"},
		{name: "bad reference", id: "not a build", want: "Invalid build reference"},
		{name: "other server", id: "https://teamcity.example.com/viewLog.html?buildId=1", want: "different TeamCity server"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleGetBuild(context.Background(), callTool("get_build", map[string]any{"id": tt.id}))
			if err != nil {
				t.Fatalf("handleGetBuild() error = %v", err)
			}
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.want) {
				t.Errorf("error = %q, want %q", text, tt.want)
			}
		})
	}
}

func TestHandleLatestBuild(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		args       map[string]any
		wantID     string
		wantStatus string
		wantText   string
	}{
		{
			name:       "latest successful",
			args:       map[string]any{"configuration": "Compile"},
			wantID:     "1",
			wantStatus: "SUCCESS",
			wantText:   "Tests passed: 10",
		},
		{
			name:       "latest any status",
			args:       map[string]any{"configuration": "Compile", "any_status": true},
			wantID:     "2",
			wantStatus: "FAILURE",
			wantText:   "Tests failed: 1 (1 new)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.handleLatestBuild(context.Background(), callTool("latest_build", tt.args))
			if err != nil {
				t.Fatalf("handleLatestBuild() error = %v", err)
			}
			if result.IsError {
				t.Fatalf("handleLatestBuild() tool error: %s", resultText(t, result))
			}

			var details BuildDetails
			if err := json.Unmarshal([]byte(resultText(t, result)), &details); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if details.ID != tt.wantID || details.Status != tt.wantStatus {
				t.Errorf("latest = %s %s, want %s %s", details.ID, details.Status, tt.wantID, tt.wantStatus)
			}
			if details.StatusText != tt.wantText {
				t.Errorf("StatusText = %q, want %q", details.StatusText, tt.wantText)
			}
			if details.Revisions == nil {
				t.Error("Revisions should be an empty list, not null")
			}
		})
	}

	t.Run("empty configuration", func(t *testing.T) {
		result, err := s.handleLatestBuild(context.Background(), callTool("latest_build", map[string]any{"configuration": "Nope"}))
		if err != nil {
			t.Fatalf("handleLatestBuild() error = %v", err)
		}
		if !result.IsError {
			t.Fatal("expected tool error for configuration without builds")
		}
	})
}
