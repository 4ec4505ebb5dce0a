package provider

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"teamcity-rest/src/teamcity"
)

func TestWrapError_InvalidURL(t *testing.T) {
	err := fmt.Errorf("%w: https://invalid.com", ErrInvalidURL)
	wrapped := WrapError(err)

	userErr, ok := wrapped.(*UserError)
	if !ok {
		t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
	}

	if userErr.Message != "Invalid build reference" {
		t.Errorf("Message = %q, want %q", userErr.Message, "Invalid build reference")
	}

	for _, want := range []string{"Supported formats", "viewLog.html", "buildConfiguration"} {
		if !strings.Contains(userErr.Hint, want) {
			t.Errorf("Hint should contain %q, got %q", want, userErr.Hint)
		}
	}

	if !errors.Is(wrapped, ErrInvalidURL) {
		t.Error("errors.Is(wrapped, ErrInvalidURL) = false, want true")
	}
}

func TestWrapError_TeamCityErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantHint string
		sentinel error
	}{
		{
			name:     "auth sentinel",
			err:      teamcity.ErrAuthFailed,
			wantMsg:  "Authentication failed",
			wantHint: "TEAMCITY_TOKEN",
			sentinel: teamcity.ErrAuthFailed,
		},
		{
			name:     "401 server error",
			err:      fmt.Errorf("failed to list builds: %w", &teamcity.ServerError{StatusCode: 401, Method: "GET", URL: "http://tc"}),
			wantMsg:  "Authentication failed",
			wantHint: "TEAMCITY_USERNAME",
			sentinel: teamcity.ErrAuthFailed,
		},
		{
			name:     "404 server error",
			err:      fmt.Errorf("failed to fetch build 7: %w", &teamcity.ServerError{StatusCode: 404, Method: "GET", URL: "http://tc"}),
			wantMsg:  "Build not found",
			wantHint: "you have access",
			sentinel: teamcity.ErrNotFound,
		},
		{
			name:     "ambiguous",
			err:      fmt.Errorf("since build: %w", teamcity.ErrAmbiguousResult),
			wantMsg:  "Build reference matches several builds",
			wantHint: "--config",
			sentinel: teamcity.ErrAmbiguousResult,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			userErr, ok := wrapped.(*UserError)
			if !ok {
				t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
			}
			if userErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", userErr.Message, tt.wantMsg)
			}
			if !strings.Contains(userErr.Hint, tt.wantHint) {
				t.Errorf("Hint should contain %q, got %q", tt.wantHint, userErr.Hint)
			}
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", tt.sentinel)
			}
		})
	}
}

func TestWrapError_ServerMismatch(t *testing.T) {
	ref := BuildRef{Server: "https://teamcity.jetbrains.com", BuildID: "5"}
	wrapped := WrapError(ref.CheckServer("https://tc.example.com"))

	userErr, ok := wrapped.(*UserError)
	if !ok {
		t.Fatalf("WrapError() returned %T, want *UserError", wrapped)
	}
	if !strings.Contains(userErr.Hint, "TEAMCITY_URL") {
		t.Errorf("Hint should mention TEAMCITY_URL, got %q", userErr.Hint)
	}
	if !errors.Is(wrapped, ErrServerMismatch) {
		t.Error("errors.Is(wrapped, ErrServerMismatch) = false, want true")
	}
}

func TestWrapError_OtherErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "generic error",
			err:  errors.New("something went wrong"),
		},
		{
			name: "500 server error",
			err:  &teamcity.ServerError{StatusCode: 500, Method: "GET", URL: "http://tc", Body: "boom"},
		},
		{
			name: "400 without ambiguity",
			err:  &teamcity.ServerError{StatusCode: 400, Method: "GET", URL: "http://tc", Body: "Invalid dimension"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapError(tt.err)

			// Should return the original error unchanged
			if wrapped != tt.err {
				t.Errorf("WrapError() = %v, want original error %v", wrapped, tt.err)
			}
		})
	}
}

func TestWrapError_NilError(t *testing.T) {
	if wrapped := WrapError(nil); wrapped != nil {
		t.Errorf("WrapError(nil) = %v, want nil", wrapped)
	}
}

func TestUserError_Error(t *testing.T) {
	tests := []struct {
		name     string
		userErr  *UserError
		wantMsg  string
		wantHint string
		wantErr  string
	}{
		{
			name: "message only",
			userErr: &UserError{
				Message: "Something went wrong",
			},
			wantMsg: "Something went wrong",
		},
		{
			name: "message with hint",
			userErr: &UserError{
				Message: "Something went wrong",
				Hint:    "Try doing this instead",
			},
			wantMsg:  "Something went wrong",
			wantHint: "Hint: Try doing this instead",
		},
		{
			name: "message with underlying error",
			userErr: &UserError{
				Message: "Something went wrong",
				Err:     errors.New("original error"),
			},
			wantMsg: "Something went wrong",
			wantErr: "Details: original error",
		},
		{
			name: "message with hint and error",
			userErr: &UserError{
				Message: "Something went wrong",
				Hint:    "Try doing this instead",
				Err:     errors.New("original error"),
			},
			wantMsg:  "Something went wrong",
			wantHint: "Hint: Try doing this instead",
			wantErr:  "Details: original error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.userErr.Error()

			if !strings.Contains(got, tt.wantMsg) {
				t.Errorf("Error() should contain %q, got %q", tt.wantMsg, got)
			}

			if tt.wantHint != "" && !strings.Contains(got, tt.wantHint) {
				t.Errorf("Error() should contain %q, got %q", tt.wantHint, got)
			}

			if tt.wantErr != "" && !strings.Contains(got, tt.wantErr) {
				t.Errorf("Error() should contain %q, got %q", tt.wantErr, got)
			}

			// Check order: Message first
			msgIdx := strings.Index(got, tt.wantMsg)
			if msgIdx != 0 {
				t.Errorf("Message should be at start, found at index %d", msgIdx)
			}

			// If hint exists, it should come after message
			if tt.wantHint != "" {
				hintIdx := strings.Index(got, tt.wantHint)
				if hintIdx <= msgIdx {
					t.Errorf("Hint should come after Message, got hint at %d, msg at %d", hintIdx, msgIdx)
				}
			}

			// If error exists, it should come after hint (if present) or message
			if tt.wantErr != "" {
				errIdx := strings.Index(got, tt.wantErr)
				if tt.wantHint != "" {
					hintIdx := strings.Index(got, tt.wantHint)
					if errIdx <= hintIdx {
						t.Errorf("Details should come after Hint, got details at %d, hint at %d", errIdx, hintIdx)
					}
				} else if errIdx <= msgIdx {
					t.Errorf("Details should come after Message, got details at %d, msg at %d", errIdx, msgIdx)
				}
			}
		})
	}
}

func TestUserError_Unwrap(t *testing.T) {
	tests := []struct {
		name    string
		userErr *UserError
		want    error
	}{
		{
			name: "with underlying error",
			userErr: &UserError{
				Message: "Something went wrong",
				Err:     teamcity.ErrAuthFailed,
			},
			want: teamcity.ErrAuthFailed,
		},
		{
			name: "without underlying error",
			userErr: &UserError{
				Message: "Something went wrong",
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.userErr.Unwrap()

			if got != tt.want {
				t.Errorf("Unwrap() = %v, want %v", got, tt.want)
			}

			// Test that errors.Is works correctly
			if tt.want != nil {
				if !errors.Is(tt.userErr, tt.want) {
					t.Errorf("errors.Is(userErr, %v) = false, want true", tt.want)
				}
			}
		})
	}
}
