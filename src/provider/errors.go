package provider

import (
	"errors"
	"fmt"

	"teamcity-rest/src/teamcity"
)

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts client errors to user-friendly messages
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInvalidURL) {
		return &UserError{
			Message: "Invalid build reference",
			Hint:    "Supported formats:\n  - a numeric build id, e.g. 4821\n  - https://teamcity.example.com/viewLog.html?buildId=4821\n  - https://teamcity.example.com/buildConfiguration/Project_Build/4821",
			Err:     err,
		}
	}

	if errors.Is(err, ErrServerMismatch) {
		return &UserError{
			Message: "Build URL belongs to a different TeamCity server",
			Hint:    "Point TEAMCITY_URL at the server in the URL, or pass the build id instead.",
			Err:     err,
		}
	}

	if errors.Is(err, teamcity.ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check your TeamCity credentials and their permissions.\n  - Token: set TEAMCITY_TOKEN\n  - Basic auth: set TEAMCITY_USERNAME and TEAMCITY_PASSWORD\n  - Unset both to use guest access",
			Err:     err,
		}
	}

	if errors.Is(err, teamcity.ErrAmbiguousResult) {
		return &UserError{
			Message: "Build reference matches several builds",
			Hint:    "Build numbers are only unique within a build configuration. Pass --config or use a build id.",
			Err:     err,
		}
	}

	if errors.Is(err, teamcity.ErrNotFound) {
		return &UserError{
			Message: "Build not found",
			Hint:    "Check that the build id or configuration is correct and that you have access to the project.",
			Err:     err,
		}
	}

	return err
}
