package tui

import (
	"github.com/charmbracelet/lipgloss"

	"teamcity-rest/src/teamcity"
)

// StyleConfig holds all customizable style colors for the build browser.
type StyleConfig struct {
	PrimaryBlue   lipgloss.Color
	TextPrimary   lipgloss.Color
	TextSecondary lipgloss.Color
	BorderColor   lipgloss.Color
	SelectedColor lipgloss.Color

	// Build status colors
	SuccessColor lipgloss.Color
	FailureColor lipgloss.Color
	ErrorColor   lipgloss.Color
	UnknownColor lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:   lipgloss.Color("#8AB4F8"),
		TextPrimary:   lipgloss.Color("#E8EAED"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		BorderColor:   lipgloss.Color("#5F6368"),
		SelectedColor: lipgloss.Color("#303134"),
		SuccessColor:  lipgloss.Color("#34A853"),
		FailureColor:  lipgloss.Color("#EA4335"),
		ErrorColor:    lipgloss.Color("#FBBC04"),
		UnknownColor:  lipgloss.Color("#9AA0A6"),
	}
}

// StatusColor returns the color for a build status.
func (s *StyleConfig) StatusColor(status teamcity.BuildStatus) lipgloss.Color {
	switch status {
	case teamcity.StatusSuccess:
		return s.SuccessColor
	case teamcity.StatusFailure:
		return s.FailureColor
	case teamcity.StatusError:
		return s.ErrorColor
	default:
		return s.UnknownColor
	}
}

// StatusStyle renders a build status in its color.
func (s *StyleConfig) StatusStyle(status teamcity.BuildStatus) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.StatusColor(status)).Bold(true)
}

// TitleStyle returns a title lipgloss style using this config
func (s *StyleConfig) TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HeaderStyle returns the column header style
func (s *StyleConfig) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.PrimaryBlue).
		Bold(true).
		Padding(0, 1)
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// DividerStyle returns the style of the list/detail divider
func (s *StyleConfig) DividerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.BorderColor)
}

// LabelStyle returns the style of detail field labels
func (s *StyleConfig) LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.TextSecondary)
}

// FailureStyle returns the style used for error messages
func (s *StyleConfig) FailureStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.FailureColor)
}
