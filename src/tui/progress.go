package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner frames for the loading animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 100 * time.Millisecond

// SpinnerTickMsg triggers spinner animation frame advance
type SpinnerTickMsg time.Time

// Spinner is shown while a request is in flight.
type Spinner struct {
	frame int
	style lipgloss.Style
}

// NewSpinner creates a spinner rendered in color.
func NewSpinner(color lipgloss.Color) Spinner {
	return Spinner{style: lipgloss.NewStyle().Foreground(color).Bold(true)}
}

// Tick schedules the next frame.
func (s Spinner) Tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(t time.Time) tea.Msg {
		return SpinnerTickMsg(t)
	})
}

// Advance moves to the next frame.
func (s Spinner) Advance() Spinner {
	s.frame = (s.frame + 1) % len(spinnerFrames)
	return s
}

// View renders the current frame followed by label.
func (s Spinner) View(label string) string {
	return s.style.Render(spinnerFrames[s.frame]) + " " + label
}
