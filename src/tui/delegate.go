package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	numberWidth = 10
	statusWidth = 7
	idWidth     = 10
	// separators between the four columns plus the cursor marker
	rowOverhead = 3*3 + 2
)

// Delegate renders builds as table rows.
type Delegate struct {
	styles *StyleConfig
}

// NewDelegate creates a new build row delegate with default styles
func NewDelegate() Delegate {
	return Delegate{styles: DefaultStyles()}
}

// NewDelegateWithStyles creates a new delegate with custom styles
func NewDelegateWithStyles(styles *StyleConfig) Delegate {
	return Delegate{styles: styles}
}

// Height returns the height of a list item
func (d Delegate) Height() int {
	return 1
}

// Spacing returns spacing between items
func (d Delegate) Spacing() int {
	return 0
}

// Update handles item updates
func (d Delegate) Update(msg tea.Msg, m *list.Model) tea.Cmd {
	return nil
}

// Row formats a build as a table row of the given total width, without styling.
func (d Delegate) Row(item Item, width int) string {
	b := item.Build

	branch := b.BranchName
	if b.FailedToStart {
		branch = "(failed to start) " + branch
	}

	branchWidth := width - numberWidth - statusWidth - idWidth - rowOverhead
	if branchWidth < 0 {
		branchWidth = 0
	}

	return fmt.Sprintf("%s │ %s │ %s │ %s",
		TruncateAndPad("#"+b.Number, numberWidth, true),
		TruncateAndPad(string(b.Status), statusWidth, false),
		TruncateAndPad(string(b.ID), idWidth, true),
		TruncateAndPad(branch, branchWidth, true),
	)
}

// Render renders a list item
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	entry, ok := item.(Item)
	if !ok {
		return
	}

	row := d.Row(entry, m.Width())

	marker := "  "
	style := lipgloss.NewStyle().Foreground(d.styles.StatusColor(entry.Build.Status))
	if index == m.Index() {
		marker = "► "
		style = style.Bold(true).Background(d.styles.SelectedColor)
	}

	fmt.Fprint(w, marker+style.Render(row))
}
