package tui

import "teamcity-rest/src/teamcity"

// Item wraps a build and implements bubbles/list.Item.
type Item struct {
	Build *teamcity.Build
}

// FilterValue is the value used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Build.Number + " " + i.Build.BranchName }

// Title returns the primary text for the item (required by list.Item).
func (i Item) Title() string { return "#" + i.Build.Number }

// Description returns the secondary text for the item (required by list.Item).
func (i Item) Description() string { return string(i.Build.Status) }
