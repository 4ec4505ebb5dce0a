package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"teamcity-rest/src/provider"
	"teamcity-rest/src/sanitize"
	"teamcity-rest/src/teamcity"
)

// buildsLoadedMsg carries the result of running the locator.
type buildsLoadedMsg struct {
	builds []*teamcity.Build
	err    error
}

// detailsLoadedMsg carries the supplementary fields of one build.
type detailsLoadedMsg struct {
	id      teamcity.BuildID
	details *teamcity.Details
	err     error
}

// BrowserModel lists the builds matched by a locator and shows the details
// of the selected one below the list.
type BrowserModel struct {
	ctx     context.Context
	locator *teamcity.BuildLocator
	title   string

	list     list.Model
	delegate Delegate
	styles   *StyleConfig
	spinner  Spinner

	loading bool
	err     error

	details      map[teamcity.BuildID]*teamcity.Details
	detailErr    map[teamcity.BuildID]error
	detailScroll int

	width  int
	height int
}

// NewBrowserModel creates a browser over the builds matched by locator.
func NewBrowserModel(ctx context.Context, title string, locator *teamcity.BuildLocator) BrowserModel {
	styles := DefaultStyles()
	delegate := NewDelegateWithStyles(styles)

	l := list.New(nil, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)

	return BrowserModel{
		ctx:       ctx,
		locator:   locator,
		title:     title,
		list:      l,
		delegate:  delegate,
		styles:    styles,
		spinner:   NewSpinner(styles.PrimaryBlue),
		loading:   true,
		details:   make(map[teamcity.BuildID]*teamcity.Details),
		detailErr: make(map[teamcity.BuildID]error),
	}
}

// Init starts loading builds.
func (m BrowserModel) Init() tea.Cmd {
	return tea.Batch(m.loadBuilds(), m.spinner.Tick())
}

func (m BrowserModel) loadBuilds() tea.Cmd {
	ctx, locator := m.ctx, m.locator
	return func() tea.Msg {
		builds, err := locator.List(ctx)
		return buildsLoadedMsg{builds: builds, err: err}
	}
}

// fetchSelected loads details of the selected build unless they are cached.
func (m BrowserModel) fetchSelected() tea.Cmd {
	b := m.selected()
	if b == nil {
		return nil
	}
	if _, ok := m.details[b.ID]; ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		d, err := b.FetchDetails(ctx)
		return detailsLoadedMsg{id: b.ID, details: d, err: err}
	}
}

func (m BrowserModel) selected() *teamcity.Build {
	item, ok := m.list.SelectedItem().(Item)
	if !ok {
		return nil
	}
	return item.Build
}

// Update handles messages
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil

	case SpinnerTickMsg:
		if !m.loading {
			return m, nil
		}
		m.spinner = m.spinner.Advance()
		return m, m.spinner.Tick()

	case buildsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err != nil {
			return m, nil
		}
		items := make([]list.Item, len(msg.builds))
		for i, b := range msg.builds {
			items[i] = Item{Build: b}
		}
		cmd := m.list.SetItems(items)
		m.list.Select(0)
		m.detailScroll = 0
		return m, tea.Batch(cmd, m.fetchSelected())

	case detailsLoadedMsg:
		if msg.err != nil {
			m.detailErr[msg.id] = msg.err
			return m, nil
		}
		delete(m.detailErr, msg.id)
		m.details[msg.id] = msg.details
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m BrowserModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.err = nil
		m.details = make(map[teamcity.BuildID]*teamcity.Details)
		m.detailErr = make(map[teamcity.BuildID]error)
		return m, tea.Batch(m.loadBuilds(), m.spinner.Tick())
	}

	if m.loading || m.err != nil {
		return m, nil
	}

	before := m.list.Index()
	switch msg.String() {
	case "up", "k":
		m.list.CursorUp()
	case "down", "j":
		m.list.CursorDown()
	case "g", "home":
		m.list.Select(0)
	case "G", "end":
		if n := len(m.list.Items()); n > 0 {
			m.list.Select(n - 1)
		}
	case "d", "pgdown":
		if last := len(m.detailLines()) - m.detailHeight(); m.detailScroll < last {
			m.detailScroll++
		}
		return m, nil
	case "u", "pgup":
		if m.detailScroll > 0 {
			m.detailScroll--
		}
		return m, nil
	}

	if m.list.Index() != before {
		m.detailScroll = 0
		return m, m.fetchSelected()
	}
	return m, nil
}

// listHeight is the number of rows given to the build list.
func (m BrowserModel) listHeight() int {
	h := (m.height - 4) / 2
	if h < 1 {
		h = 1
	}
	return h
}

// detailHeight is the number of rows left for the detail pane.
func (m BrowserModel) detailHeight() int {
	h := m.height - m.listHeight() - 4
	if h < 1 {
		h = 1
	}
	return h
}

// View renders the browser
func (m BrowserModel) View() string {
	if m.height == 0 {
		return "Initializing..."
	}

	if m.loading {
		return m.spinner.View("Loading builds for "+m.locator.String()) + "\n"
	}

	if m.err != nil {
		msg := provider.WrapError(m.err).Error()
		return m.styles.FailureStyle().Render("Error: "+msg) + "\n\n" + m.styles.HelpStyle().Render("r: retry • q: quit") + "\n"
	}

	if len(m.list.Items()) == 0 {
		return fmt.Sprintf("No builds match %s.\n", m.locator.String())
	}

	var b strings.Builder
	b.WriteString(m.styles.TitleStyle().Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.list.View())
	b.WriteString("\n")
	b.WriteString(m.styles.DividerStyle().Render(strings.Repeat("─", m.width)))
	b.WriteString("\n")

	lines := m.detailLines()
	start := m.detailScroll
	if start > len(lines) {
		start = len(lines)
	}
	end := start + m.detailHeight()
	if end > len(lines) {
		end = len(lines)
	}
	for _, line := range lines[start:end] {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.styles.HelpStyle().Render("↑/k ↓/j: select • g/G: first/last • u/d: scroll details • r: reload • q: quit"))
	return b.String()
}

// detailLines renders the selected build's details, wrapped to the width.
func (m BrowserModel) detailLines() []string {
	build := m.selected()
	if build == nil {
		return nil
	}

	width := m.width - 2
	label := m.styles.LabelStyle()
	field := func(name, value string) string {
		return label.Render(fmt.Sprintf("%-11s", name)) + value
	}

	lines := []string{
		field("Build", fmt.Sprintf("#%s (id %s)", build.Number, build.ID)),
		field("Status", m.styles.StatusStyle(build.Status).Render(string(build.Status))),
	}
	if build.BranchName != "" {
		lines = append(lines, field("Branch", build.BranchName))
	}
	if build.FailedToStart {
		lines = append(lines, field("Note", "failed to start"))
	}
	if build.WebURL != "" {
		lines = append(lines, field("URL", build.WebURL))
	}

	if err, ok := m.detailErr[build.ID]; ok {
		return append(lines, "", m.styles.FailureStyle().Render(provider.WrapError(err).Error()))
	}
	d, ok := m.details[build.ID]
	if !ok {
		return append(lines, "", label.Render("Loading details..."))
	}

	for _, date := range []struct {
		name string
		t    time.Time
	}{
		{"Queued", d.QueuedDate},
		{"Started", d.StartDate},
		{"Finished", d.FinishDate},
	} {
		if !date.t.IsZero() {
			lines = append(lines, field(date.name, date.t.Format(time.RFC3339)))
		}
	}

	if text := sanitize.Clean(d.StatusText); text != "" {
		lines = append(lines, "")
		lines = append(lines, Wrap(text, width)...)
	}

	if len(d.Revisions) > 0 {
		lines = append(lines, "", label.Render("Revisions"))
		for _, r := range d.Revisions {
			rev := r.Version + "  " + r.VcsBranchName
			if r.VcsRoot.Name != "" {
				rev += "  (" + r.VcsRoot.Name + ")"
			}
			lines = append(lines, "  "+Truncate(rev, width-2, true))
		}
	}

	return lines
}

// Start runs the browser full screen until the user quits.
func Start(ctx context.Context, title string, locator *teamcity.BuildLocator) error {
	p := tea.NewProgram(NewBrowserModel(ctx, title, locator), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
