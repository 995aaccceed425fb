package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Riesling1623/honeydash/internal/adapter/external/analysisapi"
	"github.com/Riesling1623/honeydash/internal/entity"
	"github.com/Riesling1623/honeydash/internal/usecase/dashboard"
	"github.com/Riesling1623/honeydash/internal/usecase/export"
)

const defaultNoticeTTL = 5 * time.Second

// Fetcher loads the dataset of a date range
type Fetcher interface {
	FetchAnalysis(ctx context.Context, startDate, endDate string) (*entity.Dataset, error)
}

// ExportFunc writes the sessions of a range somewhere and returns where
type ExportFunc func(sessions []entity.Session, startDate, endDate string) (string, error)

// Options configures the dashboard model
type Options struct {
	StartDate string
	EndDate   string
	// NoticeTTL is how long error and success notices stay on screen
	NoticeTTL time.Duration
	// Export defaults to writing an XLSX file in the working directory
	Export ExportFunc
}

type viewMode int

const (
	viewOverview viewMode = iota
	viewSessions
)

type focusField int

const (
	focusNone focusField = iota
	focusSearch
	focusStartDate
	focusEndDate
)

type notice struct {
	id      int
	text    string
	isError bool
}

type datasetLoadedMsg struct {
	ds        *entity.Dataset
	startDate string
	endDate   string
}

type loadFailedMsg struct{ err error }

type exportDoneMsg struct{ path string }

type exportFailedMsg struct{ err error }

type noticeExpiredMsg struct{ id int }

// Model is the Bubble Tea model of the interactive dashboard
type Model struct {
	fetcher Fetcher
	opts    Options
	state   *dashboard.State

	table      table.Model
	overview   viewport.Model
	search     textinput.Model
	startInput textinput.Model
	endInput   textinput.Model
	help       help.Model

	mode       viewMode
	focus      focusField
	detailID   string
	detailKind dashboard.DetailKind

	// loading guards against a second fetch while one is outstanding
	loading     bool
	loadedStart string
	loadedEnd   string

	notice    *notice
	noticeSeq int

	width  int
	height int
}

// NewModel creates a dashboard that loads opts' date range on start
func NewModel(fetcher Fetcher, opts Options) Model {
	if opts.NoticeTTL <= 0 {
		opts.NoticeTTL = defaultNoticeTTL
	}
	if opts.Export == nil {
		opts.Export = func(sessions []entity.Session, startDate, endDate string) (string, error) {
			return export.WriteFile(".", startDate, endDate, sessions)
		}
	}

	state := dashboard.NewState()

	columns := []table.Column{
		{Title: "Session ID", Width: 15},
		{Title: "IP Address", Width: 15},
		{Title: "Username", Width: 12},
		{Title: "Password", Width: 18},
		{Title: "Status", Width: 8},
		{Title: "Cmds", Width: 5},
		{Title: "Dang", Width: 5},
		{Title: "DL", Width: 4},
		{Title: "Timestamp", Width: 19},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(state.PageSize()+1),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "session id, username or command"
	search.CharLimit = 128

	startInput := textinput.New()
	startInput.Prompt = "Start: "
	startInput.Placeholder = "YYYY-MM-DD"
	startInput.CharLimit = 10
	startInput.SetValue(opts.StartDate)

	endInput := textinput.New()
	endInput.Prompt = "End: "
	endInput.Placeholder = "YYYY-MM-DD"
	endInput.CharLimit = 10
	endInput.SetValue(opts.EndDate)

	return Model{
		fetcher:    fetcher,
		opts:       opts,
		state:      state,
		table:      t,
		overview:   viewport.New(80, 20),
		search:     search,
		startInput: startInput,
		endInput:   endInput,
		help:       help.New(),
		detailKind: dashboard.DetailCommands,
		loading:    true,
	}
}

// Init starts the first load
func (m Model) Init() tea.Cmd {
	return m.fetchCmd()
}

// State exposes the view state, mainly for tests and the sessions command
func (m Model) State() *dashboard.State {
	return m.state
}

func (m Model) fetchCmd() tea.Cmd {
	fetcher := m.fetcher
	start, end := m.startInput.Value(), m.endInput.Value()
	return func() tea.Msg {
		ds, err := fetcher.FetchAnalysis(context.Background(), start, end)
		if err != nil {
			return loadFailedMsg{err: err}
		}
		return datasetLoadedMsg{ds: ds, startDate: start, endDate: end}
	}
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	m.loading = true
	return m, m.fetchCmd()
}

func (m Model) exportCmd() tea.Cmd {
	ds := m.state.Dataset()
	exportFn, start, end := m.opts.Export, m.loadedStart, m.loadedEnd
	return func() tea.Msg {
		path, err := exportFn(ds.Sessions, start, end)
		if err != nil {
			return exportFailedMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

func (m Model) setNotice(text string, isError bool) (tea.Model, tea.Cmd) {
	m.noticeSeq++
	id := m.noticeSeq
	m.notice = &notice{id: id, text: text, isError: isError}
	return m, tea.Tick(m.opts.NoticeTTL, func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: id}
	})
}

// loadErrorText turns a fetch failure into the text shown to the user
func loadErrorText(err error) string {
	var validation *analysisapi.ValidationError
	var application *analysisapi.ApplicationError
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &application):
		return application.Message
	default:
		return "Error loading data: " + err.Error()
	}
}

func (m *Model) syncTable() {
	rows := make([]table.Row, 0, m.state.PageSize())
	for _, s := range m.state.PageRows() {
		rows = append(rows, sessionRow(s))
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m *Model) syncOverview() {
	m.overview.SetContent(renderOverview(m.state.Dataset(), m.overview.Width))
}

func (m Model) selectedSessionID() (string, bool) {
	rows := m.state.PageRows()
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		return "", false
	}
	return rows[i].SessionID, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetWidth(msg.Width)
		m.overview.Width = msg.Width
		m.overview.Height = max(msg.Height-10, 5)
		m.syncOverview()
		return m, nil

	case datasetLoadedMsg:
		m.loading = false
		m.loadedStart = analysisapi.NormalizeDate(msg.startDate)
		m.loadedEnd = analysisapi.NormalizeDate(msg.endDate)
		m.detailID = ""
		m.state.Load(msg.ds)
		m.search.SetValue("")
		m.syncTable()
		m.syncOverview()
		return m.setNotice(fmt.Sprintf("Loaded %d sessions", len(msg.ds.Sessions)), false)

	case loadFailedMsg:
		m.loading = false
		return m.setNotice(loadErrorText(msg.err), true)

	case exportDoneMsg:
		return m.setNotice("Exported to "+msg.path, false)

	case exportFailedMsg:
		return m.setNotice("Export failed: "+msg.err.Error(), true)

	case noticeExpiredMsg:
		if m.notice != nil && m.notice.id == msg.id {
			m.notice = nil
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusSearch:
			return m.updateSearch(msg)
		case focusStartDate, focusEndDate:
			return m.updateDates(msg)
		}
		if m.detailID != "" {
			return m.updateDetails(msg)
		}
		return m.updateKeys(msg)
	}

	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Reload):
		return m.reload()

	case key.Matches(msg, keys.Tab):
		if m.mode == viewOverview {
			m.mode = viewSessions
		} else {
			m.mode = viewOverview
		}
		return m, nil

	case key.Matches(msg, keys.Dates):
		m.focus = focusStartDate
		return m, m.startInput.Focus()

	case key.Matches(msg, keys.Export):
		if m.state.Dataset() == nil {
			return m.setNotice("No data to export. Load a date range first.", true)
		}
		return m, m.exportCmd()

	case key.Matches(msg, keys.Search):
		m.mode = viewSessions
		m.focus = focusSearch
		return m, m.search.Focus()

	case key.Matches(msg, keys.IPFilter):
		m.mode = viewSessions
		m.state.SetIPFilter(m.state.NextIPOption())
		m.syncTable()
		return m, nil
	}

	if m.mode == viewOverview {
		var cmd tea.Cmd
		m.overview, cmd = m.overview.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.PrevPage):
		if m.state.PrevPage() {
			m.syncTable()
		}
		return m, nil

	case key.Matches(msg, keys.NextPage):
		if m.state.NextPage() {
			m.syncTable()
		}
		return m, nil

	case key.Matches(msg, keys.Details):
		if id, ok := m.selectedSessionID(); ok {
			m.detailID = id
			m.detailKind = dashboard.DetailCommands
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.focus = focusNone
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.state.Search() {
		m.state.SetSearch(m.search.Value())
		m.syncTable()
	}
	return m, cmd
}

func (m Model) updateDates(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusNone
		m.startInput.Blur()
		m.endInput.Blur()
		return m, nil
	case tea.KeyTab:
		if m.focus == focusStartDate {
			m.focus = focusEndDate
			m.startInput.Blur()
			return m, m.endInput.Focus()
		}
		m.focus = focusStartDate
		m.endInput.Blur()
		return m, m.startInput.Focus()
	case tea.KeyEnter:
		m.focus = focusNone
		m.startInput.Blur()
		m.endInput.Blur()
		return m.reload()
	}

	var cmd tea.Cmd
	if m.focus == focusStartDate {
		m.startInput, cmd = m.startInput.Update(msg)
	} else {
		m.endInput, cmd = m.endInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.detailID = ""
	case "1":
		m.detailKind = dashboard.DetailCommands
	case "2":
		m.detailKind = dashboard.DetailDangerousCommands
	case "3":
		m.detailKind = dashboard.DetailDownloads
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	title := "SSH Honeypot Dashboard"
	if m.loadedStart != "" {
		title += fmt.Sprintf("  %s → %s", m.loadedStart, m.loadedEnd)
	}
	if m.loading {
		title += "  (loading...)"
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	overviewTab, sessionsTab := activeTabStyle, tabStyle
	if m.mode == viewSessions {
		overviewTab, sessionsTab = tabStyle, activeTabStyle
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		overviewTab.Render("Overview"), sessionsTab.Render("Sessions")))
	b.WriteString("\n")

	if m.notice != nil {
		style := successNoticeStyle
		if m.notice.isError {
			style = errorNoticeStyle
		}
		b.WriteString(style.Render(m.notice.text))
		b.WriteString("\n")
	}

	if m.focus == focusStartDate || m.focus == focusEndDate {
		b.WriteString(m.startInput.View() + "   " + m.endInput.View())
		b.WriteString(mutedStyle.Render("   tab switch · enter load · esc cancel"))
		b.WriteString("\n")
	}

	b.WriteString(renderSummary(m.state.Summary()))
	b.WriteString("\n")

	if m.mode == viewOverview {
		b.WriteString(m.overview.View())
	} else {
		b.WriteString(m.sessionsView())
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

func (m Model) sessionsView() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("IP filter: %s   ", m.state.IPFilter()))
	if m.focus == focusSearch || m.search.Value() != "" {
		b.WriteString(m.search.View())
	}
	b.WriteString("\n")

	if len(m.state.Filtered()) == 0 {
		b.WriteString(mutedStyle.Render("No sessions match the current filters"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString(m.state.PageLabel())

	if m.detailID != "" {
		if details, ok := m.state.Details(m.detailID, m.detailKind); ok {
			b.WriteString("\n")
			b.WriteString(paneStyle.Render(renderDetails(details)))
		}
	}
	return b.String()
}

func renderDetails(d dashboard.Details) string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(d.Title))
	b.WriteString("\n")
	if len(d.Items) == 0 {
		b.WriteString(mutedStyle.Render("None"))
	}
	for i, item := range d.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString(mutedStyle.Render("\n1 commands · 2 dangerous · 3 downloads · esc close"))
	return b.String()
}

// Run starts the interactive dashboard and blocks until the user quits
func Run(ctx context.Context, fetcher Fetcher, opts Options) error {
	p := tea.NewProgram(NewModel(fetcher, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
