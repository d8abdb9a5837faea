package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/teamboard/internal/app"
	"github.com/dori/teamboard/internal/eventbus"
	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/notify"
	"github.com/dori/teamboard/internal/service"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
	"github.com/dori/teamboard/internal/ui/views"
)

const (
	refreshTimeout  = 2 * time.Minute
	mutationTimeout = 30 * time.Second
	toastTTL        = 5 * time.Second
	eventBuffer     = 64
)

// Loader refetches sections in the background
type Loader interface {
	Load(ctx context.Context, sections ...store.Section) service.Report
}

// Mutator applies status changes requested from the board
type Mutator interface {
	UpdateTask(ctx context.Context, taskID string, u service.TaskUpdate) (model.Task, error)
	UpdateProject(ctx context.Context, projectID string, u service.ProjectUpdate) (model.Project, error)
}

// Options tune the dashboard
type Options struct {
	View  View
	Theme string
}

// deps is everything the root model talks to
type deps struct {
	store    *store.Store
	bus      *eventbus.Bus
	notifier *notify.Notifier
	loader   Loader
	mutator  Mutator
	offline  bool
}

// RootModel is the main application model that manages views
type RootModel struct {
	deps
	keys   KeyMap
	help   help.Model
	width  int
	height int

	// events receives bus events and toasts from other goroutines
	events chan tea.Msg

	currentView  View
	workloadView views.WorkloadView
	kanbanView   views.KanbanView
	calendarView views.CalendarView
	statsView    views.StatsView
	helpVisible  bool

	refreshing bool
	toast      *notify.Toast
	toastSeq   int

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates the dashboard over a running application
func NewRootModel(a *app.App, opts Options) RootModel {
	if opts.Theme == "" {
		opts.Theme = a.Config.Theme
	}
	return newRootModel(deps{
		store:    a.Store,
		bus:      a.Bus,
		notifier: a.Notifier,
		loader:   a.Loader,
		mutator:  a.Mutator,
		offline:  a.Offline,
	}, opts)
}

func newRootModel(d deps, opts Options) RootModel {
	if t, ok := theme.ByName(opts.Theme); ok {
		theme.SetTheme(t)
	}

	h := help.New()
	h.ShowAll = false

	m := RootModel{
		deps:         d,
		keys:         DefaultKeyMap(),
		help:         h,
		events:       make(chan tea.Msg, eventBuffer),
		currentView:  opts.View,
		workloadView: views.NewWorkloadView(),
		kanbanView:   views.NewKanbanView(),
		calendarView: views.NewCalendarView(),
		statsView:    views.NewStatsView(),
	}
	m.subscribe()
	m.applySnapshot()
	return m
}

// subscribe forwards bus events and toasts into the events channel.
// Sends never block; a full channel already holds a pending refresh.
func (m RootModel) subscribe() {
	events := m.events
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}
	if m.bus != nil {
		m.bus.Subscribe(func(ev eventbus.Event) {
			switch ev.Topic {
			case eventbus.DataUpdated:
				send(DataUpdatedMsg{Source: ev.Source})
			case eventbus.FetchFailed:
				send(FetchFailedMsg{Section: ev.Source})
			}
		})
	}
	if m.notifier != nil {
		m.notifier.OnToast(func(t notify.Toast) {
			send(ToastMsg{Toast: t})
		})
	}
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// applySnapshot hands the latest snapshot to every view
func (m *RootModel) applySnapshot() {
	snap := m.store.Snapshot()
	m.workloadView = m.workloadView.SetSnapshot(snap)
	m.kanbanView = m.kanbanView.SetSnapshot(snap)
	m.calendarView = m.calendarView.SetSnapshot(snap)
	m.statsView = m.statsView.SetSnapshot(snap)
}

// Init starts listening for events and fetches everything once
func (m RootModel) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), m.refreshCmd())
}

// refreshCmd loads every section in the background
func (m RootModel) refreshCmd() tea.Cmd {
	if m.offline || m.loader == nil {
		return nil
	}
	loader := m.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		return RefreshDoneMsg{Report: loader.Load(ctx)}
	}
}

// refresh starts a refetch unless one is already running
func (m *RootModel) refresh() tea.Cmd {
	if m.offline {
		m.statusMsg = "Offline: showing cached data"
		return nil
	}
	if m.refreshing {
		return nil
	}
	cmd := m.refreshCmd()
	if cmd != nil {
		m.refreshing = true
		m.statusMsg = "Refreshing..."
	}
	return cmd
}

// moveCmd applies a status change requested from the board
func (m RootModel) moveCmd(req views.MoveRequestMsg) tea.Cmd {
	if m.mutator == nil {
		return nil
	}
	mutator := m.mutator
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		status := string(req.Status)
		var err error
		if req.Kind == model.EntityProject {
			_, err = mutator.UpdateProject(ctx, req.ID, service.ProjectUpdate{Status: &status})
		} else {
			_, err = mutator.UpdateTask(ctx, req.ID, service.TaskUpdate{Status: &status})
		}
		return MutationDoneMsg{Title: fmt.Sprintf("%s → %s", req.Title, req.Status.Label()), Err: err}
	}
}

func (m RootModel) isInputMode() bool {
	switch m.currentView {
	case ViewWorkload:
		return m.workloadView.IsInputMode()
	case ViewKanban:
		return m.kanbanView.IsInputMode()
	case ViewCalendar:
		return m.calendarView.IsInputMode()
	case ViewStats:
		return m.statsView.IsInputMode()
	}
	return false
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

		// Reserve space for header (1 line) and footer (up to 3 lines)
		contentHeight := m.height - 4
		m.workloadView = m.workloadView.SetSize(m.width, contentHeight)
		m.kanbanView = m.kanbanView.SetSize(m.width, contentHeight)
		m.calendarView = m.calendarView.SetSize(m.width, contentHeight)
		m.statsView = m.statsView.SetSize(m.width, contentHeight)
		return m, nil

	case DataUpdatedMsg:
		m.applySnapshot()
		return m, waitForEvent(m.events)

	case FetchFailedMsg:
		m.errorMsg = fmt.Sprintf("Could not refresh %s", msg.Section)
		return m, waitForEvent(m.events)

	case ToastMsg:
		t := msg.Toast
		m.toast = &t
		m.toastSeq++
		seq := m.toastSeq
		return m, tea.Batch(
			waitForEvent(m.events),
			tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{seq: seq} }),
		)

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case RefreshDoneMsg:
		m.refreshing = false
		if err := msg.Report.Err(); err != nil {
			m.statusMsg = ""
			m.errorMsg = err.Error()
		} else {
			m.statusMsg = fmt.Sprintf("Refreshed %d sections", len(msg.Report.Loaded))
		}
		return m, nil

	case MutationDoneMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		} else {
			m.statusMsg = msg.Title
		}
		return m, nil

	case views.MoveRequestMsg:
		m.statusMsg = fmt.Sprintf("Moving %s...", msg.Title)
		return m, m.moveCmd(msg)

	case tea.FocusMsg:
		return m, m.refresh()

	case ErrorMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case StatusMsg:
		m.statusMsg = msg.Message
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""

		isInputMode := m.isInputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not in input mode
			if msg.String() == "ctrl+c" || !isInputMode {
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.ThemeCycle):
			m.cycleTheme()
			return m, nil
		}

		if isInputMode {
			break
		}

		if m.helpVisible {
			if key.Matches(msg, m.keys.Help, m.keys.Back) {
				m.helpVisible = false
				m.help.ShowAll = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Help):
			m.helpVisible = true
			m.help.ShowAll = true
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		case key.Matches(msg, m.keys.WorkloadView):
			m.currentView = ViewWorkload
			return m, nil
		case key.Matches(msg, m.keys.KanbanView):
			m.currentView = ViewKanban
			return m, nil
		case key.Matches(msg, m.keys.CalendarView):
			m.currentView = ViewCalendar
			return m, nil
		case key.Matches(msg, m.keys.StatsView):
			m.currentView = ViewStats
			return m, nil
		}
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch m.currentView {
	case ViewWorkload:
		var next tea.Model
		next, cmd = m.workloadView.Update(msg)
		m.workloadView = next.(views.WorkloadView)
	case ViewKanban:
		var next tea.Model
		next, cmd = m.kanbanView.Update(msg)
		m.kanbanView = next.(views.KanbanView)
	case ViewCalendar:
		var next tea.Model
		next, cmd = m.calendarView.Update(msg)
		m.calendarView = next.(views.CalendarView)
	case ViewStats:
		var next tea.Model
		next, cmd = m.statsView.Update(msg)
		m.statsView = next.(views.StatsView)
	}
	return m, cmd
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	footer := m.renderFooter()
	contentHeight := m.height - 1 - lipgloss.Height(footer)

	var content string
	if m.helpVisible {
		content = m.renderHelp()
	} else {
		switch m.currentView {
		case ViewWorkload:
			content = m.workloadView.View()
		case ViewKanban:
			content = m.kanbanView.View()
		case ViewCalendar:
			content = m.calendarView.View()
		case ViewStats:
			content = m.statsView.View()
		default:
			content = theme.Current.Styles.Panel.Render("View not implemented")
		}
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}

	return strings.Join([]string{m.renderHeader(), content, footer}, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("teamboard")

	viewStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		Padding(0, 1)
	viewIndicator := viewStyle.Render(fmt.Sprintf("[%s]", m.currentView))

	var right []string
	switch {
	case m.offline:
		right = append(right, lipgloss.NewStyle().Foreground(t.Warning).Padding(0, 1).Render("offline"))
	case m.refreshing:
		right = append(right, lipgloss.NewStyle().Foreground(t.Info).Padding(0, 1).Render("syncing"))
	}
	right = append(right, viewStyle.Render(fmt.Sprintf("theme: %s", t.Name)))

	leftSide := lipgloss.JoinHorizontal(lipgloss.Center, title, viewIndicator)
	rightSide := lipgloss.JoinHorizontal(lipgloss.Center, right...)

	gap := m.width - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if gap < 0 {
		gap = 0
	}
	return leftSide + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the toast, the status line and the key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	var lines []string

	if m.toast != nil {
		mark, color := "✓", t.Success
		if m.toast.Failure {
			mark, color = "✗", t.Error
		}
		text := mark + " " + m.toast.Title
		if m.toast.Body != "" {
			text += ": " + m.toast.Body
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(color).Render(truncateLine(text, m.width)))
	}

	if m.errorMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Error).Render(truncateLine(m.errorMsg, m.width)))
	} else if m.statusMsg != "" {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Info).Render(truncateLine(m.statusMsg, m.width)))
	}

	m.help.Styles.ShortKey = styles.HelpKey
	m.help.Styles.ShortDesc = styles.HelpDesc
	m.help.Styles.ShortSeparator = styles.HelpSeparator
	lines = append(lines, m.help.ShortHelpView([]key.Binding{
		m.keys.WorkloadView, m.keys.KanbanView, m.keys.CalendarView, m.keys.StatsView,
		m.keys.Refresh, m.keys.ThemeCycle, m.keys.Help, m.keys.Quit,
	}))

	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	t := theme.Current.Theme

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		MarginTop(1)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Foreground).
		Bold(true).
		Width(12)
	descStyle := lipgloss.NewStyle().
		Foreground(t.Subtle)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Teamboard Help"))
	b.WriteString("\n\n")

	section := func(name string, keys [][]string) {
		b.WriteString(sectionStyle.Render(name))
		b.WriteString("\n")
		for _, kv := range keys {
			b.WriteString(keyStyle.Render(kv[0]))
			b.WriteString(descStyle.Render(kv[1]))
			b.WriteString("\n")
		}
	}

	section("Global", [][]string{
		{"1-4", "Workload, kanban, calendar, stats"},
		{"r", "Refetch everything"},
		{"ctrl+t", "Cycle theme"},
		{"?", "Toggle this help"},
		{"q / ctrl+c", "Quit"},
	})
	section("Workload", [][]string{
		{"tab", "Users / groups"},
		{"p", "Tasks / projects"},
		{"j/k", "Select row"},
	})
	section("Kanban", [][]string{
		{"h/l j/k", "Navigate"},
		{"H/L", "Move to previous/next status"},
		{"/", "Search titles and descriptions"},
		{"p", "Tasks / projects"},
	})
	section("Calendar", [][]string{
		{"h/j/k/l", "Navigate days"},
		{"H/L", "Change month"},
		{"t", "Today"},
		{"p", "Tasks / projects / both"},
	})
	section("Stats", [][]string{
		{"b", "Day / month buckets"},
		{"f", "Date field"},
		{"p", "Tasks / projects"},
	})

	b.WriteString("\n")
	b.WriteString(descStyle.Render("Press ? or esc to close"))
	return b.String()
}

// cycleTheme switches to the next available theme
func (m *RootModel) cycleTheme() {
	next := theme.Next()
	theme.SetTheme(next)
	m.statusMsg = fmt.Sprintf("Theme: %s", next.Name)
}
