package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
)

// WorkloadView lists per-user or per-group workload
type WorkloadView struct {
	width  int
	height int
	snap   *store.Snapshot

	showGroups bool
	projects   bool
	cursor     int

	users  []reconcile.UserWorkload
	groups []reconcile.GroupWorkload
}

// NewWorkloadView creates a new workload view
func NewWorkloadView() WorkloadView {
	return WorkloadView{}
}

// Init initializes the workload view
func (v WorkloadView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v WorkloadView) SetSize(width, height int) WorkloadView {
	v.width = width
	v.height = height
	return v
}

// SetSnapshot recomputes the workload from snap
func (v WorkloadView) SetSnapshot(snap *store.Snapshot) WorkloadView {
	v.snap = snap
	return v.recompute()
}

// ShowGroups reports whether the group table is shown
func (v WorkloadView) ShowGroups() bool { return v.showGroups }

func (v WorkloadView) recompute() WorkloadView {
	v.users, v.groups = nil, nil
	if v.snap == nil || v.snap.Ready(itemSections(v.projects)...) != nil {
		return v
	}
	s := v.snap
	if v.projects {
		v.users = reconcile.PerUserWorkload(s.Users, s.Projects, s.Index)
		v.groups = reconcile.PerGroupWorkload(s.Groups, s.Projects, s.Index)
	} else {
		v.users = reconcile.PerUserWorkload(s.Users, s.Tasks, s.Index)
		v.groups = reconcile.PerGroupWorkload(s.Groups, s.Tasks, s.Index)
	}
	v.clampCursor()
	return v
}

func (v WorkloadView) rowCount() int {
	if v.showGroups {
		return len(v.groups)
	}
	return len(v.users)
}

func (v *WorkloadView) clampCursor() {
	if n := v.rowCount(); v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// Update handles messages
func (v WorkloadView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch keyMsg.String() {
	case "tab":
		v.showGroups = !v.showGroups
		v.cursor = 0
	case "p":
		v.projects = !v.projects
		v = v.recompute()
	case "j", "down":
		if v.cursor < v.rowCount()-1 {
			v.cursor++
		}
	case "k", "up":
		if v.cursor > 0 {
			v.cursor--
		}
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = v.rowCount() - 1
		v.clampCursor()
	}
	return v, nil
}

// View renders the workload table and the selected row's items
func (v WorkloadView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	panel, warn, ok := gate(v.snap, v.width, itemSections(v.projects)...)
	if !ok {
		return panel
	}

	t := theme.Current.Theme
	styles := theme.Current.Styles

	subject := "user"
	if v.showGroups {
		subject = "group"
	}
	title := styles.Title.Render(fmt.Sprintf("Workload ─ %s per %s", itemsLabel(v.projects), subject))

	var body string
	if v.showGroups {
		body = v.renderGroups()
	} else {
		body = v.renderUsers()
	}

	sections := []string{title}
	if warn != "" {
		sections = append(sections, warn)
	}
	sections = append(sections, body)
	if detail := v.renderDetail(); detail != "" {
		sections = append(sections, detail)
	}
	hints := lipgloss.NewStyle().Foreground(t.Subtle).Render("tab: users/groups • p: tasks/projects • j/k: select")
	sections = append(sections, hints)
	return strings.Join(sections, "\n")
}

func (v WorkloadView) tableStyle(row int) lipgloss.Style {
	t := theme.Current.Theme
	s := lipgloss.NewStyle().Padding(0, 1)
	switch {
	case row == table.HeaderRow:
		return s.Bold(true).Foreground(t.Primary)
	case row == v.cursor:
		return s.Background(t.Highlight).Foreground(t.Foreground).Bold(true)
	default:
		return s.Foreground(t.Foreground)
	}
}

func (v WorkloadView) renderUsers() string {
	t := theme.Current.Theme
	if len(v.users) == 0 {
		return theme.Current.Styles.Label.Render("(no users)")
	}
	top := 0
	for _, w := range v.users {
		if w.Total > top {
			top = w.Total
		}
	}
	rows := make([][]string, 0, len(v.users))
	for _, w := range v.users {
		rows = append(rows, []string{
			v.snap.UserName(w.UserID),
			fmt.Sprint(w.Direct),
			fmt.Sprint(w.ViaGroup),
			fmt.Sprint(w.Total),
			fmt.Sprint(w.Completed),
			fmt.Sprint(w.Pending),
			bar(w.Total, top, 20, t.Secondary),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border)).
		Headers("User", "Direct", "Via group", "Total", "Done", "Pending", "Load").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style { return v.tableStyle(row) }).
		Render()
}

func (v WorkloadView) renderGroups() string {
	t := theme.Current.Theme
	if len(v.groups) == 0 {
		return theme.Current.Styles.Label.Render("(no groups)")
	}
	rows := make([][]string, 0, len(v.groups))
	for _, g := range v.groups {
		var direct []string
		for _, uc := range g.PerUser {
			if uc.Count > 0 {
				direct = append(direct, fmt.Sprintf("%s %d", v.snap.UserName(uc.UserID), uc.Count))
			}
		}
		rows = append(rows, []string{
			v.snap.GroupName(g.GroupID),
			fmt.Sprint(g.Members),
			fmt.Sprint(g.Total),
			fmt.Sprint(g.Completed),
			truncate(strings.Join(direct, ", "), 40),
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(t.Border)).
		Headers("Group", "Members", "Total", "Done", "Also direct").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style { return v.tableStyle(row) }).
		Render()
}

// renderDetail lists the items of the selected user or group
func (v WorkloadView) renderDetail() string {
	if v.rowCount() == 0 {
		return ""
	}
	var cards []card
	var heading string
	s := v.snap
	if v.showGroups {
		g := v.groups[v.cursor]
		heading = s.GroupName(g.GroupID)
		if v.projects {
			cards = cardsOf(reconcile.SortByStatusThenDeadline(withGroup(s.Projects, g.GroupID)))
		} else {
			cards = cardsOf(reconcile.SortByStatusThenDeadline(withGroup(s.Tasks, g.GroupID)))
		}
	} else {
		uid := v.users[v.cursor].UserID
		heading = s.UserName(uid)
		if v.projects {
			cards = cardsOf(reconcile.SortByStatusThenDeadline(reconcile.AssignedTo(s.Projects, uid, s.Index)))
		} else {
			cards = cardsOf(reconcile.SortByStatusThenDeadline(reconcile.AssignedTo(s.Tasks, uid, s.Index)))
		}
	}

	t := theme.Current.Theme
	lines := []string{theme.Current.Styles.Subtitle.Render(heading)}
	limit := v.height - v.rowCount() - 10
	if limit < 3 {
		limit = 3
	}
	now := time.Now()
	for i, c := range cards {
		if i == limit {
			lines = append(lines, theme.Current.Styles.Label.Render(fmt.Sprintf("  … %d more", len(cards)-limit)))
			break
		}
		status := lipgloss.NewStyle().Foreground(t.StatusColor(c.Status)).Width(12).Render(c.Status.Label())
		due := theme.Current.Styles.DueDate.Render(dueLabel(c.Due, now))
		lines = append(lines, "  "+status+" "+truncate(c.Title, v.width-30)+" "+due)
	}
	if len(cards) == 0 {
		lines = append(lines, theme.Current.Styles.Label.Render("  nothing assigned"))
	}
	return strings.Join(lines, "\n")
}

func withGroup[T reconcile.Item](items []T, groupID string) []T {
	var out []T
	for _, it := range items {
		for _, g := range it.AssignedGroups() {
			if g == groupID {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// IsInputMode reports whether the view is capturing text
func (v WorkloadView) IsInputMode() bool {
	return false
}
