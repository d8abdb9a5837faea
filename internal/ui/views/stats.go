package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
)

// Windows for the two bucketings
const (
	dayBuckets   = 14
	monthBuckets = 12
)

var (
	taskDateFields    = []model.DateField{model.DateCreated, model.DateDeadline, model.DateUpdated}
	projectDateFields = []model.DateField{model.DateCreated, model.DateStart, model.DateEnd, model.DateUpdated}
)

// StatsView shows status distribution, completion rate and a time series
type StatsView struct {
	width  int
	height int
	snap   *store.Snapshot
	now    func() time.Time

	projects bool
	by       reconcile.Bucketing
	field    int

	total        int
	distribution []reconcile.StatusCount
	unrecognized []string
	completion   float64
	series       []reconcile.Bucket
}

// NewStatsView creates a new stats view
func NewStatsView() StatsView {
	return StatsView{now: time.Now, by: reconcile.ByDay}
}

// Init initializes the stats view
func (v StatsView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v StatsView) SetSize(width, height int) StatsView {
	v.width = width
	v.height = height
	return v
}

// SetSnapshot recomputes the statistics from snap
func (v StatsView) SetSnapshot(snap *store.Snapshot) StatsView {
	v.snap = snap
	return v.recompute()
}

func (v StatsView) fields() []model.DateField {
	if v.projects {
		return projectDateFields
	}
	return taskDateFields
}

// Field returns the date field the series is built on
func (v StatsView) Field() model.DateField {
	return v.fields()[v.field%len(v.fields())]
}

func (v StatsView) window() int {
	if v.by == reconcile.ByMonth {
		return monthBuckets
	}
	return dayBuckets
}

func (v StatsView) recompute() StatsView {
	v.total, v.distribution, v.unrecognized, v.completion, v.series = 0, nil, nil, 0, nil
	if v.snap == nil {
		return v
	}
	end := v.now()
	if v.projects {
		v.total = len(v.snap.Projects)
		v.distribution = reconcile.StatusDistribution(v.snap.Projects)
		v.unrecognized = reconcile.UnrecognizedStatuses(v.snap.Projects)
		v.completion = reconcile.CompletionRate(v.snap.Projects)
		v.series = reconcile.TimeSeries(v.snap.Projects, v.Field(), v.by, end, v.window())
	} else {
		v.total = len(v.snap.Tasks)
		v.distribution = reconcile.StatusDistribution(v.snap.Tasks)
		v.unrecognized = reconcile.UnrecognizedStatuses(v.snap.Tasks)
		v.completion = reconcile.CompletionRate(v.snap.Tasks)
		v.series = reconcile.TimeSeries(v.snap.Tasks, v.Field(), v.by, end, v.window())
	}
	return v
}

// Update handles messages
func (v StatsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	switch keyMsg.String() {
	case "b":
		if v.by == reconcile.ByDay {
			v.by = reconcile.ByMonth
		} else {
			v.by = reconcile.ByDay
		}
		return v.recompute(), nil
	case "f":
		v.field = (v.field + 1) % len(v.fields())
		return v.recompute(), nil
	case "p":
		v.projects = !v.projects
		v.field = 0
		return v.recompute(), nil
	}
	return v, nil
}

// View renders the stats view
func (v StatsView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	var sec store.Section = store.SectionTasks
	if v.projects {
		sec = store.SectionProjects
	}
	panel, warn, ok := gate(v.snap, v.width, sec)
	if !ok {
		return panel
	}

	t := theme.Current.Theme

	var sections []string
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	sections = append(sections, titleStyle.Render("Statistics ─ "+itemsLabel(v.projects)))
	if warn != "" {
		sections = append(sections, warn)
	}
	sections = append(sections, "")

	// Summary cards (side by side)
	cardStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Width(18)
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(t.Subtle)

	summary := func(value, label string) string {
		return cardStyle.Render(valueStyle.Render(value) + "\n" + labelStyle.Render(label))
	}
	cardRow := lipgloss.JoinHorizontal(lipgloss.Top,
		summary(fmt.Sprint(v.total), "Total"),
		summary(fmt.Sprintf("%.0f%%", v.completion*100), "Completed"),
		summary(fmt.Sprint(v.count(model.StatusOverdue)), "Overdue"),
		summary(fmt.Sprint(v.count(model.StatusUnknown)), "Unrecognized"),
	)
	sections = append(sections, cardRow, "")

	sections = append(sections, v.renderDistribution(), "")
	sections = append(sections, v.renderSeries(), "")

	if len(v.unrecognized) > 0 {
		sections = append(sections, theme.Current.Styles.Warning.Render(
			truncate("Unrecognized statuses: "+strings.Join(v.unrecognized, ", "), v.width-2)))
	}

	hints := lipgloss.NewStyle().Foreground(t.Subtle).Render(
		"b: day/month • f: date field • p: tasks/projects",
	)
	sections = append(sections, hints)

	return strings.Join(sections, "\n")
}

func (v StatsView) count(s model.Status) int {
	for _, sc := range v.distribution {
		if sc.Status == s {
			return sc.Count
		}
	}
	return 0
}

// renderDistribution renders one bar per status
func (v StatsView) renderDistribution() string {
	t := theme.Current.Theme
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	lines := []string{headerStyle.Render("By Status")}
	if len(v.distribution) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Italic(true).Render("(nothing yet)"))
		return strings.Join(lines, "\n")
	}

	top := v.distribution[0].Count
	barMaxWidth := v.width - 30
	if barMaxWidth > 40 {
		barMaxWidth = 40
	}
	for _, sc := range v.distribution {
		pct := float64(sc.Count) * 100 / float64(v.total)
		label := lipgloss.NewStyle().Width(13).Foreground(t.StatusColor(sc.Status)).Render(sc.Status.Label())
		lines = append(lines, fmt.Sprintf("%s %s %4d %3.0f%%", label, bar(sc.Count, top, barMaxWidth, t.StatusColor(sc.Status)), sc.Count, pct))
	}
	return strings.Join(lines, "\n")
}

// renderSeries renders the bucketed counts as a vertical bar chart
func (v StatsView) renderSeries() string {
	t := theme.Current.Theme
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(t.Secondary)

	unit := "days"
	if v.by == reconcile.ByMonth {
		unit = "months"
	}
	var lines []string
	lines = append(lines, headerStyle.Render(fmt.Sprintf("By %s date (last %d %s)", v.Field(), len(v.series), unit)))

	maxCount := 1
	for _, b := range v.series {
		if b.Count > maxCount {
			maxCount = b.Count
		}
	}

	chartHeight := 5
	barWidth := 5
	if n := len(v.series); n > 0 && (barWidth+1)*n > v.width-2 {
		barWidth = (v.width-2)/n - 1
		if barWidth < 1 {
			barWidth = 1
		}
	}

	for row := chartHeight; row >= 1; row-- {
		var rowStr strings.Builder
		threshold := float64(row) / float64(chartHeight)

		for i, b := range v.series {
			ratio := float64(b.Count) / float64(maxCount)

			var block string
			if ratio >= threshold {
				block = lipgloss.NewStyle().Foreground(t.Success).Render(strings.Repeat("█", barWidth))
			} else if ratio >= threshold-0.2 && ratio > 0 {
				block = lipgloss.NewStyle().Foreground(t.Info).Render(strings.Repeat("▄", barWidth))
			} else {
				block = strings.Repeat(" ", barWidth)
			}

			rowStr.WriteString(block)
			if i < len(v.series)-1 {
				rowStr.WriteString(" ")
			}
		}
		lines = append(lines, rowStr.String())
	}

	cell := func(s string, color lipgloss.Color) string {
		return lipgloss.NewStyle().Foreground(color).Width(barWidth).Align(lipgloss.Center).Render(truncate(s, barWidth))
	}
	var labelStr, countStr strings.Builder
	for i, b := range v.series {
		labelStr.WriteString(cell(v.shortLabel(b), t.Subtle))
		countStr.WriteString(cell(fmt.Sprint(b.Count), t.Foreground))
		if i < len(v.series)-1 {
			labelStr.WriteString(" ")
			countStr.WriteString(" ")
		}
	}
	lines = append(lines, labelStr.String(), countStr.String())

	return strings.Join(lines, "\n")
}

func (v StatsView) shortLabel(b reconcile.Bucket) string {
	if v.by == reconcile.ByMonth {
		return b.Start.Format("Jan")
	}
	return b.Start.Format("01/02")
}

// IsInputMode returns whether the view is in input mode
func (v StatsView) IsInputMode() bool {
	return false
}
