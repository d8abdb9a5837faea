package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
)

// CalendarView shows task deadlines and project end dates by day
type CalendarView struct {
	width  int
	height int
	snap   *store.Snapshot

	// Current month being displayed
	year  int
	month time.Month

	// Selected day
	selectedDay int

	// Items due, indexed by day of month
	byDay map[int][]card

	// kinds limits the calendar to tasks or projects; empty shows both
	kinds model.EntityKind
}

// NewCalendarView creates a new calendar view on the current month
func NewCalendarView() CalendarView {
	return NewCalendarViewAt(time.Now())
}

// NewCalendarViewAt creates a calendar view positioned on day
func NewCalendarViewAt(day time.Time) CalendarView {
	return CalendarView{
		year:        day.Year(),
		month:       day.Month(),
		selectedDay: day.Day(),
		byDay:       make(map[int][]card),
	}
}

// Init initializes the calendar view
func (v CalendarView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v CalendarView) SetSize(width, height int) CalendarView {
	v.width = width
	v.height = height
	return v
}

// SetSnapshot re-bins the month from snap
func (v CalendarView) SetSnapshot(snap *store.Snapshot) CalendarView {
	v.snap = snap
	return v.rebuild()
}

// rebuild bins every dated item that falls in the displayed month
func (v CalendarView) rebuild() CalendarView {
	v.byDay = make(map[int][]card)
	if v.snap == nil {
		return v
	}
	var all []card
	if v.kinds != model.EntityProject {
		all = append(all, cardsOf(v.snap.Tasks)...)
	}
	if v.kinds != model.EntityTask {
		all = append(all, cardsOf(v.snap.Projects)...)
	}
	for _, c := range all {
		if c.Due == nil {
			continue
		}
		d := c.Due.Local()
		if d.Year() != v.year || d.Month() != v.month {
			continue
		}
		v.byDay[d.Day()] = append(v.byDay[d.Day()], c)
	}
	return v
}

// DueOn returns the items due on day of the displayed month
func (v CalendarView) DueOn(day int) []card {
	return v.byDay[day]
}

// Update handles messages
func (v CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return v, nil
	}
	daysInMonth := v.daysInMonth()

	switch keyMsg.String() {
	// Navigate days
	case "h", "left":
		if v.selectedDay > 1 {
			v.selectedDay--
		}
	case "l", "right":
		if v.selectedDay < daysInMonth {
			v.selectedDay++
		}
	case "k", "up":
		if v.selectedDay > 7 {
			v.selectedDay -= 7
		}
	case "j", "down":
		if v.selectedDay+7 <= daysInMonth {
			v.selectedDay += 7
		}

	// Navigate months
	case "H", "pgup":
		v.month--
		if v.month < 1 {
			v.month = 12
			v.year--
		}
		v.clampSelectedDay()
		return v.rebuild(), nil
	case "L", "pgdown":
		v.month++
		if v.month > 12 {
			v.month = 1
			v.year++
		}
		v.clampSelectedDay()
		return v.rebuild(), nil
	case "t": // Today
		now := time.Now()
		v.year = now.Year()
		v.month = now.Month()
		v.selectedDay = now.Day()
		return v.rebuild(), nil
	case "g":
		v.selectedDay = 1
	case "G":
		v.selectedDay = daysInMonth

	case "p":
		switch v.kinds {
		case "":
			v.kinds = model.EntityTask
		case model.EntityTask:
			v.kinds = model.EntityProject
		default:
			v.kinds = ""
		}
		return v.rebuild(), nil
	}
	return v, nil
}

// daysInMonth returns the number of days in the current month
func (v CalendarView) daysInMonth() int {
	return time.Date(v.year, v.month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// clampSelectedDay ensures selected day is valid for current month
func (v *CalendarView) clampSelectedDay() {
	if n := v.daysInMonth(); v.selectedDay > n {
		v.selectedDay = n
	}
}

func (v CalendarView) sections() []store.Section {
	switch v.kinds {
	case model.EntityTask:
		return []store.Section{store.SectionTasks}
	case model.EntityProject:
		return []store.Section{store.SectionProjects}
	default:
		return []store.Section{store.SectionTasks, store.SectionProjects}
	}
}

// View renders the calendar
func (v CalendarView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	panel, warn, ok := gate(v.snap, v.width, v.sections()...)
	if !ok {
		return panel
	}

	t := theme.Current.Theme

	// Calendar grid on the left, the selected day's items on the right
	calWidth := 28
	listWidth := v.width - calWidth - 6

	calendar := v.renderCalendar(calWidth)
	dayList := v.renderDayList(listWidth)
	panels := lipgloss.JoinHorizontal(lipgloss.Top, calendar, dayList)

	showing := "tasks and projects"
	switch v.kinds {
	case model.EntityTask:
		showing = "tasks"
	case model.EntityProject:
		showing = "projects"
	}
	hints := lipgloss.NewStyle().Foreground(t.Subtle).Render(
		showing + " • h/j/k/l: navigate days • H/L: change month • t: today • p: tasks/projects",
	)

	parts := []string{panels, hints}
	if warn != "" {
		parts = append([]string{warn}, parts...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderCalendar renders the month grid
func (v CalendarView) renderCalendar(width int) string {
	t := theme.Current.Theme

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		Width(width - 4).
		Align(lipgloss.Center)

	var lines []string
	lines = append(lines, headerStyle.Render(fmt.Sprintf("%s %d", v.month, v.year)))
	lines = append(lines, lipgloss.NewStyle().Foreground(t.Subtle).Render(" Su Mo Tu We Th Fr Sa"))

	firstDay := time.Date(v.year, v.month, 1, 0, 0, 0, 0, time.Local)
	startWeekday := int(firstDay.Weekday()) // 0 = Sunday
	daysInMonth := v.daysInMonth()

	now := time.Now()
	isCurrentMonth := v.year == now.Year() && v.month == now.Month()

	var week []string
	for i := 0; i < startWeekday; i++ {
		week = append(week, "   ")
	}

	for day := 1; day <= daysInMonth; day++ {
		dayStyle := lipgloss.NewStyle().Width(3).Align(lipgloss.Center)
		items := v.byDay[day]
		isSelected := day == v.selectedDay

		if isSelected {
			dayStyle = dayStyle.Background(t.Highlight).Bold(true)
		}
		if isCurrentMonth && day == now.Day() {
			dayStyle = dayStyle.Foreground(t.Primary)
		}
		if len(items) > 0 && !isSelected {
			dayStyle = dayStyle.Foreground(v.dayColor(items, day))
		}

		dayStr := fmt.Sprintf("%2d", day)
		if len(items) > 0 {
			dayStr += "•"
		} else {
			dayStr += " "
		}
		week = append(week, dayStyle.Render(dayStr))

		// Start new week on Saturday
		if (startWeekday+day)%7 == 0 {
			lines = append(lines, strings.Join(week, ""))
			week = nil
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, "   ")
		}
		lines = append(lines, strings.Join(week, ""))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// dayColor flags days in the past that still have unfinished items
func (v CalendarView) dayColor(items []card, day int) lipgloss.Color {
	t := theme.Current.Theme
	date := time.Date(v.year, v.month, day, 23, 59, 59, 0, time.Local)
	if date.Before(time.Now()) {
		for _, c := range items {
			if c.Status != model.StatusDone {
				return t.Error
			}
		}
	}
	return t.Info
}

// renderDayList renders the items due on the selected day
func (v CalendarView) renderDayList(width int) string {
	t := theme.Current.Theme

	date := time.Date(v.year, v.month, v.selectedDay, 0, 0, 0, 0, time.Local)
	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render(date.Format("Monday, January 2")))
	lines = append(lines, "")

	items := v.byDay[v.selectedDay]
	if len(items) == 0 {
		lines = append(lines, lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Render("Nothing due this day"))
	}
	for _, c := range items {
		checkbox := "☐"
		if c.Status == model.StatusDone {
			checkbox = "☑"
		}
		kind := "T"
		if c.Kind == model.EntityProject {
			kind = "P"
		}
		status := lipgloss.NewStyle().Foreground(t.StatusColor(c.Status)).Render(c.Status.Label())

		titleStyle := lipgloss.NewStyle().Foreground(t.Foreground)
		if c.Status == model.StatusDone {
			titleStyle = titleStyle.Strikethrough(true).Foreground(t.Subtle)
		}
		title := truncate(c.Title, width-lipgloss.Width(status)-12)
		lines = append(lines, fmt.Sprintf("%s %s %s %s", checkbox, lipgloss.NewStyle().Foreground(t.Secondary).Render(kind), titleStyle.Render(title), status))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1).
		Width(width).
		Render(strings.Join(lines, "\n"))
}

// IsInputMode returns whether the view is in input mode
func (v CalendarView) IsInputMode() bool {
	return false
}
