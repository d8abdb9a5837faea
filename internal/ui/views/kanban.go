package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
)

// MoveRequestMsg asks for an item to change status
type MoveRequestMsg struct {
	Kind   model.EntityKind
	ID     string
	Title  string
	Status model.Status
}

// KanbanMode represents the current input mode
type KanbanMode int

const (
	KanbanModeNormal KanbanMode = iota
	KanbanModeSearch
)

// kanbanColumns are the board columns; unrecognized statuses land in the last one
var kanbanColumns = append(append([]model.Status{}, model.Statuses...), model.StatusUnknown)

// KanbanView groups tasks or projects into status columns
type KanbanView struct {
	width  int
	height int
	snap   *store.Snapshot

	projects bool

	// Cards organized by column, filtered
	columns [][]card
	totals  []int

	// Navigation state
	currentColumn int
	cursorRow     int

	// Per-column scroll offset
	columnScroll []int

	// Input mode
	mode         KanbanMode
	textInput    textinput.Model
	searchFilter string

	statusMsg string
}

// NewKanbanView creates a new kanban view
func NewKanbanView() KanbanView {
	ti := textinput.New()
	ti.Prompt = ""
	ti.CharLimit = 256

	return KanbanView{
		textInput:    ti,
		columns:      make([][]card, len(kanbanColumns)),
		totals:       make([]int, len(kanbanColumns)),
		columnScroll: make([]int, len(kanbanColumns)),
	}
}

// Init initializes the kanban view
func (v KanbanView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v KanbanView) SetSize(width, height int) KanbanView {
	v.width = width
	v.height = height
	return v
}

// SetSnapshot rebuilds the columns from snap
func (v KanbanView) SetSnapshot(snap *store.Snapshot) KanbanView {
	v.snap = snap
	return v.rebuild()
}

func (v KanbanView) rebuild() KanbanView {
	v.columns = make([][]card, len(kanbanColumns))
	v.totals = make([]int, len(kanbanColumns))
	if v.snap == nil {
		return v
	}
	crit := reconcile.Criteria{Search: v.searchFilter}
	if v.projects {
		v.fill(cardsOf(v.snap.Projects), cardsOf(reconcile.SortByStatusThenDeadline(reconcile.Apply(v.snap.Projects, crit))))
	} else {
		v.fill(cardsOf(v.snap.Tasks), cardsOf(reconcile.SortByStatusThenDeadline(reconcile.Apply(v.snap.Tasks, crit))))
	}
	v.clampCursor()
	return v
}

func (v *KanbanView) fill(all, shown []card) {
	for _, c := range all {
		v.totals[columnOf(c.Status)]++
	}
	for _, c := range shown {
		i := columnOf(c.Status)
		v.columns[i] = append(v.columns[i], c)
	}
}

func columnOf(s model.Status) int {
	for i, c := range kanbanColumns {
		if c == s {
			return i
		}
	}
	return len(kanbanColumns) - 1
}

// Update handles messages
func (v KanbanView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if v.mode == KanbanModeSearch {
			return v.handleSearchMode(msg)
		}
		return v.handleNormalMode(msg)
	}

	if v.mode == KanbanModeSearch {
		var cmd tea.Cmd
		v.textInput, cmd = v.textInput.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v KanbanView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	v.statusMsg = ""
	switch msg.String() {
	case "h", "left":
		if v.currentColumn > 0 {
			v.currentColumn--
			v.clampCursor()
		}
	case "l", "right":
		if v.currentColumn < len(kanbanColumns)-1 {
			v.currentColumn++
			v.clampCursor()
		}
	case "j", "down":
		if v.cursorRow < len(v.columns[v.currentColumn])-1 {
			v.cursorRow++
			v.ensureCursorVisible()
		}
	case "k", "up":
		if v.cursorRow > 0 {
			v.cursorRow--
			v.ensureCursorVisible()
		}
	case "g":
		v.cursorRow = 0
		v.ensureCursorVisible()
	case "G":
		v.cursorRow = len(v.columns[v.currentColumn]) - 1
		v.clampCursor()
	case "H":
		return v, v.move(-1)
	case "L":
		return v, v.move(1)
	case "p":
		v.projects = !v.projects
		v.cursorRow = 0
		v.resetScroll()
		v = v.rebuild()
	case "/":
		v.mode = KanbanModeSearch
		v.textInput.SetValue(v.searchFilter)
		v.textInput.CursorEnd()
		return v, v.textInput.Focus()
	case "esc":
		if v.searchFilter != "" {
			v.searchFilter = ""
			v.cursorRow = 0
			v.resetScroll()
			v = v.rebuild()
		}
	}
	return v, nil
}

func (v KanbanView) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		v.searchFilter = strings.TrimSpace(v.textInput.Value())
		v.mode = KanbanModeNormal
		v.textInput.Blur()
		// Reset cursor positions when filter changes
		v.cursorRow = 0
		v.resetScroll()
		return v.rebuild(), nil
	}

	var cmd tea.Cmd
	v.textInput, cmd = v.textInput.Update(msg)
	return v, cmd
}

// move requests the selected card's status to shift by dir columns.
// Cards can only land on canonical statuses.
func (v KanbanView) move(dir int) tea.Cmd {
	col := v.columns[v.currentColumn]
	if v.cursorRow >= len(col) {
		return nil
	}
	target := v.currentColumn + dir
	if v.currentColumn == len(kanbanColumns)-1 && dir < 0 {
		target = len(model.Statuses) - 1
	}
	if target < 0 || target >= len(model.Statuses) {
		return nil
	}
	c := col[v.cursorRow]
	req := MoveRequestMsg{Kind: c.Kind, ID: c.ID, Title: c.Title, Status: kanbanColumns[target]}
	return func() tea.Msg { return req }
}

func (v *KanbanView) resetScroll() {
	for i := range v.columnScroll {
		v.columnScroll[i] = 0
	}
}

func (v *KanbanView) clampCursor() {
	n := len(v.columns[v.currentColumn])
	if v.cursorRow >= n {
		v.cursorRow = n - 1
	}
	if v.cursorRow < 0 {
		v.cursorRow = 0
	}
	v.ensureCursorVisible()
}

func (v *KanbanView) ensureCursorVisible() {
	visibleItems := v.visibleItemCount()
	col := v.currentColumn

	// Scroll down if cursor is below visible area
	if v.cursorRow >= v.columnScroll[col]+visibleItems {
		v.columnScroll[col] = v.cursorRow - visibleItems + 1
	}

	// Scroll up if cursor is above visible area
	if v.cursorRow < v.columnScroll[col] {
		v.columnScroll[col] = v.cursorRow
	}
}

func (v *KanbanView) visibleItemCount() int {
	// Header, borders, scroll indicators and hints take 8 lines; cards are 2 lines
	availableHeight := (v.height - 8) / 2
	if availableHeight < 1 {
		return 1
	}
	return availableHeight
}

// Selected returns the kind and ID of the card under the cursor
func (v KanbanView) Selected() (model.EntityKind, string, bool) {
	col := v.columns[v.currentColumn]
	if v.cursorRow >= len(col) {
		return "", "", false
	}
	return col[v.cursorRow].Kind, col[v.cursorRow].ID, true
}

// View renders the board
func (v KanbanView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}
	panel, warn, ok := gate(v.snap, v.width, itemSections(v.projects)...)
	if !ok {
		return panel
	}

	t := theme.Current.Theme

	// Responsive layout: as many columns as fit, keeping the current one visible
	numVisibleCols := (v.width - 4) / 26
	if numVisibleCols > len(kanbanColumns) {
		numVisibleCols = len(kanbanColumns)
	}
	if numVisibleCols < 1 {
		numVisibleCols = 1
	}
	startCol := v.currentColumn - numVisibleCols/2
	if startCol+numVisibleCols > len(kanbanColumns) {
		startCol = len(kanbanColumns) - numVisibleCols
	}
	if startCol < 0 {
		startCol = 0
	}
	endCol := startCol + numVisibleCols

	colWidth := (v.width - 4) / numVisibleCols
	if colWidth < 24 {
		colWidth = 24
	}

	headerStyle := func(i int, active bool) lipgloss.Style {
		s := lipgloss.NewStyle().
			Bold(true).
			Foreground(t.StatusColor(kanbanColumns[i])).
			Width(colWidth).
			Align(lipgloss.Center)
		if active {
			s = s.Background(t.Highlight)
		}
		return s
	}

	columnHeight := v.height - 4
	if warn != "" {
		columnHeight--
	}
	columnStyle := lipgloss.NewStyle().
		Width(colWidth).
		Height(columnHeight).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(t.Border)

	var headers []string
	for i := startCol; i < endCol; i++ {
		shown, total := len(v.columns[i]), v.totals[i]
		header := fmt.Sprintf("%s (%d)", kanbanColumns[i].Label(), shown)
		if shown != total {
			header = fmt.Sprintf("%s (%d/%d)", kanbanColumns[i].Label(), shown, total)
		}
		headers = append(headers, headerStyle(i, i == v.currentColumn).Render(header))
	}
	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headers...)

	visibleItems := v.visibleItemCount()
	now := time.Now()
	var cols []string
	for i := startCol; i < endCol; i++ {
		cards := v.columns[i]
		isActiveCol := i == v.currentColumn
		scrollOffset := v.columnScroll[i]

		startIdx := scrollOffset
		endIdx := scrollOffset + visibleItems
		if startIdx > len(cards) {
			startIdx = len(cards)
		}
		if endIdx > len(cards) {
			endIdx = len(cards)
		}

		var items []string
		if scrollOffset > 0 {
			items = append(items, lipgloss.NewStyle().
				Foreground(t.Subtle).
				Width(colWidth-4).
				Align(lipgloss.Center).
				Render(fmt.Sprintf("↑ %d more", scrollOffset)))
		}

		for j := startIdx; j < endIdx; j++ {
			items = append(items, v.renderCard(cards[j], colWidth-4, isActiveCol && j == v.cursorRow, now))
		}

		if endIdx < len(cards) {
			items = append(items, lipgloss.NewStyle().
				Foreground(t.Subtle).
				Width(colWidth-4).
				Align(lipgloss.Center).
				Render(fmt.Sprintf("↓ %d more", len(cards)-endIdx)))
		}

		content := strings.Join(items, "\n")
		if len(cards) == 0 {
			content = lipgloss.NewStyle().
				Foreground(t.Subtle).
				Italic(true).
				Render("(empty)")
		}

		cs := columnStyle
		if isActiveCol {
			cs = cs.BorderForeground(t.Primary)
		}
		cols = append(cols, cs.Render(content))
	}
	columnsRow := lipgloss.JoinHorizontal(lipgloss.Top, cols...)

	var footer string
	switch {
	case v.mode == KanbanModeSearch:
		footer = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Primary).
			Padding(0, 1).
			Width(v.width - 4).
			Render("Search: " + v.textInput.View())
	case v.searchFilter != "":
		footer = lipgloss.NewStyle().Foreground(t.Info).Render("[Search: "+v.searchFilter+"] ") +
			lipgloss.NewStyle().Foreground(t.Subtle).Render("esc: clear")
	default:
		hints := fmt.Sprintf("%s • h/l: column • j/k: nav • H/L: move • /: search • p: tasks/projects", itemsLabel(v.projects))
		footer = lipgloss.NewStyle().Foreground(t.Subtle).Render(hints)
	}

	parts := []string{headerRow, columnsRow, footer}
	if warn != "" {
		parts = append([]string{warn}, parts...)
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (v KanbanView) renderCard(c card, width int, selected bool, now time.Time) string {
	t := theme.Current.Theme
	cardStyle := lipgloss.NewStyle().Width(width).Padding(0, 1).Foreground(t.Foreground)
	if selected {
		cardStyle = cardStyle.Background(t.Highlight)
	}

	priorityChar := " "
	if p, ok := model.NormalizePriority(c.Priority); ok {
		mark := map[model.Priority]string{model.PriorityHigh: "▲", model.PriorityMedium: "●", model.PriorityLow: "▽"}[p]
		priorityChar = lipgloss.NewStyle().Foreground(t.PriorityColor(c.Priority)).Render(mark)
	}

	title := truncate(c.Title, width-4)
	meta := fmt.Sprintf("%d%%", c.Progress)
	if due := dueLabel(c.Due, now); due != "" {
		meta += " · " + due
	}
	if c.Status == model.StatusUnknown && c.Raw != "" {
		meta += " · " + c.Raw
	}
	return cardStyle.Render(priorityChar + " " + title + "\n  " + lipgloss.NewStyle().Foreground(t.Subtle).Render(truncate(meta, width-4)))
}

// IsInputMode returns true if the view is in an input mode
func (v KanbanView) IsInputMode() bool {
	return v.mode != KanbanModeNormal
}
