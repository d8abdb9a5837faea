package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// newTable returns a table with the CLI's border and padding
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printTable(w io.Writer, t *table.Table) error {
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// statusCell shows the canonical label, or the raw value with a marker
func statusCell(raw string) string {
	if s, ok := model.NormalizeStatus(raw); ok {
		return s.Label()
	}
	if strings.TrimSpace(raw) == "" {
		return "?"
	}
	return "? " + raw
}

func priorityCell(raw string) string {
	if p, ok := model.NormalizePriority(raw); ok {
		return string(p)
	}
	return raw
}

// assigneesCell lists direct users, then groups prefixed with @
func assigneesCell(snap *store.Snapshot, a reconcile.Assignable) string {
	var names []string
	for _, id := range a.DirectUsers() {
		names = append(names, snap.UserName(id))
	}
	for _, id := range a.AssignedGroups() {
		names = append(names, "@"+snap.GroupName(id))
	}
	return strings.Join(names, ", ")
}

func taskTable(snap *store.Snapshot, tasks []model.Task) *table.Table {
	t := newTable("ID", "Title", "Status", "Priority", "Deadline", "Progress", "Assignees")
	for _, task := range tasks {
		t.Row(
			task.ID,
			task.Title,
			statusCell(task.Status),
			priorityCell(task.Priority),
			formatDay(task.Deadline),
			fmt.Sprintf("%d%%", task.Progress),
			assigneesCell(snap, task),
		)
	}
	return t
}

func projectTable(snap *store.Snapshot, projects []model.Project) *table.Table {
	t := newTable("ID", "Title", "Status", "Start", "End", "Progress", "Assignees")
	for _, p := range projects {
		t.Row(
			p.ID,
			p.Title,
			statusCell(p.Status),
			formatDay(p.StartDate),
			formatDay(p.EndDate),
			fmt.Sprintf("%d%%", p.Progress),
			assigneesCell(snap, p),
		)
	}
	return t
}
