// Package views renders the dashboard screens. Every view derives its
// content from a store snapshot and recomputes when handed a new one.
package views

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-faster/errors"

	"github.com/dori/teamboard/internal/model"
	"github.com/dori/teamboard/internal/reconcile"
	"github.com/dori/teamboard/internal/store"
	"github.com/dori/teamboard/internal/ui/theme"
)

// itemSections are the sections a view over tasks or projects needs
func itemSections(projects bool) []store.Section {
	items := store.SectionTasks
	if projects {
		items = store.SectionProjects
	}
	return []store.Section{store.SectionUsers, store.SectionGroups, store.SectionMemberships, items}
}

// gate returns a panel to show instead of the view when a required section
// has no data yet. When every section has data but some refresh failed,
// warn describes it and ok is true.
func gate(snap *store.Snapshot, width int, sections ...store.Section) (panel, warn string, ok bool) {
	t := theme.Current.Theme
	styles := theme.Current.Styles
	if snap == nil {
		return styles.Label.Render("Loading..."), "", false
	}

	err := snap.Ready(sections...)
	var nr *store.NotReadyError
	if errors.As(err, &nr) {
		var lines []string
		if len(nr.Failed) == 0 {
			lines = append(lines, styles.PanelTitle.Render("Loading"))
		} else {
			lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(t.Error).Render("Some data could not be loaded"))
		}
		if len(nr.Missing) > 0 {
			lines = append(lines, "", styles.Label.Render("waiting for "+joinSections(nr.Missing)))
		}
		for _, sec := range sortedSections(nr.Failed) {
			lines = append(lines, "", styles.Error.Render(fmt.Sprintf("%s: %v", sec, nr.Failed[sec])))
		}
		if len(nr.Failed) > 0 {
			lines = append(lines, "", styles.Label.Render("press r to retry"))
		}
		w := width - 4
		if w < 20 {
			w = 20
		}
		return styles.Panel.Width(w).Render(strings.Join(lines, "\n")), "", false
	}

	var notes []string
	warnings := snap.Warnings(sections...)
	for _, sec := range sortedSections(warnings) {
		notes = append(notes, fmt.Sprintf("%s not refreshed (%v)", sec, warnings[sec]))
	}
	for _, sec := range sections {
		st := snap.State(sec)
		if st.Cached && st.Err == nil {
			notes = append(notes, fmt.Sprintf("%s from cache, %s", sec, st.At.Local().Format("Jan 2 15:04")))
		}
	}
	if len(notes) > 0 {
		warn = styles.Warning.Render("⚠ " + truncate(strings.Join(notes, " • "), width-2))
	}
	return "", warn, true
}

func sortedSections(m map[store.Section]error) []store.Section {
	out := make([]store.Section, 0, len(m))
	for sec := range m {
		out = append(out, sec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func joinSections(secs []store.Section) string {
	names := make([]string, len(secs))
	for i, s := range secs {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// card is a task or project flattened for display
type card struct {
	ID       string
	Kind     model.EntityKind
	Title    string
	Status   model.Status
	Raw      string
	Priority string
	Due      *time.Time
	Progress int
}

func cardOf[T reconcile.Record](it T) card {
	return card{
		ID:       it.Key(),
		Kind:     kindOf(it),
		Title:    it.Name(),
		Status:   model.StatusBucket(it.RawStatus()),
		Raw:      it.RawStatus(),
		Priority: it.RawPriority(),
		Due:      it.DueDate(),
		Progress: it.ProgressValue(),
	}
}

func kindOf[T reconcile.Record](it T) model.EntityKind {
	switch any(it).(type) {
	case model.Project:
		return model.EntityProject
	default:
		return model.EntityTask
	}
}

func cardsOf[T reconcile.Record](items []T) []card {
	out := make([]card, len(items))
	for i, it := range items {
		out[i] = cardOf(it)
	}
	return out
}

// truncate shortens s to at most n cells
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// bar renders a horizontal bar of value scaled against top
func bar(value, top, width int, color lipgloss.Color) string {
	if top <= 0 || width <= 0 {
		return ""
	}
	n := value * width / top
	if value > 0 && n == 0 {
		n = 1
	}
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", n)) +
		strings.Repeat(" ", width-n)
}

func dueLabel(due *time.Time, now time.Time) string {
	if due == nil {
		return ""
	}
	d := due.Local()
	switch {
	case sameDay(d, now):
		return "today"
	case sameDay(d, now.AddDate(0, 0, 1)):
		return "tomorrow"
	case d.Year() == now.Year():
		return d.Format("Jan 2")
	default:
		return d.Format("Jan 2, 2006")
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func itemsLabel(projects bool) string {
	if projects {
		return "projects"
	}
	return "tasks"
}
