package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings. Views handle their own keys.
type KeyMap struct {
	// Views
	WorkloadView key.Binding
	KanbanView   key.Binding
	CalendarView key.Binding
	StatsView    key.Binding

	Refresh    key.Binding
	Help       key.Binding
	ThemeCycle key.Binding
	Quit       key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		WorkloadView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "workload"),
		),
		KanbanView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "kanban"),
		),
		CalendarView: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "calendar"),
		),
		StatsView: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "stats"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refetch"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
	}
}

// ShortHelp returns short help bindings (for status bar)
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Help, k.Quit}
}

// FullHelp returns full help bindings (for help view)
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.WorkloadView, k.KanbanView, k.CalendarView, k.StatsView},
		{k.Refresh, k.ThemeCycle, k.Help, k.Quit},
	}
}
