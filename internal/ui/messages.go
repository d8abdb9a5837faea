package ui

import (
	"strings"

	"github.com/dori/teamboard/internal/notify"
	"github.com/dori/teamboard/internal/service"
)

// View represents the current active view
type View int

const (
	ViewWorkload View = iota
	ViewKanban
	ViewCalendar
	ViewStats
)

var viewNames = []string{"Workload", "Kanban", "Calendar", "Stats"}

// String returns the display name for a view
func (v View) String() string {
	if int(v) >= 0 && int(v) < len(viewNames) {
		return viewNames[v]
	}
	return "Unknown"
}

// ParseView accepts a view name in any case
func ParseView(name string) (View, bool) {
	for i, n := range viewNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return View(i), true
		}
	}
	return ViewWorkload, false
}

// Messages for inter-component communication

// DataUpdatedMsg says the store published a new snapshot
type DataUpdatedMsg struct {
	Source string
}

// FetchFailedMsg says a section could not be refreshed
type FetchFailedMsg struct {
	Section string
}

// RefreshDoneMsg carries the outcome of a background load
type RefreshDoneMsg struct {
	Report service.Report
}

// MutationDoneMsg carries the outcome of a write started from a view
type MutationDoneMsg struct {
	Title string
	Err   error
}

// ToastMsg shows a toast in the footer
type ToastMsg struct {
	Toast notify.Toast
}

// toastExpiredMsg clears the toast with the given sequence number
type toastExpiredMsg struct {
	seq int
}

// ErrorMsg contains an error to display
type ErrorMsg struct {
	Err error
}

// StatusMsg contains a status message to display
type StatusMsg struct {
	Message string
}
