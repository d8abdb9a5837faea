package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Status is the canonical state of a task or project
type Status string

const (
	StatusToDo       Status = "to do"
	StatusInProgress Status = "in progress"
	StatusDone       Status = "done"
	StatusOverdue    Status = "overdue"

	// StatusUnknown is the reporting bucket for values missing from the alias table.
	// It is never produced by NormalizeStatus.
	StatusUnknown Status = "unknown"
)

// Statuses lists the canonical statuses in board order
var Statuses = []Status{StatusToDo, StatusInProgress, StatusOverdue, StatusDone}

// statusAliases is the single authoritative alias table. Keys are compared
// after Fold, so accents, case, '_' and '-' do not matter here.
var statusAliases = map[Status][]string{
	StatusToDo: {
		"to do", "todo", "pending", "à faire", "en attente",
		"not started", "open", "backlog",
	},
	StatusInProgress: {
		"in progress", "inprogress", "en cours", "doing", "started", "ongoing",
	},
	StatusDone: {
		"done", "terminé", "terminée", "completed", "complete", "finished",
		"fini", "closed",
	},
	StatusOverdue: {
		"overdue", "en retard", "late", "past due",
	},
}

var statusLookup = buildLookup(statusAliases)

// NormalizeStatus maps a raw status to its canonical form. Unrecognized values
// come back trimmed but otherwise unchanged, with ok set to false.
func NormalizeStatus(raw string) (Status, bool) {
	if s, ok := statusLookup[Fold(raw)]; ok {
		return s, true
	}
	return Status(strings.TrimSpace(raw)), false
}

// StatusBucket returns the canonical status for reporting, or StatusUnknown
func StatusBucket(raw string) Status {
	if s, ok := NormalizeStatus(raw); ok {
		return s
	}
	return StatusUnknown
}

// IsCanonical reports whether s is one of the canonical statuses
func (s Status) IsCanonical() bool {
	_, ok := statusAliases[s]
	return ok
}

// Rank orders statuses on a board: to do, in progress, overdue, done, then anything else
func (s Status) Rank() int {
	for i, c := range Statuses {
		if s == c {
			return i
		}
	}
	return len(Statuses)
}

// Label returns a display label for the status
func (s Status) Label() string {
	switch s {
	case StatusToDo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	case StatusOverdue:
		return "Overdue"
	case StatusUnknown:
		return "Unknown"
	default:
		return string(s)
	}
}

// ProjectWireStatus returns the backend's spelling of a project status
func ProjectWireStatus(s Status) string {
	switch s {
	case StatusToDo:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	default:
		return string(s)
	}
}

// Fold reduces a label to its comparison key: accents stripped, case folded,
// '_' and '-' read as spaces, runs of whitespace collapsed.
func Fold(raw string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, raw)
	if err != nil {
		s = raw
	}
	s = cases.Fold().String(s)
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func buildLookup[T ~string](aliases map[T][]string) map[string]T {
	lookup := make(map[string]T)
	for canonical, names := range aliases {
		lookup[Fold(string(canonical))] = canonical
		for _, name := range names {
			lookup[Fold(name)] = canonical
		}
	}
	return lookup
}
