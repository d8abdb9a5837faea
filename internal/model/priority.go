package model

import "strings"

// Priority represents task priority level
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the canonical priorities from lowest to highest
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

var priorityAliases = map[Priority][]string{
	PriorityLow:    {"basse", "faible", "minor"},
	PriorityMedium: {"moyenne", "normal", "normale", "med"},
	PriorityHigh:   {"haute", "élevée", "elevee", "urgent", "critical"},
}

var priorityLookup = buildLookup(priorityAliases)

// NormalizePriority maps a raw priority to its canonical form. Unrecognized
// values come back trimmed but otherwise unchanged, with ok set to false.
func NormalizePriority(raw string) (Priority, bool) {
	if p, ok := priorityLookup[Fold(raw)]; ok {
		return p, true
	}
	return Priority(strings.TrimSpace(raw)), false
}

// Weight returns a numeric weight for sorting by priority
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
