package model

import (
	"time"
)

// DateField selects which date of a task or project to bucket or filter on
type DateField string

const (
	DateCreated  DateField = "created"
	DateUpdated  DateField = "updated"
	DateDeadline DateField = "deadline"
	DateStart    DateField = "start"
	DateEnd      DateField = "end"
)

// ProgressSteps are the only progress values the backend stores
var ProgressSteps = []int{0, 25, 50, 75, 100}

// ClampProgress snaps any integer to the nearest progress step
func ClampProgress(p int) int {
	best := ProgressSteps[0]
	for _, step := range ProgressSteps {
		if abs(p-step) < abs(p-best) {
			best = step
		}
	}
	return best
}

// ValidProgress reports whether p is exactly one of the progress steps
func ValidProgress(p int) bool {
	for _, step := range ProgressSteps {
		if p == step {
			return true
		}
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Task is a unit of work, directly assigned to users and/or to groups.
// Status and Priority hold the values as received; compare them only
// through NormalizeStatus / NormalizePriority.
type Task struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        string       `json:"status"`
	Priority      string       `json:"priority"`
	Deadline      *time.Time   `json:"deadline,omitempty"`
	Progress      int          `json:"progress"`
	ProjectID     *string      `json:"project_id,omitempty"`
	DirectUserIDs []string     `json:"user_ids,omitempty"`
	GroupIDs      []string     `json:"group_ids,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Key returns the task ID
func (t Task) Key() string { return t.ID }

// Kind returns EntityTask
func (t Task) Kind() EntityKind { return EntityTask }

// Name returns the task title
func (t Task) Name() string { return t.Title }

// Details returns the task description
func (t Task) Details() string { return t.Description }

// RawStatus returns the status as received
func (t Task) RawStatus() string { return t.Status }

// RawPriority returns the priority as received
func (t Task) RawPriority() string { return t.Priority }

// DirectUsers returns the directly assigned user IDs
func (t Task) DirectUsers() []string { return t.DirectUserIDs }

// AssignedGroups returns the assigned group IDs
func (t Task) AssignedGroups() []string { return t.GroupIDs }

// ProgressValue returns the progress percentage
func (t Task) ProgressValue() int { return t.Progress }

// Project returns the project reference, or "" when the task has none
func (t Task) Project() string {
	if t.ProjectID == nil {
		return ""
	}
	return *t.ProjectID
}

// DueDate is the date range filters and sorting apply to
func (t Task) DueDate() *time.Time { return t.Deadline }

// Date returns the requested date field, or nil if the task has no such date
func (t Task) Date(field DateField) *time.Time {
	switch field {
	case DateCreated:
		return nonZero(t.CreatedAt)
	case DateUpdated:
		return nonZero(t.UpdatedAt)
	case DateDeadline, DateEnd:
		return t.Deadline
	default:
		return nil
	}
}

// IsOverdue returns true if the task is past its deadline and not done
func (t Task) IsOverdue(now time.Time) bool {
	if t.Deadline == nil {
		return false
	}
	if s, _ := NormalizeStatus(t.Status); s == StatusDone {
		return false
	}
	return now.After(*t.Deadline)
}

// Edges returns the directly recorded assignments of the task
func (t Task) Edges() []Edge {
	return edgesFor(EntityTask, t.ID, t.DirectUserIDs, t.GroupIDs)
}

// Clone returns a copy that shares no slices with t
func (t Task) Clone() Task {
	t.DirectUserIDs = append([]string(nil), t.DirectUserIDs...)
	t.GroupIDs = append([]string(nil), t.GroupIDs...)
	t.Attachments = append([]Attachment(nil), t.Attachments...)
	return t
}

func nonZero(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
