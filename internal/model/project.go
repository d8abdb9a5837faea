package model

import (
	"time"
)

// Project groups tasks; tasks point at it through Task.ProjectID
type Project struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        string       `json:"status"`
	StartDate     *time.Time   `json:"start_date,omitempty"`
	EndDate       *time.Time   `json:"end_date,omitempty"`
	Progress      int          `json:"progress"`
	DirectUserIDs []string     `json:"user_ids,omitempty"`
	GroupIDs      []string     `json:"group_ids,omitempty"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Key returns the project ID
func (p Project) Key() string { return p.ID }

// Kind returns EntityProject
func (p Project) Kind() EntityKind { return EntityProject }

// Name returns the project title
func (p Project) Name() string { return p.Title }

// Details returns the project description
func (p Project) Details() string { return p.Description }

// RawStatus returns the status as received
func (p Project) RawStatus() string { return p.Status }

// RawPriority returns "": projects carry no priority
func (p Project) RawPriority() string { return "" }

// DirectUsers returns the directly assigned user IDs
func (p Project) DirectUsers() []string { return p.DirectUserIDs }

// AssignedGroups returns the assigned group IDs
func (p Project) AssignedGroups() []string { return p.GroupIDs }

// ProgressValue returns the progress percentage
func (p Project) ProgressValue() int { return p.Progress }

// Project returns the project's own ID so project filters match it
func (p Project) Project() string { return p.ID }

// DueDate is the date range filters and sorting apply to
func (p Project) DueDate() *time.Time { return p.EndDate }

// Date returns the requested date field, or nil if the project has no such date
func (p Project) Date(field DateField) *time.Time {
	switch field {
	case DateCreated:
		return nonZero(p.CreatedAt)
	case DateUpdated:
		return nonZero(p.UpdatedAt)
	case DateStart:
		return p.StartDate
	case DateEnd, DateDeadline:
		return p.EndDate
	default:
		return nil
	}
}

// Edges returns the directly recorded assignments of the project
func (p Project) Edges() []Edge {
	return edgesFor(EntityProject, p.ID, p.DirectUserIDs, p.GroupIDs)
}

// Clone returns a copy that shares no slices with p
func (p Project) Clone() Project {
	p.DirectUserIDs = append([]string(nil), p.DirectUserIDs...)
	p.GroupIDs = append([]string(nil), p.GroupIDs...)
	p.Attachments = append([]Attachment(nil), p.Attachments...)
	return p
}
