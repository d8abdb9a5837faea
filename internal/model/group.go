package model

import "time"

// Group is a named set of users. Its members live in Membership rows,
// which change independently of the group itself.
type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Membership puts one user in one group
type Membership struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}
