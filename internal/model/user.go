package model

import "time"

// Role is a user's account role
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleGuest  Role = "guest"
)

// User is an account known to the backend. Users are created and deleted
// remotely; locally only their role changes.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName returns the name if set, else the email, else the ID
func (u User) DisplayName() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

// IsAdmin returns true for admin accounts
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
