package model

import "time"

// User roles. The stored role column is the only runtime authorization
// signal; the ADMIN_EMAILS allow-list merely bootstraps it at startup.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User represents a registered account.
//
// Identities come from the external auth provider, so there is no password
// material here. Name, Email and Image can all be empty; the provider may
// withhold any of them.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Image     string    `json:"image,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
