package domain

import (
	"time"
)

// Role represents a user's access level. The "costumer" spelling is the
// persisted value and is kept as-is.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCostumer Role = "costumer"
)

// User represents a user in the system
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Companies    []Company `json:"companies,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CompanyIDs returns the ids of the companies the user belongs to.
func (u *User) CompanyIDs() []string {
	ids := make([]string, len(u.Companies))
	for i, c := range u.Companies {
		ids[i] = c.ID
	}
	return ids
}

// MemberOf reports whether the user belongs to the given company.
func (u *User) MemberOf(companyID string) bool {
	for _, c := range u.Companies {
		if c.ID == companyID {
			return true
		}
	}
	return false
}
