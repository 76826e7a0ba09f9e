package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a CRM operator account. The role drives both lead visibility
// and which status transitions the user may perform.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"` // 'admin', 'qualifier', 'closer'
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Role constants for user roles.
const (
	RoleAdmin     = "admin"
	RoleQualifier = "qualifier"
	RoleCloser    = "closer"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleQualifier, RoleCloser}

// IsValidRole checks if the given role is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
