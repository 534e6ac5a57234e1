package model

import (
	"strings"
	"time"
)

// Roles a user can hold.  Owners manage rooms, rosters and pins; viewers can
// only read seating.
const (
	RoleOwner  = "OWNER"
	RoleViewer = "VIEWER"
)

// User is a row of the users table.  Handlers use their own response types
// so PasswordHash never leaves the server.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string // bcrypt
	Role         string // RoleOwner or RoleViewer
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeRole upper-cases role and falls back to RoleViewer for anything
// other than a known role.
func NormalizeRole(role string) string {
	if strings.ToUpper(strings.TrimSpace(role)) == RoleOwner {
		return RoleOwner
	}
	return RoleViewer
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
