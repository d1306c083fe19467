package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleOfficer Role = "officer"
	RoleAdmin   Role = "admin"
)

// Profile is the domain model for an account: citizens who report issues and
// officers/admins who triage them.
type Profile struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	City         *string
	Ward         *string
	Phone        *string
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
