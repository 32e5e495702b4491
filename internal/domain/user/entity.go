package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Manages accounts, sees all attendance
	RoleEmployee Role = "employee" // Checks in and out
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	FullName     string
	Department   *string
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin checks if the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
