package models

import "time"

// Staff account roles. One users table carries every role; there is no
// per-role subtype table.
const (
	RoleTeacher  = "teacher"
	RoleAdmin    = "admin"
	RoleObserver = "observer"

	// RoleStudent only ever appears in JWT claims issued by the student
	// self-serve login; students have no users row.
	RoleStudent = "student"
)

// User represents a staff account (teacher, admin or observer).
// Student identities live in their own table, see Student.
type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	Email        string    `gorm:"size:120;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	FirstName    string    `gorm:"size:64"`
	LastName     string    `gorm:"size:64"`
	Role         string    `gorm:"size:16;index;not null;default:teacher"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	FailedLoginAttempts int        `gorm:"default:0"`
	LockedUntil         *time.Time `gorm:"index"`
	LastLoginAt         *time.Time
	LastLoginIP         string `gorm:"size:64"`
}

// DisplayName returns "First Last" for PIN cards, falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// IsTeacher reports whether the account may own sessions.
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher || u.Role == RoleAdmin
}
