package models

import "time"

// Student is a pseudonymous login identity generated for one seat in a
// session's roster. It is not a User row; the PIN hash is the only secret.
type Student struct {
	ID            uint   `gorm:"primaryKey"`
	Username      string `gorm:"size:64;uniqueIndex;not null"` // student_<code>_<nn>
	CharacterName string `gorm:"size:64;not null"`
	PinHash       string `gorm:"size:255;not null"`
	AvatarPath    string `gorm:"size:256"`
	DeviceID      string `gorm:"size:128"` // set on first self-serve login
	TeacherID     uint   `gorm:"index;not null"`
	SessionID     uint   `gorm:"index;not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Teacher User    `gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
	Session Session `gorm:"constraint:OnDelete:CASCADE"`
}
