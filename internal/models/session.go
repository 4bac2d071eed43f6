package models

import "time"

// Session is one class period opened by a teacher against a curriculum
// module. At most one non-archived session may exist per (teacher, section);
// the check lives in service.SessionService, the code uniqueness in the DB.
type Session struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:128;not null"`
	OriginalName string `gorm:"size:128"` // restored into Name on unarchive when set
	Code         string `gorm:"size:8;uniqueIndex;not null"`
	Section      int    `gorm:"not null;index:ix_sessions_owner_section,priority:2"`
	ModuleID     uint   `gorm:"index;not null"`
	CharacterSet string `gorm:"size:64;default:animals"`
	Paused       bool   `gorm:"not null;default:false"`
	Archived     bool   `gorm:"not null;default:false;index:ix_sessions_owner_section,priority:3"`
	ArchivedAt   *time.Time
	CreatedByID  uint `gorm:"not null;index:ix_sessions_owner_section,priority:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Module    Module `gorm:"constraint:OnDelete:RESTRICT"`
	CreatedBy User   `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE"`
}

// Active reports whether students may use the session right now.
func (s *Session) Active() bool {
	return !s.Archived && !s.Paused
}

// Status returns the display status: active, paused or archived.
// Archived wins over paused.
func (s *Session) Status() string {
	switch {
	case s.Archived:
		return "archived"
	case s.Paused:
		return "paused"
	default:
		return "active"
	}
}
