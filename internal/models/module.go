package models

import "time"

// Module is an admin-configurable curriculum module that sessions are
// created against.
type Module struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:128;uniqueIndex;not null"`
	Description string `gorm:"type:text"`
	Active      bool   `gorm:"not null;default:true;index:ix_modules_active_sort,priority:1"`
	SortOrder   int    `gorm:"default:0;index:ix_modules_active_sort,priority:2"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
