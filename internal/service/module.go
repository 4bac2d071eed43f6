package service

import (
	"fmt"

	"github.com/admiralorbiter/DataDeckv2/internal/models"

	"gorm.io/gorm"
)

// ActiveModules returns the curriculum modules teachers may start sessions
// against, in admin sort order.
func ActiveModules(db *gorm.DB) ([]models.Module, error) {
	var modules []models.Module
	if err := db.Where("active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&modules).Error; err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	return modules, nil
}
