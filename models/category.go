package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryGroup is a purely organizational container for categories.
type CategoryGroup struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BudgetID  uint   `gorm:"index;not null;uniqueIndex:idx_budget_group_name"`
	Budget    Budget `gorm:"foreignKey:BudgetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string `gorm:"size:255;not null;uniqueIndex:idx_budget_group_name"`
	SortOrder int    `gorm:"not null;default:0"`
}

// Category is an envelope money gets assigned to. Target fields are
// goal-tracking display data and are not enforced anywhere.
type Category struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	GroupID      uint             `gorm:"index;not null;uniqueIndex:idx_group_category_name"`
	Group        CategoryGroup    `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name         string           `gorm:"size:255;not null;uniqueIndex:idx_group_category_name"`
	TargetType   string           `gorm:"size:32"` // e.g. monthly, by_date; empty means no target
	TargetAmount *decimal.Decimal `gorm:"type:decimal(20,8)"`
	TargetDate   *time.Time
}
