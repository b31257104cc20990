package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyBudget stores the amount assigned to a category for one budget
// period. Month is the period start date (YYYY-MM-DD); with a month start
// day of 1 this is the first of the calendar month. One row per
// (category, month) pair.
//
// Activity and Available are cached copies of the live aggregation over
// transactions, refreshed whenever the row is written. Readers that need
// correct numbers recompute from transactions; the cached columns exist for
// cheap list displays only.
type MonthlyBudget struct {
	ID         uint `gorm:"primaryKey"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CategoryID uint            `gorm:"not null;uniqueIndex:idx_category_month"`
	Category   Category        `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Month      string          `gorm:"size:10;not null;uniqueIndex:idx_category_month"`
	Budgeted   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	Activity   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	Available  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
}
