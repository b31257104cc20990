package models

import "time"

// Budget is the top-level container; every other budgeting entity is scoped
// to exactly one budget, directly or through its parent.
type Budget struct {
	ID           uint `gorm:"primaryKey"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       uint   `gorm:"index;not null"`
	User         User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name         string `gorm:"size:255;not null"`
	CurrencyCode string `gorm:"size:3;not null;default:IDR"`
	// MonthStartDay is the day-of-month a budget period begins on.
	// Capped at 28 so every calendar month contains the start day.
	MonthStartDay int `gorm:"not null;default:1;check:month_start_day >= 1 AND month_start_day <= 28"`
}
