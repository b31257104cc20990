package models

import "time"

// Payee is the counter-party of a transaction. Transfer payees carry an
// explicit IsTransfer flag plus the peer account id; the "Transfer: <name>"
// naming is kept for display only and is never used for detection.
type Payee struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	BudgetID          uint   `gorm:"index;not null;uniqueIndex:idx_budget_payee_name"`
	Budget            Budget `gorm:"foreignKey:BudgetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name              string `gorm:"size:255;not null;uniqueIndex:idx_budget_payee_name"`
	IsTransfer        bool   `gorm:"not null;default:false;index"`
	TransferAccountID *uint  `gorm:"index"`
}
