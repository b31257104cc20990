package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single signed movement of money on one account.
// Negative amounts are outflows, positive amounts are inflows.
//
// A transfer is two rows, one per account, with opposite signs: each row's
// TransferAccountID points at the other row's AccountID and both rows share
// one TransferGroupID.
type Transaction struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	AccountID         uint            `gorm:"index;not null"`
	Account           Account         `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CategoryID        *uint           `gorm:"index"` // nil for transfers and uncategorized rows
	PayeeID           *uint           `gorm:"index"`
	TransferAccountID *uint           `gorm:"index"`
	TransferGroupID   string          `gorm:"size:36;index"` // uuid shared by both legs of a transfer
	Date              time.Time       `gorm:"index;not null"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,8);not null"`
	Memo              string          `gorm:"size:512"`
	Cleared           bool            `gorm:"not null;default:false"`
	// No default tag (see Account.OnBudget): a false value must survive insert.
	Approved bool `gorm:"not null"`
	Tags              []Tag           `gorm:"many2many:transaction_tags;"`
}

// Tag is a user-defined label attached to transactions (many-to-many).
type Tag struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BudgetID  uint   `gorm:"index;not null;uniqueIndex:idx_budget_tag_name"`
	Name      string `gorm:"size:64;not null;uniqueIndex:idx_budget_tag_name"`
}
