package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account types. Free-form strings are rejected at the handler layer.
const (
	AccountChecking   = "checking"
	AccountSavings    = "savings"
	AccountCredit     = "credit"
	AccountCash       = "cash"
	AccountInvestment = "investment"
	AccountLoan       = "loan"
)

// Account holds money inside a budget. Balance is a cached materialization of
// the sum of all transaction amounts on this account; only the ledger code
// path may write it.
type Account struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	BudgetID  uint            `gorm:"index;not null;uniqueIndex:idx_budget_account_name"`
	Budget    Budget          `gorm:"foreignKey:BudgetID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Name      string          `gorm:"size:255;not null;uniqueIndex:idx_budget_account_name"`
	Type      string          `gorm:"size:32;not null;default:checking"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0"`
	// OnBudget marks the account as counting toward Ready to Assign.
	// No default tag: gorm would skip a false value on insert and let the
	// column default flip it to true. Every create path sets it explicitly.
	OnBudget bool `gorm:"not null"`
	Closed   bool `gorm:"not null;default:false"`
}
