package main

import (
	"be04/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// The ledger is the only code path allowed to touch Account.Balance. Every
// function takes the *gorm.DB it should operate on so callers can hand in a
// transaction handle and get the row write and the balance write committed
// as one unit.
//
// Invariant maintained here: account.Balance == sum of Amount over all
// currently existing transactions on that account.

// applyBalanceDelta adds a signed delta to the cached balance of an account.
// The addition happens in SQL so concurrent deltas never read a stale value.
func applyBalanceDelta(tx *gorm.DB, accountID uint, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}
	res := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// createTransaction inserts the row and applies +amount to its account.
func createTransaction(tx *gorm.DB, txn *models.Transaction) error {
	if err := tx.Create(txn).Error; err != nil {
		return err
	}
	return applyBalanceDelta(tx, txn.AccountID, txn.Amount)
}

// updateTransaction persists an edited row and keeps balances in step.
// oldAccountID and oldAmount are the values before the edit: the old amount
// is reversed on the old account and the new amount applied to the new one,
// which collapses to a single delta when the account did not change.
func updateTransaction(tx *gorm.DB, txn *models.Transaction, oldAccountID uint, oldAmount decimal.Decimal) error {
	if err := tx.Save(txn).Error; err != nil {
		return err
	}
	if txn.AccountID == oldAccountID {
		return applyBalanceDelta(tx, oldAccountID, txn.Amount.Sub(oldAmount))
	}
	if err := applyBalanceDelta(tx, oldAccountID, oldAmount.Neg()); err != nil {
		return err
	}
	return applyBalanceDelta(tx, txn.AccountID, txn.Amount)
}

// deleteTransaction removes the row and applies -amount to its account.
func deleteTransaction(tx *gorm.DB, txn *models.Transaction) error {
	if err := tx.Delete(&models.Transaction{}, txn.ID).Error; err != nil {
		return err
	}
	return applyBalanceDelta(tx, txn.AccountID, txn.Amount.Neg())
}
