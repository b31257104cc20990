package main

import (
	"errors"
	"fmt"
	"time"

	"be04/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transferResult carries the two legs created for a transfer.
type transferResult struct {
	Outflow models.Transaction
	Inflow  models.Transaction
}

// createTransfer moves amount from one account to another as a pair of
// linked transactions with opposite signs. Both rows and both balance
// updates commit in a single storage transaction, so the pair is all or
// nothing: money is conserved across the two accounts.
//
// Transfers never carry a category; they do not move Ready to Assign.
func createTransfer(gdb *gorm.DB, fromID, toID uint, amount decimal.Decimal, date time.Time, memo string) (*transferResult, error) {
	if fromID == toID {
		return nil, validationErrorf("source and destination accounts must differ")
	}
	if !amount.IsPositive() {
		return nil, validationErrorf("transfer amount must be positive, got %s", amount)
	}

	var res transferResult
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var from, to models.Account
		if err := tx.First(&from, fromID).Error; err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		if err := tx.First(&to, toID).Error; err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
		if from.BudgetID != to.BudgetID {
			return validationErrorf("accounts belong to different budgets")
		}

		outPayee, err := resolveTransferPayee(tx, from.BudgetID, &to)
		if err != nil {
			return err
		}
		inPayee, err := resolveTransferPayee(tx, from.BudgetID, &from)
		if err != nil {
			return err
		}

		groupID := uuid.NewString()
		res.Outflow = models.Transaction{
			AccountID:         from.ID,
			PayeeID:           &outPayee.ID,
			TransferAccountID: &to.ID,
			TransferGroupID:   groupID,
			Date:              date,
			Amount:            amount.Neg(),
			Memo:              memo,
			Approved:          true,
		}
		res.Inflow = models.Transaction{
			AccountID:         to.ID,
			PayeeID:           &inPayee.ID,
			TransferAccountID: &from.ID,
			TransferGroupID:   groupID,
			Date:              date,
			Amount:            amount,
			Memo:              memo,
			Approved:          true,
		}

		if err := createTransaction(tx, &res.Outflow); err != nil {
			return err
		}
		// From here on a failure would strand the outflow leg; the enclosing
		// transaction rolls it back, and the error kind tells the caller the
		// pair was not applied.
		if err := createTransaction(tx, &res.Inflow); err != nil {
			return fmt.Errorf("%w: inflow leg: %v", ErrPartialTransfer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// deleteTransfer removes both legs of the transfer the given transaction
// belongs to, reversing both balances in one storage transaction.
func deleteTransfer(gdb *gorm.DB, leg *models.Transaction) error {
	if leg.TransferGroupID == "" {
		return validationErrorf("transaction %d is not part of a transfer", leg.ID)
	}
	return gdb.Transaction(func(tx *gorm.DB) error {
		var legs []models.Transaction
		if err := tx.Where("transfer_group_id = ?", leg.TransferGroupID).Find(&legs).Error; err != nil {
			return err
		}
		for i := range legs {
			if err := deleteTransaction(tx, &legs[i]); err != nil {
				return fmt.Errorf("%w: %v", ErrPartialTransfer, err)
			}
		}
		return nil
	})
}

// resolveTransferPayee returns the payee representing "money moved to/from
// peer". Lookup order: the flagged transfer payee for the peer account, then
// an exact display-name match (so repeated transfers between the same two
// accounts never accumulate duplicate payee rows), and only then a new row.
func resolveTransferPayee(tx *gorm.DB, budgetID uint, peer *models.Account) (*models.Payee, error) {
	var p models.Payee
	err := tx.Where("budget_id = ? AND is_transfer = ? AND transfer_account_id = ?",
		budgetID, true, peer.ID).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	name := transferPayeeName(peer.Name)
	err = tx.Where("budget_id = ? AND name = ?", budgetID, name).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p = models.Payee{
		BudgetID:          budgetID,
		Name:              name,
		IsTransfer:        true,
		TransferAccountID: &peer.ID,
	}
	// Two in-flight transfers racing on the same peer resolve to one row.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
		return nil, err
	}
	if p.ID == 0 {
		if err := tx.Where("budget_id = ? AND name = ?", budgetID, name).First(&p).Error; err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func transferPayeeName(accountName string) string {
	return "Transfer: " + accountName
}
