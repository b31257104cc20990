package main

import (
	"net/http"

	"be04/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// transactionOwnedBy loads a transaction and verifies ownership through its
// account's budget.
func transactionOwnedBy(c *gin.Context, id uint) (*models.Transaction, *models.Account, bool) {
	var txn models.Transaction
	if err := db.First(&txn, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return nil, nil, false
	}
	acct, _, ok := accountOwnedBy(c, txn.AccountID)
	if !ok {
		return nil, nil, false
	}
	return &txn, acct, true
}

// checkCategoryForAccount verifies the category exists and belongs to the
// same budget as the account. Writes the error response on failure.
func checkCategoryForAccount(c *gin.Context, categoryID uint, acct *models.Account) bool {
	catBudget, err := categoryBudgetID(db, categoryID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return false
	}
	if catBudget != acct.BudgetID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category belongs to a different budget"})
		return false
	}
	return true
}

func createTransactionHandler(c *gin.Context) {
	var req struct {
		AccountID  uint            `json:"account_id" binding:"required"`
		CategoryID *uint           `json:"category_id"`
		PayeeID    *uint           `json:"payee_id"`
		PayeeName  string          `json:"payee_name"`
		Date       string          `json:"date"`
		Amount     decimal.Decimal `json:"amount"`
		Memo       string          `json:"memo"`
		Cleared    bool            `json:"cleared"`
		Approved   *bool           `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	acct, _, ok := accountOwnedBy(c, req.AccountID)
	if !ok {
		return
	}
	if req.CategoryID != nil && !checkCategoryForAccount(c, *req.CategoryID, acct) {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	txn := models.Transaction{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Date:       date,
		Amount:     req.Amount,
		Memo:       req.Memo,
		Cleared:    req.Cleared,
		Approved:   approved,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if req.PayeeID != nil {
			var p models.Payee
			if err := tx.First(&p, *req.PayeeID).Error; err != nil {
				return err
			}
			if p.BudgetID != acct.BudgetID {
				return validationErrorf("payee belongs to a different budget")
			}
			txn.PayeeID = &p.ID
		} else if req.PayeeName != "" {
			p, err := resolveNamedPayee(tx, acct.BudgetID, req.PayeeName)
			if err != nil {
				return err
			}
			txn.PayeeID = &p.ID
		}
		return createTransaction(tx, &txn)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": txn.ID})
}

func listTransactionsHandler(c *gin.Context) {
	q := db.Model(&models.Transaction{})
	if v := c.Query("account_id"); v != "" {
		accountID, ok := parseUintQuery(c, "account_id")
		if !ok {
			return
		}
		if _, _, ok := accountOwnedBy(c, accountID); !ok {
			return
		}
		q = q.Where("account_id = ?", accountID)
	} else {
		budgetID, ok := parseUintQuery(c, "budget_id")
		if !ok {
			return
		}
		if _, ok := budgetOwnedBy(c, budgetID); !ok {
			return
		}
		q = q.Joins("JOIN accounts ON accounts.id = transactions.account_id").
			Where("accounts.budget_id = ?", budgetID)
	}
	if v := c.Query("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			respondError(c, err)
			return
		}
		q = q.Where("transactions.date >= ?", from)
	}
	if v := c.Query("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			respondError(c, err)
			return
		}
		q = q.Where("transactions.date <= ?", to)
	}
	var txns []models.Transaction
	if err := q.Order("transactions.date desc, transactions.id desc").Limit(200).Find(&txns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, txns)
}

// updateTransactionHandler edits a regular transaction. Transfer legs are
// rejected: editing one side would break conservation across the pair, so
// transfers are deleted and recreated instead.
func updateTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	txn, acct, ok := transactionOwnedBy(c, id)
	if !ok {
		return
	}
	if txn.TransferGroupID != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transfer legs cannot be edited; delete the transfer and create a new one"})
		return
	}
	var req struct {
		AccountID  *uint            `json:"account_id"`
		CategoryID *uint            `json:"category_id"` // 0 clears the category
		PayeeID    *uint            `json:"payee_id"`    // 0 clears the payee
		Date       *string          `json:"date"`
		Amount     *decimal.Decimal `json:"amount"`
		Memo       *string          `json:"memo"`
		Cleared    *bool            `json:"cleared"`
		Approved   *bool            `json:"approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oldAccountID := txn.AccountID
	oldAmount := txn.Amount
	targetAcct := acct
	if req.AccountID != nil && *req.AccountID != txn.AccountID {
		newAcct, _, ok := accountOwnedBy(c, *req.AccountID)
		if !ok {
			return
		}
		if newAcct.BudgetID != acct.BudgetID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account belongs to a different budget"})
			return
		}
		txn.AccountID = newAcct.ID
		targetAcct = newAcct
	}
	if req.CategoryID != nil {
		if *req.CategoryID == 0 {
			txn.CategoryID = nil
		} else {
			if !checkCategoryForAccount(c, *req.CategoryID, targetAcct) {
				return
			}
			txn.CategoryID = req.CategoryID
		}
	}
	if req.PayeeID != nil {
		if *req.PayeeID == 0 {
			txn.PayeeID = nil
		} else {
			var p models.Payee
			if err := db.First(&p, *req.PayeeID).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "payee not found"})
				return
			}
			if p.BudgetID != targetAcct.BudgetID {
				c.JSON(http.StatusBadRequest, gin.H{"error": "payee belongs to a different budget"})
				return
			}
			txn.PayeeID = req.PayeeID
		}
	}
	if req.Date != nil {
		d, err := parseDate(*req.Date)
		if err != nil {
			respondError(c, err)
			return
		}
		txn.Date = d
	}
	if req.Amount != nil {
		txn.Amount = *req.Amount
	}
	if req.Memo != nil {
		txn.Memo = *req.Memo
	}
	if req.Cleared != nil {
		txn.Cleared = *req.Cleared
	}
	if req.Approved != nil {
		txn.Approved = *req.Approved
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return updateTransaction(tx, txn, oldAccountID, oldAmount)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction updated"})
}

// deleteTransactionHandler deletes a transaction. Deleting one leg of a
// transfer removes the whole pair so the two accounts stay in step.
func deleteTransactionHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	txn, _, ok := transactionOwnedBy(c, id)
	if !ok {
		return
	}
	var err error
	if txn.TransferGroupID != "" {
		err = deleteTransfer(db, txn)
	} else {
		err = db.Transaction(func(tx *gorm.DB) error {
			return deleteTransaction(tx, txn)
		})
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "transaction deleted"})
}

// setTransactionTagsHandler replaces the transaction's tag set.
func setTransactionTagsHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	txn, acct, ok := transactionOwnedBy(c, id)
	if !ok {
		return
	}
	var req struct {
		TagIDs []uint `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var tags []models.Tag
	if len(req.TagIDs) > 0 {
		if err := db.Where("id IN ? AND budget_id = ?", req.TagIDs, acct.BudgetID).Find(&tags).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		if len(tags) != len(req.TagIDs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "one or more tags not found in this budget"})
			return
		}
	}
	if err := db.Model(txn).Association("Tags").Replace(tags); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "tags updated"})
}

func createTransferHandler(c *gin.Context) {
	var req struct {
		FromAccountID uint            `json:"from_account_id" binding:"required"`
		ToAccountID   uint            `json:"to_account_id" binding:"required"`
		Amount        decimal.Decimal `json:"amount"`
		Date          string          `json:"date"`
		Memo          string          `json:"memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, _, ok := accountOwnedBy(c, req.FromAccountID); !ok {
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	res, err := createTransfer(db, req.FromAccountID, req.ToAccountID, req.Amount, date, req.Memo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"outflow_id":        res.Outflow.ID,
		"inflow_id":         res.Inflow.ID,
		"transfer_group_id": res.Outflow.TransferGroupID,
	})
}
