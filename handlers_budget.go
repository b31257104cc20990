package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"be04/models"
	"be04/pkg/period"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

func parseUintQuery(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " query parameter required"})
		return 0, false
	}
	return uint(v), true
}

// budgetOwnedBy loads a budget and verifies the authenticated user owns it.
// Writes the error response itself when the check fails.
func budgetOwnedBy(c *gin.Context, budgetID uint) (*models.Budget, bool) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return nil, false
	}
	var b models.Budget
	if err := db.First(&b, budgetID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "budget not found"})
		return nil, false
	}
	if b.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return nil, false
	}
	return &b, true
}

// accountOwnedBy loads an account and verifies ownership through its budget.
func accountOwnedBy(c *gin.Context, accountID uint) (*models.Account, *models.Budget, bool) {
	var acct models.Account
	if err := db.First(&acct, accountID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return nil, nil, false
	}
	b, ok := budgetOwnedBy(c, acct.BudgetID)
	if !ok {
		return nil, nil, false
	}
	return &acct, b, true
}

func createBudgetHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var req struct {
		Name          string `json:"name" binding:"required"`
		CurrencyCode  string `json:"currency_code"`
		MonthStartDay int    `json:"month_start_day"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MonthStartDay == 0 {
		req.MonthStartDay = 1
	}
	if req.MonthStartDay < 1 || req.MonthStartDay > period.MaxStartDay {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month_start_day must be between 1 and 28"})
		return
	}
	if req.CurrencyCode == "" {
		req.CurrencyCode = "IDR"
	}
	b := models.Budget{UserID: user.ID, Name: req.Name, CurrencyCode: req.CurrencyCode, MonthStartDay: req.MonthStartDay}
	if err := db.Create(&b).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": b.ID})
}

func listBudgetsHandler(c *gin.Context) {
	user, ok := getUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	var budgets []models.Budget
	if err := db.Where("user_id = ?", user.ID).Order("id").Find(&budgets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, budgets)
}

func getBudgetHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	b, ok := budgetOwnedBy(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, b)
}

var validAccountTypes = map[string]bool{
	models.AccountChecking:   true,
	models.AccountSavings:    true,
	models.AccountCredit:     true,
	models.AccountCash:       true,
	models.AccountInvestment: true,
	models.AccountLoan:       true,
}

// createAccountHandler creates an account. A non-zero starting balance is
// recorded as a regular transaction so the balance invariant (cached balance
// equals sum of transactions) holds from the first write.
func createAccountHandler(c *gin.Context) {
	var req struct {
		BudgetID        uint            `json:"budget_id" binding:"required"`
		Name            string          `json:"name" binding:"required"`
		Type            string          `json:"type"`
		OnBudget        *bool           `json:"on_budget"`
		StartingBalance decimal.Decimal `json:"starting_balance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := budgetOwnedBy(c, req.BudgetID); !ok {
		return
	}
	if req.Type == "" {
		req.Type = models.AccountChecking
	}
	if !validAccountTypes[req.Type] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account type"})
		return
	}
	onBudget := true
	if req.OnBudget != nil {
		onBudget = *req.OnBudget
	}
	acct := models.Account{BudgetID: req.BudgetID, Name: req.Name, Type: req.Type, OnBudget: onBudget}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acct).Error; err != nil {
			return err
		}
		if req.StartingBalance.IsZero() {
			return nil
		}
		payee, err := resolveNamedPayee(tx, req.BudgetID, "Starting Balance")
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		opening := models.Transaction{
			AccountID: acct.ID,
			PayeeID:   &payee.ID,
			Date:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
			Amount:    req.StartingBalance,
			Memo:      "Starting balance",
			Cleared:   true,
			Approved:  true,
		}
		return createTransaction(tx, &opening)
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "account name already in use"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": acct.ID})
}

func listAccountsHandler(c *gin.Context) {
	budgetID, ok := parseUintQuery(c, "budget_id")
	if !ok {
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	var accounts []models.Account
	if err := db.Where("budget_id = ?", budgetID).Order("id").Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// updateAccountHandler renames, closes or re-flags an account. Balance is
// never writable here; only the ledger mutates it.
func updateAccountHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, _, ok := accountOwnedBy(c, id); !ok {
		return
	}
	var req struct {
		Name     *string `json:"name"`
		OnBudget *bool   `json:"on_budget"`
		Closed   *bool   `json:"closed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
			return
		}
		updates["name"] = *req.Name
	}
	if req.OnBudget != nil {
		updates["on_budget"] = *req.OnBudget
	}
	if req.Closed != nil {
		updates["closed"] = *req.Closed
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if err := db.Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "account name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account updated"})
}

func createCategoryGroupHandler(c *gin.Context) {
	var req struct {
		BudgetID  uint   `json:"budget_id" binding:"required"`
		Name      string `json:"name" binding:"required"`
		SortOrder int    `json:"sort_order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := budgetOwnedBy(c, req.BudgetID); !ok {
		return
	}
	g := models.CategoryGroup{BudgetID: req.BudgetID, Name: req.Name, SortOrder: req.SortOrder}
	if err := db.Create(&g).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "group name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": g.ID})
}

func listCategoryGroupsHandler(c *gin.Context) {
	budgetID, ok := parseUintQuery(c, "budget_id")
	if !ok {
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	var groups []models.CategoryGroup
	if err := db.Where("budget_id = ?", budgetID).Order("sort_order, id").Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

func deleteCategoryGroupHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var g models.CategoryGroup
	if err := db.First(&g, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if _, ok := budgetOwnedBy(c, g.BudgetID); !ok {
		return
	}
	var cnt int64
	db.Model(&models.Category{}).Where("group_id = ?", id).Count(&cnt)
	if cnt > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "group still contains categories"})
		return
	}
	if err := db.Delete(&models.CategoryGroup{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

func createCategoryHandler(c *gin.Context) {
	var req struct {
		GroupID      uint             `json:"group_id" binding:"required"`
		Name         string           `json:"name" binding:"required"`
		TargetType   string           `json:"target_type"`
		TargetAmount *decimal.Decimal `json:"target_amount"`
		TargetDate   string           `json:"target_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var g models.CategoryGroup
	if err := db.First(&g, req.GroupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if _, ok := budgetOwnedBy(c, g.BudgetID); !ok {
		return
	}
	cat := models.Category{GroupID: req.GroupID, Name: req.Name, TargetType: req.TargetType, TargetAmount: req.TargetAmount}
	if req.TargetDate != "" {
		t, err := parseDate(req.TargetDate)
		if err != nil {
			respondError(c, err)
			return
		}
		cat.TargetDate = &t
	}
	if err := db.Create(&cat).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "category name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": cat.ID})
}

func listCategoriesHandler(c *gin.Context) {
	budgetID, ok := parseUintQuery(c, "budget_id")
	if !ok {
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	var cats []models.Category
	err := db.
		Joins("JOIN category_groups ON category_groups.id = categories.group_id").
		Where("category_groups.budget_id = ?", budgetID).
		Order("category_groups.sort_order, category_groups.id, categories.id").
		Find(&cats).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, cats)
}

// deleteCategoryHandler removes a category. Historical transactions keep
// existing with their category reference cleared, and the category's
// monthly-budget rows go with it (which moves Ready to Assign back up).
func deleteCategoryHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	budgetID, err := categoryBudgetID(db, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.MonthlyBudget{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "category deleted"})
}

func createPayeeHandler(c *gin.Context) {
	var req struct {
		BudgetID uint   `json:"budget_id" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := budgetOwnedBy(c, req.BudgetID); !ok {
		return
	}
	p := models.Payee{BudgetID: req.BudgetID, Name: req.Name}
	if err := db.Create(&p).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "payee name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID})
}

func listPayeesHandler(c *gin.Context) {
	budgetID, ok := parseUintQuery(c, "budget_id")
	if !ok {
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	var payees []models.Payee
	if err := db.Where("budget_id = ?", budgetID).Order("name").Find(&payees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, payees)
}

// resolveNamedPayee reuses an existing payee by exact name before creating a
// new one.
func resolveNamedPayee(tx *gorm.DB, budgetID uint, name string) (*models.Payee, error) {
	var p models.Payee
	err := tx.Where("budget_id = ? AND name = ?", budgetID, name).First(&p).Error
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	p = models.Payee{BudgetID: budgetID, Name: name}
	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func createTagHandler(c *gin.Context) {
	var req struct {
		BudgetID uint   `json:"budget_id" binding:"required"`
		Name     string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, ok := budgetOwnedBy(c, req.BudgetID); !ok {
		return
	}
	tag := models.Tag{BudgetID: req.BudgetID, Name: req.Name}
	if err := db.Create(&tag).Error; err != nil {
		if isUniqueConstraintError(err) {
			c.JSON(http.StatusConflict, gin.H{"error": "tag name already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": tag.ID})
}

func listTagsHandler(c *gin.Context) {
	budgetID, ok := parseUintQuery(c, "budget_id")
	if !ok {
		return
	}
	if _, ok := budgetOwnedBy(c, budgetID); !ok {
		return
	}
	var tags []models.Tag
	if err := db.Where("budget_id = ?", budgetID).Order("name").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, tags)
}
