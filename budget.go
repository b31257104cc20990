package main

import (
	"errors"

	"be04/models"
	"be04/pkg/period"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Aggregation reads always recompute from live transaction rows. The cached
// activity/available columns on monthly_budgets are refreshed opportunistically
// when the row is written but are never read back as truth.

// categoryActivity sums the amounts of all transactions posted to the
// category inside the period. Negative for net spending.
func categoryActivity(gdb *gorm.DB, categoryID uint, p period.Period) (decimal.Decimal, error) {
	var txns []models.Transaction
	err := gdb.Where("category_id = ? AND date >= ? AND date < ?", categoryID, p.Start, p.End).
		Find(&txns).Error
	if err != nil {
		return decimal.Zero, err
	}
	// Summed in Go so decimal precision is identical on every backend.
	sum := decimal.Zero
	for _, t := range txns {
		sum = sum.Add(t.Amount)
	}
	return sum, nil
}

// budgetedAmount returns the assigned amount for (category, period), zero
// when no row exists yet.
func budgetedAmount(gdb *gorm.DB, categoryID uint, p period.Period) (decimal.Decimal, error) {
	var mb models.MonthlyBudget
	err := gdb.Where("category_id = ? AND month = ?", categoryID, p.Key()).First(&mb).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return mb.Budgeted, nil
}

// categoryAvailable is budgeted + activity; activity is negative for
// expenses so available shrinks as the category is spent from.
func categoryAvailable(gdb *gorm.DB, categoryID uint, p period.Period) (decimal.Decimal, error) {
	budgeted, err := budgetedAmount(gdb, categoryID, p)
	if err != nil {
		return decimal.Zero, err
	}
	activity, err := categoryActivity(gdb, categoryID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return budgeted.Add(activity), nil
}

// readyToAssign is the unallocated money for a budget and period: the sum of
// on-budget account balances minus everything budgeted for the period.
func readyToAssign(gdb *gorm.DB, budgetID uint, p period.Period) (decimal.Decimal, error) {
	var accounts []models.Account
	err := gdb.Where("budget_id = ? AND on_budget = ?", budgetID, true).Find(&accounts).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	var rows []models.MonthlyBudget
	err = gdb.
		Joins("JOIN categories ON categories.id = monthly_budgets.category_id").
		Joins("JOIN category_groups ON category_groups.id = categories.group_id").
		Where("category_groups.budget_id = ? AND monthly_budgets.month = ?", budgetID, p.Key()).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	for _, mb := range rows {
		total = total.Sub(mb.Budgeted)
	}
	return total, nil
}

// setBudgeted upserts the assigned amount for (category, period) and returns
// the recomputed Ready to Assign. The cached activity/available columns are
// refreshed from the live aggregate as part of the same write.
func setBudgeted(gdb *gorm.DB, budgetID, categoryID uint, p period.Period, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, validationErrorf("budgeted amount must not be negative, got %s", amount)
	}
	rta := decimal.Zero
	err := gdb.Transaction(func(tx *gorm.DB) error {
		owner, err := categoryBudgetID(tx, categoryID)
		if err != nil {
			return err
		}
		if owner != budgetID {
			return validationErrorf("category %d does not belong to budget %d", categoryID, budgetID)
		}
		activity, err := categoryActivity(tx, categoryID, p)
		if err != nil {
			return err
		}
		mb := models.MonthlyBudget{
			CategoryID: categoryID,
			Month:      p.Key(),
			Budgeted:   amount,
			Activity:   activity,
			Available:  amount.Add(activity),
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}, {Name: "month"}},
			DoUpdates: clause.AssignmentColumns([]string{"budgeted", "activity", "available", "updated_at"}),
		}).Create(&mb).Error
		if err != nil {
			return err
		}
		rta, err = readyToAssign(tx, budgetID, p)
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return rta, nil
}

// categoryBudgetID resolves the budget a category belongs to through its group.
func categoryBudgetID(gdb *gorm.DB, categoryID uint) (uint, error) {
	var cat models.Category
	if err := gdb.Preload("Group").First(&cat, categoryID).Error; err != nil {
		return 0, err
	}
	return cat.Group.BudgetID, nil
}

// categoryMonth is one category line in a month view.
type categoryMonth struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	GroupID      uint            `json:"group_id"`
	GroupName    string          `json:"group_name"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Activity     decimal.Decimal `json:"activity"`
	Available    decimal.Decimal `json:"available"`
}

// monthView assembles budgeted/activity/available for every category of the
// budget plus the period's Ready to Assign. Recomputing it is idempotent: it
// is a pure function of the current transaction and monthly-budget rows.
func monthView(gdb *gorm.DB, budgetID uint, p period.Period) ([]categoryMonth, decimal.Decimal, error) {
	var cats []models.Category
	err := gdb.Preload("Group").
		Joins("JOIN category_groups ON category_groups.id = categories.group_id").
		Where("category_groups.budget_id = ?", budgetID).
		Order("category_groups.sort_order, category_groups.id, categories.id").
		Find(&cats).Error
	if err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]categoryMonth, 0, len(cats))
	for _, cat := range cats {
		budgeted, err := budgetedAmount(gdb, cat.ID, p)
		if err != nil {
			return nil, decimal.Zero, err
		}
		activity, err := categoryActivity(gdb, cat.ID, p)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, categoryMonth{
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			GroupID:      cat.GroupID,
			GroupName:    cat.Group.Name,
			Budgeted:     budgeted,
			Activity:     activity,
			Available:    budgeted.Add(activity),
		})
	}

	rta, err := readyToAssign(gdb, budgetID, p)
	if err != nil {
		return nil, decimal.Zero, err
	}
	return lines, rta, nil
}

// Insight signal levels for percent-used warnings.
const (
	insightOverspent = "overspent"
	insightAtRisk    = "at_risk"
)

// categoryInsight is a warning emitted for a category whose spending is
// approaching or past its budgeted amount.
type categoryInsight struct {
	CategoryID   uint            `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Budgeted     decimal.Decimal `json:"budgeted"`
	Activity     decimal.Decimal `json:"activity"`
	PercentUsed  decimal.Decimal `json:"percent_used"`
	Signal       string          `json:"signal"`
}

var (
	percentAtRisk    = decimal.NewFromInt(80)
	percentOverspent = decimal.NewFromInt(100)
	oneHundred       = decimal.NewFromInt(100)
)

// budgetInsights flags categories at >=100% (overspent) or >=80% (at risk)
// of their budgeted amount for the period. Categories with nothing budgeted
// produce no signal.
func budgetInsights(gdb *gorm.DB, budgetID uint, p period.Period) ([]categoryInsight, error) {
	lines, _, err := monthView(gdb, budgetID, p)
	if err != nil {
		return nil, err
	}
	insights := []categoryInsight{}
	for _, line := range lines {
		if !line.Budgeted.IsPositive() {
			continue
		}
		pct := line.Activity.Abs().Div(line.Budgeted).Mul(oneHundred)
		signal := ""
		switch {
		case pct.GreaterThanOrEqual(percentOverspent):
			signal = insightOverspent
		case pct.GreaterThanOrEqual(percentAtRisk):
			signal = insightAtRisk
		default:
			continue
		}
		insights = append(insights, categoryInsight{
			CategoryID:   line.CategoryID,
			CategoryName: line.CategoryName,
			Budgeted:     line.Budgeted,
			Activity:     line.Activity,
			PercentUsed:  pct,
			Signal:       signal,
		})
	}
	return insights, nil
}
