package main

import (
	"net/http"
	"strconv"

	"be04/models"
	"be04/pkg/period"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// budgetPeriodFromQuery resolves the budget period enclosing the optional
// ?date= query parameter (default today) using the budget's month start day.
func budgetPeriodFromQuery(c *gin.Context, b *models.Budget) (period.Period, bool) {
	ref, err := parseDate(c.Query("date"))
	if err != nil {
		respondError(c, err)
		return period.Period{}, false
	}
	p, err := period.ForDate(ref, b.MonthStartDay)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return period.Period{}, false
	}
	return p, true
}

// setBudgetedHandler assigns money to a category for the period enclosing
// the given date and returns the recomputed Ready to Assign.
func setBudgetedHandler(c *gin.Context) {
	var req struct {
		CategoryID uint            `json:"category_id" binding:"required"`
		Date       string          `json:"date"`
		Budgeted   decimal.Decimal `json:"budgeted"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	budgetID, err := categoryBudgetID(db, req.CategoryID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "category not found"})
		return
	}
	b, ok := budgetOwnedBy(c, budgetID)
	if !ok {
		return
	}
	ref, err := parseDate(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	p, err := period.ForDate(ref, b.MonthStartDay)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rta, err := setBudgeted(db, b.ID, req.CategoryID, p, req.Budgeted)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": p.Key(), "ready_to_assign": rta})
}

func monthViewHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	b, ok := budgetOwnedBy(c, id)
	if !ok {
		return
	}
	p, ok := budgetPeriodFromQuery(c, b)
	if !ok {
		return
	}
	lines, rta, err := monthView(db, b.ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"month":           p.Key(),
		"start":           p.Start.Format("2006-01-02"),
		"end":             p.LastDay().Format("2006-01-02"),
		"ready_to_assign": rta,
		"categories":      lines,
	})
}

func insightsHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	b, ok := budgetOwnedBy(c, id)
	if !ok {
		return
	}
	p, ok := budgetPeriodFromQuery(c, b)
	if !ok {
		return
	}
	insights, err := budgetInsights(db, b.ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"month": p.Key(), "insights": insights})
}

// spendingReportHandler returns inflow/outflow/net per budget period over
// the most recent periods (default 6, max 24). Transfer legs are excluded:
// moving money between accounts is not spending.
func spendingReportHandler(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	b, ok := budgetOwnedBy(c, id)
	if !ok {
		return
	}
	p, ok := budgetPeriodFromQuery(c, b)
	if !ok {
		return
	}
	periods := 6
	if v := c.Query("periods"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 24 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "periods must be between 1 and 24"})
			return
		}
		periods = n
	}

	type reportLine struct {
		Month   string          `json:"month"`
		Inflow  decimal.Decimal `json:"inflow"`
		Outflow decimal.Decimal `json:"outflow"`
		Net     decimal.Decimal `json:"net"`
	}
	lines := make([]reportLine, 0, periods)
	for i := 0; i < periods; i++ {
		var txns []models.Transaction
		err := db.
			Joins("JOIN accounts ON accounts.id = transactions.account_id").
			Where("accounts.budget_id = ? AND transactions.transfer_group_id = ? AND transactions.date >= ? AND transactions.date < ?",
				b.ID, "", p.Start, p.End).
			Find(&txns).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		inflow, outflow := decimal.Zero, decimal.Zero
		for _, t := range txns {
			if t.Amount.IsPositive() {
				inflow = inflow.Add(t.Amount)
			} else {
				outflow = outflow.Add(t.Amount)
			}
		}
		lines = append(lines, reportLine{
			Month:   p.Key(),
			Inflow:  inflow,
			Outflow: outflow,
			Net:     inflow.Add(outflow),
		})
		p = p.Prev()
	}
	// oldest first
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	c.JSON(http.StatusOK, gin.H{"periods": lines})
}
