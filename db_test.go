package main

import (
	"fmt"
	"testing"
	"time"

	"be04/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database with the full schema. The single
// connection keeps every query on the same in-memory instance.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("unwrap test db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	migrateAll(gdb)
	return gdb
}

type fixture struct {
	budget   models.Budget
	checking models.Account
	savings  models.Account
	group    models.CategoryGroup
	category models.Category
}

// seedFixture creates a user with one budget, two on-budget accounts and one
// category. monthStartDay 1 unless the test reconfigures the budget.
func seedFixture(t *testing.T, gdb *gorm.DB) fixture {
	t.Helper()
	user := models.User{Username: fmt.Sprintf("tester-%d", time.Now().UnixNano()), HashedPassword: []byte("x")}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	f := fixture{
		budget: models.Budget{UserID: user.ID, Name: "Household", CurrencyCode: "IDR", MonthStartDay: 1},
	}
	if err := gdb.Create(&f.budget).Error; err != nil {
		t.Fatalf("create budget: %v", err)
	}
	f.checking = models.Account{BudgetID: f.budget.ID, Name: "Checking", Type: models.AccountChecking, OnBudget: true}
	f.savings = models.Account{BudgetID: f.budget.ID, Name: "Savings", Type: models.AccountSavings, OnBudget: true}
	for _, acct := range []*models.Account{&f.checking, &f.savings} {
		if err := gdb.Create(acct).Error; err != nil {
			t.Fatalf("create account: %v", err)
		}
	}
	f.group = models.CategoryGroup{BudgetID: f.budget.ID, Name: "Everyday"}
	if err := gdb.Create(&f.group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	f.category = models.Category{GroupID: f.group.ID, Name: "Groceries"}
	if err := gdb.Create(&f.category).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return f
}

func accountBalance(t *testing.T, gdb *gorm.DB, accountID uint) decimal.Decimal {
	t.Helper()
	var acct models.Account
	if err := gdb.First(&acct, accountID).Error; err != nil {
		t.Fatalf("load account %d: %v", accountID, err)
	}
	return acct.Balance
}

// liveSum recomputes the ground truth the cached balance must agree with.
func liveSum(t *testing.T, gdb *gorm.DB, accountID uint) decimal.Decimal {
	t.Helper()
	var txns []models.Transaction
	if err := gdb.Where("account_id = ?", accountID).Find(&txns).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	sum := decimal.Zero
	for _, txn := range txns {
		sum = sum.Add(txn.Amount)
	}
	return sum
}

// requireInvariant asserts cached balance == sum of existing transactions.
func requireInvariant(t *testing.T, gdb *gorm.DB, accountID uint) {
	t.Helper()
	cached := accountBalance(t, gdb, accountID)
	live := liveSum(t, gdb, accountID)
	if !cached.Equal(live) {
		t.Fatalf("balance invariant broken for account %d: cached=%s live=%s", accountID, cached, live)
	}
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func txnByID(t *testing.T, gdb *gorm.DB, id uint) models.Transaction {
	t.Helper()
	var txn models.Transaction
	if err := gdb.First(&txn, id).Error; err != nil {
		t.Fatalf("load transaction %d: %v", id, err)
	}
	return txn
}

// addTxn inserts a categorized transaction through the ledger.
func addTxn(t *testing.T, gdb *gorm.DB, accountID uint, categoryID *uint, date time.Time, amount decimal.Decimal) models.Transaction {
	t.Helper()
	txn := models.Transaction{AccountID: accountID, CategoryID: categoryID, Date: date, Amount: amount, Approved: true}
	err := gdb.Transaction(func(tx *gorm.DB) error {
		return createTransaction(tx, &txn)
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return txn
}
