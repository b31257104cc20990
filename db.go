package main

import (
	"os"
	"strings"

	"be04/models"
	"be04/pkg/logging"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

func initDB() {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		logging.Logger.Fatal("DB_DSN is not set. This project requires a Postgres DSN in DB_DSN.")
	}
	var err error
	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logging.Logger.WithError(err).Fatal("failed to connect postgres database")
	}
	// Control schema migrations with env DB_AUTO_MIGRATE (default true). Any permission errors will be logged and ignored.
	shouldMigrate := true
	if v := os.Getenv("DB_AUTO_MIGRATE"); v != "" {
		lv := strings.ToLower(v)
		if lv == "false" || lv == "0" || lv == "no" {
			shouldMigrate = false
		}
	}
	if shouldMigrate {
		migrateAll(db)
	}
	seedDB()
}

// migrateAll runs AutoMigrate model by model so a failure on one doesn't
// block the others. The roles master table goes first so the users FK can be
// applied safely.
func migrateAll(gdb *gorm.DB) {
	for _, m := range []interface{}{
		&models.Role{},
		&models.User{},
		&models.RefreshToken{},
		&models.Budget{},
		&models.Account{},
		&models.CategoryGroup{},
		&models.Category{},
		&models.Payee{},
		&models.Transaction{},
		&models.MonthlyBudget{},
		&models.Tag{},
	} {
		if err := gdb.AutoMigrate(m); err != nil {
			logging.Logger.WithError(err).Warnf("migration warning (%T)", m)
		}
	}
}

func seedDB() {
	// Ensure master roles exist
	roles := []models.Role{{Name: "administrator", Description: "full access"}, {Name: "user", Description: "regular user"}}
	for _, r := range roles {
		var cnt int64
		db.Model(&models.Role{}).Where("name = ?", r.Name).Count(&cnt)
		if cnt == 0 {
			db.Create(&r)
		}
	}
}
