// One-shot balance audit: recomputes every account balance from its
// transactions and reports (or with -fix repairs) any drift.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"be04/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	fix := flag.Bool("fix", false, "repair drifted balances instead of only reporting them")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	var accounts []models.Account
	if err := gdb.Find(&accounts).Error; err != nil {
		log.Fatalf("load accounts: %v", err)
	}

	drifted := 0
	for _, acct := range accounts {
		var txns []models.Transaction
		if err := gdb.Where("account_id = ?", acct.ID).Find(&txns).Error; err != nil {
			log.Fatalf("load transactions for account %d: %v", acct.ID, err)
		}
		computed := decimal.Zero
		for _, t := range txns {
			computed = computed.Add(t.Amount)
		}
		if computed.Equal(acct.Balance) {
			continue
		}
		drifted++
		fmt.Printf("account %d (%s): cached=%s computed=%s\n", acct.ID, acct.Name, acct.Balance, computed)
		if *fix {
			err := gdb.Model(&models.Account{}).Where("id = ?", acct.ID).
				Update("balance", computed).Error
			if err != nil {
				log.Fatalf("repair account %d: %v", acct.ID, err)
			}
			fmt.Printf("account %d repaired\n", acct.ID)
		}
	}
	fmt.Printf("checked %d accounts, %d drifted\n", len(accounts), drifted)
	if drifted > 0 && !*fix {
		os.Exit(1)
	}
}
