package main

import (
	"be04/models"
	"be04/pkg/logging"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// reconcileBalances is the consistency backstop behind the ledger: it
// recomputes every account balance from the live transaction rows and
// overwrites any cached value that drifted (external writes, interrupted
// sessions). Returns the number of accounts repaired.
func reconcileBalances(gdb *gorm.DB) (int, error) {
	var accounts []models.Account
	if err := gdb.Find(&accounts).Error; err != nil {
		return 0, err
	}
	repaired := 0
	for _, acct := range accounts {
		var txns []models.Transaction
		if err := gdb.Where("account_id = ?", acct.ID).Find(&txns).Error; err != nil {
			return repaired, err
		}
		computed := decimal.Zero
		for _, t := range txns {
			computed = computed.Add(t.Amount)
		}
		if computed.Equal(acct.Balance) {
			continue
		}
		logging.Logger.WithFields(map[string]interface{}{
			"account_id": acct.ID,
			"cached":     acct.Balance.String(),
			"computed":   computed.String(),
		}).Warn("account balance drifted from transaction sum, repairing")
		err := gdb.Model(&models.Account{}).
			Where("id = ?", acct.ID).
			Update("balance", computed).Error
		if err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

// startReconcileCron schedules the nightly balance audit. Disable with
// RECONCILE_CRON=disabled.
func startReconcileCron(gdb *gorm.DB) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		repaired, err := reconcileBalances(gdb)
		if err != nil {
			logging.Logger.WithError(err).Error("balance reconciliation failed")
			return
		}
		logging.Logger.WithField("repaired", repaired).Info("balance reconciliation finished")
	})
	if err != nil {
		logging.Logger.WithError(err).Error("failed to schedule balance reconciliation")
		return c
	}
	c.Start()
	return c
}
