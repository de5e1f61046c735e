package ledger

import (
	"strconv"

	"github.com/fhic/bankcore/internal/models"
)

// replayableActions are the activity-log actions that produce a transaction
// on the target account during replay. Other actions (logins, account links,
// mandate registrations) are informational and skipped.
var replayableActions = map[string]bool{
	models.TxnDeposit:              true,
	models.TxnWithdraw:             true,
	models.TxnNEFTSent:             true,
	models.TxnNEFTReceived:         true,
	models.TxnRTGSSent:             true,
	models.TxnRTGSReceived:         true,
	models.TxnInterAccountSent:     true,
	models.TxnInterAccountReceived: true,
	models.TxnAMBFee:               true,
	models.TxnAMBFeeSettled:        true,
	models.TxnBillPayment:          true,
	models.TxnExpense:              true,
	models.TxnSalaryCredit:         true,
	models.TxnIntlSent:             true,
	models.TxnRewardRedeemed:       true,
}

// replayActivity reconciles loaded accounts with the activity log so that
// every durably-recorded event is present in memory, even those missed by the
// last snapshot. Rows are applied in file order: the log, not the snapshot,
// is the source of truth for the most recent balance, so the balance of an
// account converges to the resultingBalance of its last replayed row.
//
// Rows for unknown accounts are dropped silently (they may reference closed
// accounts), and rows with malformed numerics are skipped without aborting
// the scan. Re-running replay over an already-patched account set is a no-op
// because insertion is keyed on transaction ID.
func (s *Store) replayActivity(accounts []*models.Account) {
	records, err := s.Activity.Records()
	if err != nil {
		s.log.Warnf("Skipping activity replay: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	byNumber := make(map[string]*models.Account, len(accounts))
	byUsername := make(map[string]*models.Account, len(accounts))
	for _, acc := range accounts {
		if acc.AccountNumber != "" {
			byNumber[acc.AccountNumber] = acc
		}
		// Username is a fallback for legacy rows lacking an account number.
		if acc.Username != "" {
			byUsername[acc.Username] = acc
		}
	}

	replayed := 0
	for _, rec := range records {
		acc := byNumber[rec.AccountNumber]
		if acc == nil {
			acc = byUsername[rec.Username]
		}
		if acc == nil {
			continue
		}
		if !replayableActions[rec.Action] || rec.Amount == "" || rec.ResultingBalance == "" {
			continue
		}
		amount, err := strconv.ParseFloat(rec.Amount, 64)
		if err != nil {
			continue
		}
		balance, err := strconv.ParseFloat(rec.ResultingBalance, 64)
		if err != nil {
			continue
		}
		if rec.TxnID == "" || acc.HasTransaction(rec.TxnID) {
			continue
		}

		txn := models.Transaction{
			ID:               rec.TxnID,
			Type:             rec.Action,
			Amount:           amount,
			ResultingBalance: balance,
			Timestamp:        rec.Timestamp,
			ChequeID:         rec.ChequeID,
			Metadata:         rec.Metadata,
		}
		if rec.Metadata != nil {
			txn.Category = rec.Metadata["category"]
			txn.Merchant = rec.Metadata["merchant"]
			txn.PaymentMethod = rec.Metadata["method"]
		}
		acc.Transactions = append(acc.Transactions, txn)
		acc.Balance = balance
		replayed++
	}

	if replayed > 0 {
		s.log.Infof("Replayed %d activity rows not present in snapshot", replayed)
	}
}
