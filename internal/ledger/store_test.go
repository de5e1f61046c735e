package ledger

import (
	"testing"

	"github.com/fhic/bankcore/internal/models"
)

// Loading a snapshot must seed the registries so identifiers already in use
// can never be reissued.
func TestLoadRegistersExistingIdentifiers(t *testing.T) {
	s := testStore(t)

	accounts := []*models.Account{{
		Username:      "asha",
		AccountNumber: "562100000001",
		Balance:       500,
		Transactions: []models.Transaction{
			{ID: "FHIC0000000001", Type: models.TxnDeposit, Amount: 500, ResultingBalance: 500},
		},
	}}
	if err := s.SaveAccounts(accounts); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}
	if _, err := s.LoadAccounts(); err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}

	if !s.AccountNumbers.Contains("562100000001") {
		t.Error("account number not registered on load")
	}
	if !s.TransactionIDs.Contains("FHIC0000000001") {
		t.Error("transaction id not registered on load")
	}
}

func TestLoadAccountsWithoutReplay(t *testing.T) {
	s := testStore(t)

	if err := s.SaveAccounts([]*models.Account{
		{Username: "asha", AccountNumber: "562100000001", Balance: 1000},
	}); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}
	appendTestRow(t, s, models.ActivityRecord{
		Timestamp: "01-08-2026 10:00:00", Username: "asha", AccountNumber: "562100000001",
		Action: models.TxnDeposit, Amount: "500", ResultingBalance: "1500", TxnID: "T1",
	})

	plain, err := s.LoadAccountsWithoutReplay()
	if err != nil {
		t.Fatalf("LoadAccountsWithoutReplay: %v", err)
	}
	if len(plain) != 1 || plain[0].Balance != 1000 || len(plain[0].Transactions) != 0 {
		t.Fatalf("replay leaked into plain load: %+v", plain[0])
	}

	replayed, err := s.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if replayed[0].Balance != 1500 || len(replayed[0].Transactions) != 1 {
		t.Fatalf("replay missing from full load: %+v", replayed[0])
	}
}
