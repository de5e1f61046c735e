package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/fhic/bankcore/internal/clock"
	"github.com/fhic/bankcore/internal/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.ErrorLevel)
	return log
}

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), clock.New(), testLogger())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestAccountsRoundTrip(t *testing.T) {
	s := testStore(t)

	orig := []*models.Account{
		{
			CustomerID:    "CUST11111111",
			Username:      "asha",
			PasswordHash:  "$2a$10$hash",
			FirstName:     "Asha",
			LastName:      "Rao",
			AccountType:   models.AccountSavings,
			AccountNumber: "562100000001",
			Balance:       2500.50,
			Transactions: []models.Transaction{
				{
					ID:               "FHIC0000000001",
					Type:             models.TxnDeposit,
					Amount:           2500.50,
					ResultingBalance: 2500.50,
					Timestamp:        "01-08-2026 10:00:00",
					Metadata:         map[string]string{"method": "Cash"},
				},
			},
		},
		{
			Username:      "vik",
			AccountType:   models.AccountCurrent,
			AccountNumber: "562100000002",
			Balance:       100,
		},
	}

	if err := s.SaveAccounts(orig); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}
	loaded, err := s.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("loaded %d accounts, want 2", len(loaded))
	}
	a := loaded[0]
	if a.AccountNumber != "562100000001" || a.Balance != 2500.50 {
		t.Errorf("account mismatch: %+v", a)
	}
	if len(a.Transactions) != 1 || a.Transactions[0].ID != "FHIC0000000001" {
		t.Errorf("transactions not restored: %+v", a.Transactions)
	}
	if a.Transactions[0].Metadata["method"] != "Cash" {
		t.Errorf("metadata not restored: %+v", a.Transactions[0].Metadata)
	}
}

func TestSaveFailureLeavesPreviousSnapshotIntact(t *testing.T) {
	s := testStore(t)

	first := []*models.Account{{Username: "asha", AccountNumber: "562100000001", Balance: 1000}}
	if err := s.SaveAccounts(first); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	// Block the temp-file path with a directory so the next save cannot even
	// create its temp file, simulating a failed write mid-save.
	tmpPath := filepath.Join(s.Dir(), accountsJSONFile+".tmp")
	if err := os.Mkdir(tmpPath, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	second := []*models.Account{{Username: "asha", AccountNumber: "562100000001", Balance: 9999}}
	if err := s.SaveAccounts(second); err == nil {
		t.Fatal("SaveAccounts succeeded, want error")
	}

	os.RemoveAll(tmpPath)
	loaded, err := s.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Balance != 1000 {
		t.Fatalf("previous snapshot damaged: %+v", loaded)
	}
}

func TestCorruptSnapshotFallsBackToCSV(t *testing.T) {
	s := testStore(t)

	accounts := []*models.Account{{
		Username:       "asha",
		PasswordHash:   "hash",
		FirstName:      "Asha",
		LastName:       "Rao",
		AccountType:    models.AccountSavings,
		AccountNumber:  "562100000001",
		Balance:        750.25,
		FailedAttempts: 2,
		Locked:         true,
	}}
	if err := s.SaveAccounts(accounts); err != nil {
		t.Fatalf("SaveAccounts: %v", err)
	}

	// Corrupt the primary snapshot.
	if err := os.WriteFile(filepath.Join(s.Dir(), accountsJSONFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt snapshot: %v", err)
	}

	loaded, err := s.LoadAccounts()
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("loaded %d accounts from CSV fallback, want 1", len(loaded))
	}
	a := loaded[0]
	if a.Username != "asha" || a.Balance != 750.25 || a.FailedAttempts != 2 || !a.Locked {
		t.Errorf("CSV fallback fields wrong: %+v", a)
	}
	if a.PasswordHash != "hash" || a.AccountType != models.AccountSavings {
		t.Errorf("CSV fallback fields wrong: %+v", a)
	}
	// Transaction history never comes from the CSV path, only from replay.
	if len(a.Transactions) != 0 {
		t.Errorf("CSV fallback should carry no transactions: %+v", a.Transactions)
	}
}

func TestLoadMissingCollectionsYieldEmpty(t *testing.T) {
	s := testStore(t)

	if accounts, err := s.LoadAccounts(); err != nil || len(accounts) != 0 {
		t.Errorf("LoadAccounts on empty dir: %v %v", accounts, err)
	}
	if customers, err := s.LoadCustomers(); err != nil || len(customers) != 0 {
		t.Errorf("LoadCustomers on empty dir: %v %v", customers, err)
	}
	if loans, err := s.LoadLoans(); err != nil || len(loans) != 0 {
		t.Errorf("LoadLoans on empty dir: %v %v", loans, err)
	}
	if bills, err := s.LoadBills(); err != nil || len(bills) != 0 {
		t.Errorf("LoadBills on empty dir: %v %v", bills, err)
	}
}

func TestCustomersAndLoansRoundTrip(t *testing.T) {
	s := testStore(t)

	customers := []*models.Customer{{
		CustomerID:     "CUST12345678",
		Username:       "asha",
		FirstName:      "Asha",
		LastName:       "Rao",
		Email:          "asha@example.com",
		AccountNumbers: []string{"562100000001"},
		Salary:         85000,
		CreditScore:    720,
	}}
	if err := s.SaveCustomers(customers); err != nil {
		t.Fatalf("SaveCustomers: %v", err)
	}
	gotCustomers, err := s.LoadCustomers()
	if err != nil {
		t.Fatalf("LoadCustomers: %v", err)
	}
	if len(gotCustomers) != 1 || gotCustomers[0].CustomerID != "CUST12345678" {
		t.Fatalf("customers mismatch: %+v", gotCustomers)
	}
	if gotCustomers[0].Salary != 85000 {
		t.Errorf("salary not restored: %+v", gotCustomers[0])
	}

	loans := []*models.Loan{{
		LoanID:       "LN001",
		CustomerID:   "CUST12345678",
		Principal:    500000,
		InterestRate: 10.5,
		TenureMonths: 60,
		StartDate:    "2026-01-01",
		Status:       models.LoanActive,
		EMIsPaid:     7,
	}}
	if err := s.SaveLoans(loans); err != nil {
		t.Fatalf("SaveLoans: %v", err)
	}
	gotLoans, err := s.LoadLoans()
	if err != nil {
		t.Fatalf("LoadLoans: %v", err)
	}
	if len(gotLoans) != 1 || gotLoans[0].LoanID != "LN001" || gotLoans[0].EMIsPaid != 7 {
		t.Fatalf("loans mismatch: %+v", gotLoans)
	}
}
