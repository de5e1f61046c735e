package models

// Account types
const (
	AccountSavings = "SAVINGS"
	AccountCurrent = "CURRENT"
	AccountSalary  = "SALARY"
)

// Account is a bank account aggregate. The account owns its transaction list:
// only the business layer appends to it, and the ledger reads and writes the
// collection as a whole.
type Account struct {
	CustomerID     string        `json:"customerId"`
	Username       string        `json:"username"`
	PasswordHash   string        `json:"password"`
	FirstName      string        `json:"firstName"`
	LastName       string        `json:"lastName"`
	DOB            string        `json:"dob"`
	Gender         string        `json:"gender"`
	AccountType    string        `json:"accountType"`
	AccountNumber  string        `json:"accountNumber"`
	Balance        float64       `json:"balance"`
	Transactions   []Transaction `json:"transactions"`
	FailedAttempts int           `json:"failedAttempts"`
	Locked         bool          `json:"locked"`
	PendingAMBFees float64       `json:"pendingAmbFees"`
}

// HasTransaction reports whether the account already holds a transaction with
// the given ID. Used by replay to keep re-insertion idempotent.
func (a *Account) HasTransaction(txnID string) bool {
	for i := range a.Transactions {
		if a.Transactions[i].ID == txnID {
			return true
		}
	}
	return false
}

// FullName returns the account holder's display name.
func (a *Account) FullName() string {
	return a.FirstName + " " + a.LastName
}
