package models

// ActivityRecord is one row of the append-only activity log. It is a superset
// of the Transaction fields plus the account coordinates and transfer mode.
// Amount and ResultingBalance are kept as strings so that rows without them
// (non-transaction actions such as LOGIN or ACCOUNT_LINKED) round-trip as
// empty cells rather than as zeroes.
type ActivityRecord struct {
	Timestamp        string
	Username         string
	AccountNumber    string
	Action           string
	Amount           string
	Mode             string
	ResultingBalance string
	TxnID            string
	ChequeID         string
	Metadata         map[string]string
}
