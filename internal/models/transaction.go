package models

// Transaction types. Credit types increase the balance, debit types decrease it.
const (
	TxnDeposit              = "DEPOSIT"
	TxnWithdraw             = "WITHDRAW"
	TxnNEFTSent             = "NEFT_SENT"
	TxnNEFTReceived         = "NEFT_RECEIVED"
	TxnRTGSSent             = "RTGS_SENT"
	TxnRTGSReceived         = "RTGS_RECEIVED"
	TxnInterAccountSent     = "INTER_ACCOUNT_SENT"
	TxnInterAccountReceived = "INTER_ACCOUNT_RECEIVED"
	TxnAMBFee               = "AMB_FEE"
	TxnAMBFeeSettled        = "AMB_FEE_SETTLED"
	TxnBillPayment          = "BILL_PAYMENT"
	TxnExpense              = "EXPENSE"
	TxnSalaryCredit         = "SALARY_CREDIT"
	TxnIntlSent             = "INTL_SENT"
	TxnRewardRedeemed       = "REWARD_REDEEMED"
)

// Transaction represents a single financial transaction. Transactions are
// immutable once created: the ID is globally unique and never reused, and
// ResultingBalance is the account balance immediately after the transaction.
type Transaction struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	Amount           float64           `json:"amount"`
	ResultingBalance float64           `json:"resultingBalance"`
	Timestamp        string            `json:"timestamp"`
	ChequeID         string            `json:"chequeId,omitempty"`
	Category         string            `json:"category,omitempty"`
	Merchant         string            `json:"merchant,omitempty"`
	PaymentMethod    string            `json:"paymentMethod,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

// IsDebit reports whether the transaction moves money out of the account.
func (t Transaction) IsDebit() bool {
	switch t.Type {
	case TxnWithdraw, TxnNEFTSent, TxnRTGSSent, TxnInterAccountSent,
		TxnAMBFee, TxnAMBFeeSettled, TxnExpense, TxnBillPayment, TxnIntlSent:
		return true
	}
	return false
}

// IsCredit reports whether the transaction moves money into the account.
func (t Transaction) IsCredit() bool {
	switch t.Type {
	case TxnDeposit, TxnNEFTReceived, TxnRTGSReceived,
		TxnInterAccountReceived, TxnSalaryCredit, TxnRewardRedeemed:
		return true
	}
	return false
}
