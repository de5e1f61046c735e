package models

// Card kinds
const (
	CardDebit  = "DEBIT"
	CardCredit = "CREDIT"
)

// Card represents a bank card linked to an account. The PAN and expiry date
// are stored AES-encrypted; only a bcrypt hash of the CVV is kept.
type Card struct {
	CardID        string  `json:"cardId"`
	AccountNumber string  `json:"accountNumber"`
	Kind          string  `json:"kind"`
	CardNumber    string  `json:"cardNumber"` // encrypted at rest
	ExpiryDate    string  `json:"expiryDate"` // encrypted at rest
	CVVHash       string  `json:"cvvHash"`
	HMAC          string  `json:"hmac"`
	CreditLimit   float64 `json:"creditLimit,omitempty"`
	RewardPoints  int     `json:"rewardPoints"`
	IssuedAt      string  `json:"issuedAt"`
	Blocked       bool    `json:"blocked"`
}
