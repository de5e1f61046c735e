package models

// Bill frequencies
const (
	FreqMonthly   = "MONTHLY"
	FreqQuarterly = "QUARTERLY"
	FreqYearly    = "YEARLY"
)

// RecurringBill is a scheduled payment (utility, subscription, rent, ...)
// attached to an account. Auto-debit bills carry a NACH mandate ID and are
// paid by the daily scheduler when due.
type RecurringBill struct {
	BillID        string  `json:"billId"`
	AccountNumber string  `json:"accountNumber"`
	Name          string  `json:"name"`
	Category      string  `json:"category"`
	Amount        float64 `json:"amount"`
	Frequency     string  `json:"frequency"`
	DayOfMonth    int     `json:"dayOfMonth"` // 1-28
	AutoDebit     bool    `json:"autoDebit"`
	NACHMandateID string  `json:"nachMandateId,omitempty"`
	NextDueDate   string  `json:"nextDueDate"` // YYYY-MM-DD
	LastPaidDate  string  `json:"lastPaidDate,omitempty"`
	MissedCount   int     `json:"missedCount"`
	Active        bool    `json:"active"`
}

// BillTemplate is a predefined recurring-bill shape with a sane amount range.
type BillTemplate struct {
	Name      string
	Category  string
	MinAmount float64
	MaxAmount float64
	Frequency string
}

// CommonBills are the built-in templates offered by the bills menu.
var CommonBills = []BillTemplate{
	{"Electricity", "Utilities", 1500, 2500, FreqMonthly},
	{"Internet", "Utilities", 800, 1200, FreqMonthly},
	{"Mobile", "Utilities", 400, 800, FreqMonthly},
	{"Netflix", "Entertainment", 199, 649, FreqMonthly},
	{"Amazon Prime", "Entertainment", 299, 1499, FreqYearly},
	{"Spotify", "Entertainment", 119, 149, FreqMonthly},
	{"Insurance Premium", "Insurance", 5000, 15000, FreqQuarterly},
	{"Rent", "Housing", 10000, 50000, FreqMonthly},
	{"Gym Membership", "Health", 1000, 3000, FreqMonthly},
	{"DTH/Cable TV", "Entertainment", 300, 600, FreqMonthly},
	{"Water Bill", "Utilities", 200, 500, FreqMonthly},
	{"Society Maintenance", "Housing", 2000, 5000, FreqMonthly},
}
