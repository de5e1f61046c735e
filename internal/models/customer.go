package models

// Customer holds customer identity, employment details used by loan
// eligibility checks, and the list of linked account numbers.
type Customer struct {
	CustomerID     string   `json:"customerId"`
	Username       string   `json:"username"`
	PasswordHash   string   `json:"password"`
	FirstName      string   `json:"firstName"`
	LastName       string   `json:"lastName"`
	DOB            string   `json:"dob"` // DD-MM-YYYY
	Gender         string   `json:"gender"`
	PhoneNumber    string   `json:"phoneNumber"`
	Email          string   `json:"email"`
	AccountNumbers []string `json:"accountNumbers"`
	FailedAttempts int      `json:"failedAttempts"`
	Locked         bool     `json:"locked"`

	// Loan and employment profile, optional at creation.
	CreditScore      int     `json:"cibilScore,omitempty"`
	Salary           float64 `json:"salary,omitempty"`
	EmployerName     string  `json:"employerName,omitempty"`
	EmployerCategory string  `json:"employerCategory,omitempty"`
	JobStartDate     string  `json:"jobStartDate,omitempty"` // YYYY-MM-DD
	City             string  `json:"city,omitempty"`
	KYCCompleted     bool    `json:"kycCompleted"`
}

// AddAccount links an account number to the customer if not already linked.
func (c *Customer) AddAccount(accountNumber string) bool {
	for _, n := range c.AccountNumbers {
		if n == accountNumber {
			return false
		}
	}
	c.AccountNumbers = append(c.AccountNumbers, accountNumber)
	return true
}
